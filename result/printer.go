package result

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// PrintResults writes the header and every row to w, one line each, columns
// separated by a single space.
func PrintResults(w io.Writer, report *Report) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	for _, row := range report.Table() {
		writef("%s\n", strings.Join(row, " "))
	}
}

// PrintPretty renders the report as a bordered table.
func PrintPretty(w io.Writer, report *Report) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)

	header := make(table.Row, 0, len(report.Header))
	for _, label := range report.Header {
		header = append(header, label)
	}
	t.AppendHeader(header)

	for _, row := range report.Rows {
		r := make(table.Row, 0, len(row))
		for _, cell := range row {
			r = append(r, cell)
		}
		t.AppendRow(r)
	}
	t.Render()
}
