// Package result holds the report produced by a crawl mode and the writers
// that render it to the console, a pretty table, CSV files or JSON.
package result

import "fmt"

// Report is an ordered table: a header row followed by data rows.
// Every data row has the same number of columns as the header.
type Report struct {
	Mode   string     // The mode that produced the report (pep, whats-new, ...)
	Header []string   // Column labels
	Rows   [][]string // Data rows in presentation order
}

// NewReport creates an empty report with the given header.
func NewReport(mode string, header ...string) *Report {
	return &Report{Mode: mode, Header: header}
}

// Append adds a data row. It returns an error if the column count does not
// match the header.
func (r *Report) Append(row ...string) error {
	if len(row) != len(r.Header) {
		return fmt.Errorf("report %s: row has %d columns, header has %d", r.Mode, len(row), len(r.Header))
	}
	r.Rows = append(r.Rows, row)
	return nil
}

// Table returns the header followed by all data rows.
func (r *Report) Table() [][]string {
	table := make([][]string, 0, len(r.Rows)+1)
	table = append(table, r.Header)
	table = append(table, r.Rows...)
	return table
}
