package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lukemcguire/pepcensus/pep"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	cellStyle    = lipgloss.NewStyle()
	countStyle   = lipgloss.NewStyle().Bold(true)
)

// RenderSummary produces a Lip Gloss styled tally of a pep run.
func RenderSummary(res *pep.Result) string {
	if res == nil || res.Tally == nil {
		return errorStyle.Render("No results available.")
	}

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("PEP statuses"))
	builder.WriteString("\n")

	categories := res.Tally.Categories()
	rows := make([][]string, 0, len(categories)+1)
	for _, c := range categories {
		rows = append(rows, []string{c.String(), c.Label(), strconv.Itoa(res.Tally.Count(c))})
	}
	rows = append(rows, []string{"", "Total", strconv.Itoa(res.Tally.Total())})
	totalRow := len(rows) - 1

	tallyTable := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Status", "Meaning", "Count").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row == totalRow {
				return countStyle
			}
			if col == 2 && rows[row][2] == "0" {
				return dimStyle
			}
			return cellStyle
		}).
		Rows(rows...)

	builder.WriteString(tallyTable.Render())
	builder.WriteString("\n")

	stats := res.Stats
	line := fmt.Sprintf("Checked %d PEPs in %s: %d mismatches, %d unplanned, %d skipped",
		stats.Processed,
		res.Duration.Round(1_000_000), // round to ms
		stats.Mismatches,
		stats.Rejected,
		stats.Skipped,
	)
	if stats.Mismatches == 0 && stats.Rejected == 0 && stats.Skipped == 0 {
		builder.WriteString(successStyle.Render(line))
	} else {
		builder.WriteString(warnStyle.Render(line))
	}
	builder.WriteString("\n")

	for _, rec := range res.Reconciliations {
		if !rec.Mismatched() {
			continue
		}
		builder.WriteString(dimStyle.Render(fmt.Sprintf("  %s: index %s, page %s", rec.URL, rec.Summary, rec.Authoritative)))
		builder.WriteString("\n")
	}

	return builder.String()
}
