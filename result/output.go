package result

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON writes the report rows as a JSON array of objects keyed by the
// header labels.
func WriteJSON(w io.Writer, report *Report) error {
	records := make([]map[string]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		record := make(map[string]string, len(report.Header))
		for i, label := range report.Header {
			if i < len(row) {
				record[label] = row[i]
			}
		}
		records = append(records, record)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}

// WriteCSV writes the report as CSV to the writer.
// Always includes the header row, even if there are no data rows.
func WriteCSV(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(report.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, row := range report.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}
