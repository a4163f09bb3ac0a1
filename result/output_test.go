package result

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleReport() *Report {
	r := NewReport("pep", "Status", "Count")
	r.Rows = [][]string{{"A", "1"}, {"D", "0"}, {"F", "1"}}
	return r
}

func TestReportAppend(t *testing.T) {
	r := NewReport("latest-versions", "Documentation link", "Version", "Status")

	if err := r.Append("https://docs.python.org/3.13/", "3.13", "stable"); err != nil {
		t.Fatalf("Append() returned error: %v", err)
	}
	if err := r.Append("too", "short"); err == nil {
		t.Error("expected error for row with wrong column count")
	}
	if len(r.Rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(r.Rows))
	}

	table := r.Table()
	if len(table) != 2 || table[0][0] != "Documentation link" {
		t.Errorf("Table() = %v", table)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	var decoded []map[string]string
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(decoded))
	}
	if decoded[2]["Status"] != "F" || decoded[2]["Count"] != "1" {
		t.Errorf("unexpected third record: %v", decoded[2])
	}
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, NewReport("pep", "Status", "Count")); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte("[]\n")) {
		t.Errorf("Expected '[]\\n', got %q", buf.String())
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV output: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("Expected 4 records (header + 3 data), got %d", len(records))
	}
	if records[0][0] != "Status" || records[0][1] != "Count" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][0] != "A" || records[1][1] != "1" {
		t.Errorf("unexpected first row: %v", records[1])
	}
}

func TestWriteCSV_EmptyWithHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, NewReport("pep", "Status", "Count")); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}
	if buf.String() != "Status,Count\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, sampleReport())

	want := "Status Count\nA 1\nD 0\nF 1\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestPrintPretty(t *testing.T) {
	var buf bytes.Buffer
	PrintPretty(&buf, sampleReport())

	got := buf.String()
	for _, want := range []string{"STATUS", "COUNT", "A", "F"} {
		if !strings.Contains(got, want) {
			t.Errorf("pretty output missing %q:\n%s", want, got)
		}
	}
	if !strings.Contains(got, "╭") {
		t.Errorf("expected rounded border in output:\n%s", got)
	}
}

func TestSaveCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	now := time.Date(2026, 10, 16, 9, 5, 7, 0, time.UTC)

	path, err := SaveCSV(dir, sampleReport(), now)
	if err != nil {
		t.Fatalf("SaveCSV returned error: %v", err)
	}
	if filepath.Base(path) != "pep_2026-10-16_09-05-07.csv" {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "Status,Count\nA,1\n") {
		t.Errorf("unexpected file contents %q", data)
	}
}
