package pep

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		status string
		want   Category
		wantOK bool
	}{
		{"Active", 'A', true},
		{"Final", 'F', true},
		{"Withdrawn", 'W', true},
		{"April Fool!", 'A', true},
		{"Unknown", 'U', true},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := CategoryOf(tt.status)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("CategoryOf(%q) = %q, %v, want %q, %v", tt.status, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestKnownCategories(t *testing.T) {
	got := KnownCategories()
	if diff := cmp.Diff(Categories{'A', 'D', 'F', 'P', 'R', 'S', 'W'}, got); diff != "" {
		t.Errorf("KnownCategories() mismatch (-want +got):\n%s", diff)
	}

	got[0] = 'X'
	if KnownCategories()[0] != 'A' {
		t.Error("KnownCategories() should return a copy")
	}
	if KnownCategories().Contains('X') {
		t.Error("X should not be a known category")
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := Category('F').Label(); got != "Final" {
		t.Errorf("Label() = %q", got)
	}
	if got := Category('U').Label(); got != "" {
		t.Errorf("unknown Label() = %q", got)
	}
	if got := Category('S').String(); got != "S" {
		t.Errorf("String() = %q", got)
	}
}

func TestTally(t *testing.T) {
	tally := NewTally(KnownCategories())

	if !tally.Increment('F') || !tally.Increment('F') || !tally.Increment('A') {
		t.Fatal("Increment() of a known category should succeed")
	}
	if tally.Increment('U') {
		t.Error("Increment() of an unknown category should fail")
	}

	if got := tally.Count('F'); got != 2 {
		t.Errorf("Count(F) = %d, want 2", got)
	}
	if got := tally.Count('U'); got != 0 {
		t.Errorf("Count(U) = %d, want 0", got)
	}
	if got := tally.Total(); got != 3 {
		t.Errorf("Total() = %d, want 3", got)
	}

	report := tally.Report()
	want := [][]string{
		{"Status", "Count"},
		{"A", "1"}, {"D", "0"}, {"F", "2"}, {"P", "0"}, {"R", "0"}, {"S", "0"}, {"W", "0"},
	}
	if diff := cmp.Diff(want, report.Table()); diff != "" {
		t.Errorf("Report() mismatch (-want +got):\n%s", diff)
	}
}

func TestTally_EmptyReportListsEveryCategory(t *testing.T) {
	report := NewTally(KnownCategories()).Report()
	if len(report.Rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(report.Rows))
	}
	for _, row := range report.Rows {
		if row[1] != "0" {
			t.Errorf("row %v should be zero", row)
		}
	}
}
