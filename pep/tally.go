package pep

import (
	"strconv"

	"github.com/lukemcguire/pepcensus/result"
)

// Tally counts entries per category. Every category starts at zero and
// counts only ever grow.
type Tally struct {
	categories Categories
	counts     []int
}

// NewTally creates a tally seeded with zero for each category.
func NewTally(categories Categories) *Tally {
	return &Tally{
		categories: categories,
		counts:     make([]int, len(categories)),
	}
}

// Increment adds one to category c. It reports false, leaving the tally
// unchanged, when c is not one of the tally's categories.
func (t *Tally) Increment(c Category) bool {
	for i, known := range t.categories {
		if known == c {
			t.counts[i]++
			return true
		}
	}
	return false
}

// Count returns the count for c.
func (t *Tally) Count(c Category) int {
	for i, known := range t.categories {
		if known == c {
			return t.counts[i]
		}
	}
	return 0
}

// Total returns the sum of all counts.
func (t *Tally) Total() int {
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

// Categories returns the tally's categories in report order.
func (t *Tally) Categories() Categories {
	return t.categories
}

// Report renders the tally as a ("Status", "Count") table with one row per
// category in order, zero counts included.
func (t *Tally) Report() *result.Report {
	report := result.NewReport("pep", "Status", "Count")
	for i, c := range t.categories {
		report.Rows = append(report.Rows, []string{c.String(), strconv.Itoa(t.counts[i])})
	}
	return report
}
