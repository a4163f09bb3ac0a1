// Package pep cross-checks the status of every PEP listed on the index page
// against the status on its own page and tallies the authoritative statuses
// by category.
package pep

import "slices"

// Category is the single-letter code that classifies a status. It is the
// first character of the status text on a PEP page.
type Category byte

func (c Category) String() string {
	return string(rune(c))
}

var categoryLabels = map[Category]string{
	'A': "Accepted / Active",
	'D': "Deferred",
	'F': "Final",
	'P': "Provisional",
	'R': "Rejected",
	'S': "Superseded",
	'W': "Withdrawn",
}

// Label returns a readable name for the category, or "" when unknown.
func (c Category) Label() string {
	return categoryLabels[c]
}

// Categories is an ordered set of categories. Reports list categories in
// this order.
type Categories []Category

var knownCategories = Categories{'A', 'D', 'F', 'P', 'R', 'S', 'W'}

// KnownCategories returns the closed set of categories a status may have.
func KnownCategories() Categories {
	return slices.Clone(knownCategories)
}

// Contains reports whether c is one of cs.
func (cs Categories) Contains(c Category) bool {
	return slices.Contains(cs, c)
}

// CategoryOf returns the category encoded by status. It reports false for
// an empty status.
func CategoryOf(status string) (Category, bool) {
	if status == "" {
		return 0, false
	}
	return Category(status[0]), true
}
