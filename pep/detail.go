package pep

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lukemcguire/pepcensus/htmlutil"
)

// DetailRecord is the status shown on a PEP's own page.
type DetailRecord struct {
	URL    string
	Status string // e.g. "Final"; the first character is the category
}

// ParseDetail reads the authoritative status: the text of the first <abbr>
// on the page.
func ParseDetail(doc *goquery.Document, url string) (DetailRecord, error) {
	abbr, err := htmlutil.RequireElement(doc.Selection, "abbr", nil)
	if err != nil {
		return DetailRecord{}, err
	}
	return DetailRecord{
		URL:    url,
		Status: strings.TrimSpace(abbr.Text()),
	}, nil
}
