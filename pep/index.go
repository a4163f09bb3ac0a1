package pep

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lukemcguire/pepcensus/htmlutil"
	"github.com/lukemcguire/pepcensus/urlutil"
)

// IndexEntry is one row of the numerical index.
type IndexEntry struct {
	SummaryStatuses []string // e.g. ["Process", "Active"]
	DetailURL       string   // absolute URL of the PEP page
}

// ParseIndex extracts the rows of the numerical index table in table order.
// Every element it relies on is mandatory; a missing one fails with
// htmlutil.ErrElementNotFound.
func ParseIndex(doc *goquery.Document, base *url.URL) ([]IndexEntry, error) {
	section, err := htmlutil.RequireElement(doc.Selection, "section", map[string]string{"id": "numerical-index"})
	if err != nil {
		return nil, err
	}
	table, err := htmlutil.RequireElement(section, "table", map[string]string{"class": "pep-zero-table docutils align-default"})
	if err != nil {
		return nil, err
	}
	body, err := htmlutil.RequireElement(table, "tbody", nil)
	if err != nil {
		return nil, err
	}

	rows := body.Find("tr")
	entries := make([]IndexEntry, 0, rows.Length())
	for i := range rows.Length() {
		entry, err := parseRow(rows.Eq(i), base)
		if err != nil {
			return nil, fmt.Errorf("index row %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseRow(row *goquery.Selection, base *url.URL) (IndexEntry, error) {
	abbr, err := htmlutil.RequireElement(row, "abbr", nil)
	if err != nil {
		return IndexEntry{}, err
	}
	title, err := htmlutil.RequireAttr(abbr, "title")
	if err != nil {
		return IndexEntry{}, err
	}

	link, err := htmlutil.RequireElement(row, "a", map[string]string{"class": "pep reference internal"})
	if err != nil {
		return IndexEntry{}, err
	}
	href, err := htmlutil.RequireAttr(link, "href")
	if err != nil {
		return IndexEntry{}, err
	}
	detailURL, err := urlutil.Resolve(base, href)
	if err != nil {
		return IndexEntry{}, err
	}

	return IndexEntry{
		SummaryStatuses: strings.Split(title, ", "),
		DetailURL:       detailURL,
	}, nil
}
