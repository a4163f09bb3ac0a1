package docs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lukemcguire/pepcensus/htmlutil"
	"github.com/lukemcguire/pepcensus/result"
)

// ErrVersionListNotFound is returned when the sidebar has no list
// mentioning "All versions".
var ErrVersionListNotFound = errors.New("python version list not found")

var versionPattern = regexp.MustCompile(`Python (\d\.\d+) \((.*)\)`)

// LatestVersions lists the documentation versions linked from the sidebar
// of the documentation root.
func (c *Client) LatestVersions(ctx context.Context) (*result.Report, error) {
	rootURL := c.base.String()
	doc, err := c.document(ctx, rootURL)
	if err != nil {
		return nil, err
	}

	sidebar, err := htmlutil.RequireElement(doc.Selection, "div", map[string]string{"class": "sphinxsidebarwrapper"})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rootURL, err)
	}

	var list *goquery.Selection
	sidebar.Find("ul").EachWithBreak(func(_ int, ul *goquery.Selection) bool {
		if strings.Contains(ul.Text(), "All versions") {
			list = ul
			return false
		}
		return true
	})
	if list == nil {
		return nil, fmt.Errorf("%s: %w", rootURL, ErrVersionListNotFound)
	}

	report := result.NewReport("latest-versions", "Documentation link", "Version", "Status")
	links := list.Find("a")
	for i := range links.Length() {
		link := links.Eq(i)
		version, status := parseVersion(link.Text())
		if err := report.Append(link.AttrOr("href", ""), version, status); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// parseVersion splits link text such as "Python 3.13 (stable)". Text that
// does not match is returned whole as the version with an empty status.
func parseVersion(text string) (version, status string) {
	m := versionPattern.FindStringSubmatch(text)
	if m == nil {
		return text, ""
	}
	return m[1], m[2]
}
