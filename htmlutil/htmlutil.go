// Package htmlutil locates elements a page is required to contain. A missing
// element means the page layout changed, so lookups fail with an error that
// callers propagate instead of parsing on.
package htmlutil

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrElementNotFound matches every *MissingElementError.
var ErrElementNotFound = errors.New("required element not found")

// MissingElementError reports the tag and attributes that failed to match.
type MissingElementError struct {
	Tag   string
	Attrs map[string]string
}

func (e *MissingElementError) Error() string {
	return fmt.Sprintf("%s: <%s> with %s", ErrElementNotFound, e.Tag, formatAttrs(e.Attrs))
}

func (e *MissingElementError) Is(target error) bool {
	return target == ErrElementNotFound
}

// RequireElement returns the first descendant of sel matching tag and attrs.
// The class attribute matches as a set of class names; other attributes
// match their value exactly.
func RequireElement(sel *goquery.Selection, tag string, attrs map[string]string) (*goquery.Selection, error) {
	found := sel.Find(Selector(tag, attrs)).First()
	if found.Length() == 0 {
		return nil, &MissingElementError{Tag: tag, Attrs: attrs}
	}
	return found, nil
}

// RequireAttr returns the value of attribute name on sel.
func RequireAttr(sel *goquery.Selection, name string) (string, error) {
	val, ok := sel.Attr(name)
	if !ok {
		tag := goquery.NodeName(sel)
		return "", fmt.Errorf("%w: <%s> has no %q attribute", ErrElementNotFound, tag, name)
	}
	return val, nil
}

// Selector builds a CSS selector for tag and attrs with attributes in sorted
// order.
func Selector(tag string, attrs map[string]string) string {
	var b strings.Builder
	b.WriteString(tag)

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := attrs[k]
		if k == "class" {
			for _, class := range strings.Fields(v) {
				fmt.Fprintf(&b, "[class~=%q]", class)
			}
			continue
		}
		fmt.Fprintf(&b, "[%s=%q]", k, v)
	}
	return b.String()
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// Text returns the text of sel with runs of whitespace collapsed to one
// space and the ends trimmed.
func Text(sel *goquery.Selection) string {
	return strings.TrimSpace(innerWhitespace.ReplaceAllString(sel.Text(), " "))
}

func formatAttrs(attrs map[string]string) string {
	if len(attrs) == 0 {
		return "no attributes"
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, attrs[k]))
	}
	return strings.Join(parts, " ")
}
