package htmlutil

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const indexFixture = `<html><body>
<section id="numerical-index">
  <table class="pep-zero-table docutils align-default">
    <tbody><tr><td><abbr title="Process, Active">PA</abbr></td></tr></tbody>
  </table>
</section>
<section id="other"><table class="docutils"></table></section>
</body></html>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Failed to parse HTML: %v", err)
	}
	return doc
}

func TestSelector(t *testing.T) {
	tests := []struct {
		name  string
		tag   string
		attrs map[string]string
		want  string
	}{
		{"tag only", "tbody", nil, "tbody"},
		{"id", "section", map[string]string{"id": "numerical-index"}, `section[id="numerical-index"]`},
		{
			"class tokens",
			"table",
			map[string]string{"class": "pep-zero-table docutils"},
			`table[class~="pep-zero-table"][class~="docutils"]`,
		},
		{
			"sorted attrs",
			"div",
			map[string]string{"role": "main", "class": "body"},
			`div[class~="body"][role="main"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Selector(tt.tag, tt.attrs); got != tt.want {
				t.Errorf("Selector() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRequireElement(t *testing.T) {
	doc := mustDoc(t, indexFixture)

	section, err := RequireElement(doc.Selection, "section", map[string]string{"id": "numerical-index"})
	if err != nil {
		t.Fatalf("RequireElement(section) error: %v", err)
	}

	table, err := RequireElement(section, "table", map[string]string{"class": "pep-zero-table docutils align-default"})
	if err != nil {
		t.Fatalf("RequireElement(table) error: %v", err)
	}

	// Class order in the query does not matter.
	if _, err := RequireElement(section, "table", map[string]string{"class": "align-default pep-zero-table"}); err != nil {
		t.Errorf("class set match failed: %v", err)
	}

	abbr, err := RequireElement(table, "abbr", nil)
	if err != nil {
		t.Fatalf("RequireElement(abbr) error: %v", err)
	}
	if title := abbr.AttrOr("title", ""); title != "Process, Active" {
		t.Errorf("abbr title = %q", title)
	}
}

func TestRequireElement_Missing(t *testing.T) {
	doc := mustDoc(t, indexFixture)

	_, err := RequireElement(doc.Selection, "section", map[string]string{"id": "missing"})
	if err == nil {
		t.Fatal("expected error for missing element")
	}
	if !errors.Is(err, ErrElementNotFound) {
		t.Errorf("expected ErrElementNotFound, got %v", err)
	}

	var missing *MissingElementError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingElementError, got %T", err)
	}
	if missing.Tag != "section" || missing.Attrs["id"] != "missing" {
		t.Errorf("unexpected error fields: %+v", missing)
	}
	if !strings.Contains(err.Error(), `id="missing"`) {
		t.Errorf("error message should name the attributes: %v", err)
	}
}

func TestRequireElement_SearchesDescendantsOnly(t *testing.T) {
	doc := mustDoc(t, indexFixture)
	other, err := RequireElement(doc.Selection, "section", map[string]string{"id": "other"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := RequireElement(other, "abbr", nil); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("expected abbr outside the section not to match, got %v", err)
	}
}

func TestRequireAttr(t *testing.T) {
	doc := mustDoc(t, `<a class="pep reference internal" href="pep-0001/">1</a><a>none</a>`)

	href, err := RequireAttr(doc.Find("a").First(), "href")
	if err != nil || href != "pep-0001/" {
		t.Errorf("RequireAttr() = %q, %v", href, err)
	}

	if _, err := RequireAttr(doc.Find("a").Last(), "href"); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("expected ErrElementNotFound, got %v", err)
	}
}

func TestText(t *testing.T) {
	doc := mustDoc(t, "<dl>\n  <dt>Editor</dt>\n\t<dd>Guido  van Rossum</dd>\n</dl>")
	if got := Text(doc.Find("dl")); got != "Editor Guido van Rossum" {
		t.Errorf("Text() = %q", got)
	}
}
