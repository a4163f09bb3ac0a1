package pep

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lukemcguire/pepcensus/htmlutil"
)

func TestParseIndex(t *testing.T) {
	base, _ := url.Parse(testBase)
	doc := mustDoc(t, indexHTML(
		indexRow{"Process, Active", "pep-0001/"},
		indexRow{"Informational", "/pep-0020/"},
		indexRow{"Standards Track, Final", "https://peps.python.org/pep-0008/"},
	))

	entries, err := ParseIndex(doc, base)
	if err != nil {
		t.Fatalf("ParseIndex() error: %v", err)
	}

	want := []IndexEntry{
		{SummaryStatuses: []string{"Process", "Active"}, DetailURL: "https://peps.python.org/pep-0001/"},
		{SummaryStatuses: []string{"Informational"}, DetailURL: "https://peps.python.org/pep-0020/"},
		{SummaryStatuses: []string{"Standards Track", "Final"}, DetailURL: "https://peps.python.org/pep-0008/"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("ParseIndex() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIndex_EmptyBody(t *testing.T) {
	base, _ := url.Parse(testBase)
	entries, err := ParseIndex(mustDoc(t, indexHTML()), base)
	if err != nil {
		t.Fatalf("ParseIndex() error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestParseIndex_MissingElements(t *testing.T) {
	base, _ := url.Parse(testBase)
	valid := indexHTML(indexRow{"Process, Active", "pep-0001/"})

	tests := []struct {
		name string
		html string
	}{
		{"no section", strings.Replace(valid, `id="numerical-index"`, `id="index"`, 1)},
		{"wrong table class", strings.Replace(valid, "pep-zero-table", "plain", 1)},
		{"no abbr", strings.Replace(valid, `<abbr title="Process, Active">XX</abbr>`, "PA", 1)},
		{"no abbr title", strings.Replace(valid, ` title="Process, Active"`, "", 1)},
		{"no pep link", strings.Replace(valid, `class="pep reference internal"`, `class="reference external"`, 1)},
		{"no href", strings.Replace(valid, ` href="pep-0001/"`, "", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIndex(mustDoc(t, tt.html), base)
			if !errors.Is(err, htmlutil.ErrElementNotFound) {
				t.Errorf("expected ErrElementNotFound, got %v", err)
			}
		})
	}
}

func TestParseDetail(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"status field", detailHTML("Final"), "Final"},
		{"whitespace trimmed", detailHTML("\n  Draft \n"), "Draft"},
		{"first abbr wins", `<p><abbr>Rejected</abbr> <abbr>Final</abbr></p>`, "Rejected"},
		{"empty text", `<abbr title="x"></abbr>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDetail(mustDoc(t, tt.html), testBase+"pep-0001/")
			if err != nil {
				t.Fatalf("ParseDetail() error: %v", err)
			}
			if got.Status != tt.want || got.URL != testBase+"pep-0001/" {
				t.Errorf("ParseDetail() = %+v, want status %q", got, tt.want)
			}
		})
	}
}

func TestParseDetail_NoAbbr(t *testing.T) {
	_, err := ParseDetail(mustDoc(t, `<html><body><p>Status: Final</p></body></html>`), testBase)
	if !errors.Is(err, htmlutil.ErrElementNotFound) {
		t.Errorf("expected ErrElementNotFound, got %v", err)
	}
}
