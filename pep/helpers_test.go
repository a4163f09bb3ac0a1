package pep

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lukemcguire/pepcensus/crawler"
)

const testBase = "https://peps.python.org/"

// recordingHandler keeps every record it handles.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

// entries returns "message url" for each record, in order.
func (h *recordingHandler) entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.records))
	for _, r := range h.records {
		url := ""
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "url" {
				url = a.Value.String()
				return false
			}
			return true
		})
		out = append(out, r.Message+" "+url)
	}
	return out
}

func (h *recordingHandler) attrs(i int) map[string]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]string)
	h.records[i].Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.String()
		return true
	})
	return out
}

func (h *recordingHandler) levels() []slog.Level {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]slog.Level, 0, len(h.records))
	for _, r := range h.records {
		out = append(out, r.Level)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type indexRow struct {
	title string // abbr title, e.g. "Process, Active"
	href  string
}

func indexHTML(rows ...indexRow) string {
	var b strings.Builder
	b.WriteString(`<html><body><section id="numerical-index"><h2>Numerical Index</h2>`)
	b.WriteString(`<table class="pep-zero-table docutils align-default"><thead><tr><th>Type</th><th>PEP</th></tr></thead><tbody>`)
	for i, row := range rows {
		fmt.Fprintf(&b, `<tr class="row-odd"><td><abbr title="%s">XX</abbr></td>`, row.title)
		fmt.Fprintf(&b, `<td><a class="pep reference internal" href="%s" title="PEP %d">%d</a></td></tr>`, row.href, i+1, i+1)
	}
	b.WriteString(`</tbody></table></section></body></html>`)
	return b.String()
}

func detailHTML(status string) string {
	return `<html><body><section id="pep-content"><h1>PEP</h1><dl class="rfc2822 field-list simple">` +
		`<dt class="field-odd">Status<span class="colon">:</span></dt>` +
		`<dd class="field-odd"><abbr title="Normative proposal">` + status + `</abbr></dd>` +
		`<dt class="field-even">Type<span class="colon">:</span></dt>` +
		`<dd class="field-even"><abbr title="Normative PEP">Standards Track</abbr></dd>` +
		`</dl></section></body></html>`
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Failed to parse HTML: %v", err)
	}
	return doc
}

// fakeFetcher serves pages from memory. URLs with no page answer 404.
type fakeFetcher struct {
	pages  map[string]string
	errs   map[string]error
	delays map[string]time.Duration
	onGet  func(url string)

	mu    sync.Mutex
	calls []string
}

func (f *fakeFetcher) FetchPage(ctx context.Context, url string) (*crawler.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.onGet != nil {
		f.onGet(url)
	}
	if d := f.delays[url]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, &crawler.StatusError{URL: url, StatusCode: 404}
	}
	return &crawler.Page{
		URL:         url,
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(body),
	}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// scenarioFetcher serves three PEPs: an Active one whose statuses agree, a
// Final one listed as Accepted, and one whose page is missing.
func scenarioFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: map[string]string{
			testBase: indexHTML(
				indexRow{"Process, Active", "pep-0001/"},
				indexRow{"Standards Track, Accepted", "pep-0002/"},
				indexRow{"Informational, Final", "pep-0003/"},
			),
			testBase + "pep-0001/": detailHTML("Active"),
			testBase + "pep-0002/": detailHTML("Final"),
		},
	}
}
