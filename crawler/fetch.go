package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/lukemcguire/pepcensus/result"
)

// ErrDisallowed is returned by FetchPage for URLs robots.txt forbids.
var ErrDisallowed = result.ErrDisallowed

// Fetcher retrieves a page. Session implements it; tests substitute fakes.
type Fetcher interface {
	FetchPage(ctx context.Context, url string) (*Page, error)
}

// FileFetcher retrieves large files outside the page cache.
type FileFetcher interface {
	FetchFile(ctx context.Context, url string) (*Page, error)
}

// ForFiles returns a Fetcher whose FetchPage goes through f's FetchFile
// when f has one, and f itself otherwise.
func ForFiles(f Fetcher) Fetcher {
	if ff, ok := f.(FileFetcher); ok {
		return fileFetcher{ff}
	}
	return f
}

type fileFetcher struct{ FileFetcher }

func (f fileFetcher) FetchPage(ctx context.Context, url string) (*Page, error) {
	return f.FetchFile(ctx, url)
}

// Page is a successfully fetched response.
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	FromCache   bool // Served by the response cache without a network request
}

// Document decodes the body to UTF-8 and parses it as HTML. The encoding is
// taken from the Content-Type header, a byte order mark or a <meta> charset
// declaration, in that order, falling back to UTF-8.
func (p *Page) Document() (*goquery.Document, error) {
	reader, err := charset.NewReader(bytes.NewReader(p.Body), p.ContentType)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.URL, err)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.URL, err)
	}
	return doc, nil
}

// Bytes returns the raw body, for binary downloads.
func (p *Page) Bytes() []byte {
	return p.Body
}

// StatusError reports a response with a 4xx or 5xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

// Get fetches url and returns the page, or nil when the page could not be
// retrieved for any reason. Failures are logged and never returned, so a
// caller only has to check for an absent page.
func Get(ctx context.Context, logger *slog.Logger, fetcher Fetcher, url string) *Page {
	page, err := fetcher.FetchPage(ctx, url)
	if err != nil {
		LogFetchFailure(ctx, logger, url, err)
		return nil
	}
	return page
}

// LogFetchFailure writes the record Get emits for an unreachable page.
func LogFetchFailure(ctx context.Context, logger *slog.Logger, url string, err error) {
	logger.ErrorContext(ctx, "page unreachable",
		"url", url,
		"error", err,
		"error_category", result.ClassifyError(err),
	)
}
