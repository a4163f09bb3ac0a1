// Package docs implements the crawl modes that read the Python
// documentation site: the list of "What's New" articles, the versions
// listed in the sidebar and the A4 PDF archive download.
package docs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/lukemcguire/pepcensus/crawler"
	"github.com/lukemcguire/pepcensus/urlutil"
)

// ErrPageUnavailable is returned when a page a mode cannot do without could
// not be fetched.
var ErrPageUnavailable = errors.New("page unavailable")

// Client runs the documentation modes against one documentation root.
type Client struct {
	base    *url.URL
	fetcher crawler.Fetcher
	logger  *slog.Logger
}

// NewClient creates a client for the documentation rooted at baseURL,
// e.g. https://docs.python.org/3/.
func NewClient(baseURL string, fetcher crawler.Fetcher, logger *slog.Logger) (*Client, error) {
	base, err := urlutil.ParseBase(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{base: base, fetcher: fetcher, logger: logger}, nil
}

func (c *Client) resolve(href string) (string, error) {
	return urlutil.Resolve(c.base, href)
}

// resolveAgainst resolves href found on the page at pageURL.
func resolveAgainst(pageURL, href string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	return urlutil.Resolve(base, href)
}

// document fetches and parses a page the mode requires.
func (c *Client) document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	page := crawler.Get(ctx, c.logger, c.fetcher, pageURL)
	if page == nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s", ErrPageUnavailable, pageURL)
	}
	return page.Document()
}
