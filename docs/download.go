package docs

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lukemcguire/pepcensus/crawler"
	"github.com/lukemcguire/pepcensus/htmlutil"
)

const archiveSuffix = "pdf-a4.zip"

// Download fetches the A4 PDF documentation archive linked from the
// download page and writes it into dir. It returns the written path.
func (c *Client) Download(ctx context.Context, dir string) (string, error) {
	downloadsURL, err := c.resolve("download.html")
	if err != nil {
		return "", err
	}
	doc, err := c.document(ctx, downloadsURL)
	if err != nil {
		return "", err
	}

	href, err := archiveHref(doc)
	if err != nil {
		return "", fmt.Errorf("%s: %w", downloadsURL, err)
	}
	archiveURL, err := resolveAgainst(downloadsURL, href)
	if err != nil {
		return "", err
	}

	page := crawler.Get(ctx, c.logger, crawler.ForFiles(c.fetcher), archiveURL)
	if page == nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %s", ErrPageUnavailable, archiveURL)
	}

	name, err := archiveName(archiveURL)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create downloads dir: %w", err)
	}
	archivePath := filepath.Join(dir, name)
	if err := os.WriteFile(archivePath, page.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}

	c.logger.InfoContext(ctx, "archive downloaded", "path", archivePath, "url", archiveURL, "bytes", len(page.Bytes()))
	return archivePath, nil
}

func archiveHref(doc *goquery.Document) (string, error) {
	content, err := htmlutil.RequireElement(doc.Selection, "div", map[string]string{"role": "main"})
	if err != nil {
		return "", err
	}
	table, err := htmlutil.RequireElement(content, "table", map[string]string{"class": "docutils"})
	if err != nil {
		return "", err
	}
	link, err := htmlutil.RequireElement(table, "a", map[string]string{"href$": archiveSuffix})
	if err != nil {
		return "", err
	}
	return htmlutil.RequireAttr(link, "href")
}

func archiveName(archiveURL string) (string, error) {
	u, err := url.Parse(archiveURL)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." || !strings.HasSuffix(name, archiveSuffix) {
		return "", fmt.Errorf("no archive file name in %s", archiveURL)
	}
	return name, nil
}
