package docs

import (
	"context"
	"fmt"

	"github.com/lukemcguire/pepcensus/crawler"
	"github.com/lukemcguire/pepcensus/htmlutil"
	"github.com/lukemcguire/pepcensus/result"
)

// WhatsNew lists every "What's New" article with its title and the
// editor/author block. Articles that cannot be fetched are left out.
func (c *Client) WhatsNew(ctx context.Context) (*result.Report, error) {
	indexURL, err := c.resolve("whatsnew/")
	if err != nil {
		return nil, err
	}
	doc, err := c.document(ctx, indexURL)
	if err != nil {
		return nil, err
	}

	section, err := htmlutil.RequireElement(doc.Selection, "section", map[string]string{"id": "what-s-new-in-python"})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", indexURL, err)
	}
	wrapper, err := htmlutil.RequireElement(section, "div", map[string]string{"class": "toctree-wrapper"})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", indexURL, err)
	}

	report := result.NewReport("whats-new", "Article link", "Title", "Editor, Author")
	items := wrapper.Find(htmlutil.Selector("li", map[string]string{"class": "toctree-l1"}))
	for i := range items.Length() {
		link, err := htmlutil.RequireElement(items.Eq(i), "a", nil)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", indexURL, err)
		}
		href, err := htmlutil.RequireAttr(link, "href")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", indexURL, err)
		}
		articleURL, err := resolveAgainst(indexURL, href)
		if err != nil {
			return nil, err
		}

		page := crawler.Get(ctx, c.logger, c.fetcher, articleURL)
		if page == nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		title, byline, err := parseArticle(page)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", articleURL, err)
		}
		if err := report.Append(articleURL, title, byline); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// parseArticle returns the article heading and the text of its first
// definition list, which holds the editor and author.
func parseArticle(page *crawler.Page) (title, byline string, err error) {
	doc, err := page.Document()
	if err != nil {
		return "", "", err
	}
	h1, err := htmlutil.RequireElement(doc.Selection, "h1", nil)
	if err != nil {
		return "", "", err
	}
	dl, err := htmlutil.RequireElement(doc.Selection, "dl", nil)
	if err != nil {
		return "", "", err
	}

	heading := h1.Clone()
	heading.Find("a.headerlink").Remove()
	return htmlutil.Text(heading), htmlutil.Text(dl), nil
}
