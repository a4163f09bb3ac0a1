// Package urlutil holds the URL handling shared by the fetch layer and the
// page extractors: cache-key normalization and link resolution.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/purell"
)

// cacheKeyFlags folds the URL variants a page is linked under onto one key:
// case, default ports, dot segments, index documents, fragments and query
// order are ignored, and every path ends in a slash.
const cacheKeyFlags = purell.FlagsSafe |
	purell.FlagsUsuallySafeNonGreedy |
	purell.FlagRemoveDirectoryIndex |
	purell.FlagRemoveFragment |
	purell.FlagSortQuery

// Normalize returns the canonical form of rawURL used as a response cache key.
//
// Returns an error if the input is empty, cannot be parsed, or is not absolute.
func Normalize(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errors.New("cannot normalize empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("normalize URL %q: %w", rawURL, err)
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errors.New("URL must have both scheme and host")
	}

	return purell.NormalizeURL(parsed, cacheKeyFlags), nil
}
