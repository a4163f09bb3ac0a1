package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// IsHTTPScheme returns true if the URL has an http or https scheme.
// Returns false for empty strings, non-HTTP schemes, or unparseable URLs.
func IsHTTPScheme(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(parsed.Scheme)
	return scheme == "http" || scheme == "https"
}

// Resolve resolves a possibly-relative href found on a page against base.
// Surrounding whitespace in href is ignored.
func Resolve(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// ParseBase parses a site root. The path always ends in "/" so that relative
// references such as "whatsnew/" resolve below it rather than beside it.
func ParseBase(rawURL string) (*url.URL, error) {
	if !IsHTTPScheme(rawURL) {
		return nil, fmt.Errorf("base URL %q must start with http:// or https://", rawURL)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", rawURL, err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", rawURL)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	return parsed, nil
}
