package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsEntry stores the parsed rules for one host. A nil group means every
// path is allowed.
type robotsEntry struct {
	group     *robotstxt.Group
	fetchedAt time.Time
}

// RobotsChecker fetches and caches robots.txt rules per scheme and host.
// Any failure to obtain or parse robots.txt allows the fetch.
type RobotsChecker struct {
	client    *http.Client
	userAgent string
	cacheTTL  time.Duration

	mu    sync.Mutex
	cache map[string]robotsEntry
}

// NewRobotsChecker creates a RobotsChecker that evaluates rules for userAgent.
func NewRobotsChecker(client *http.Client, userAgent string) *RobotsChecker {
	return &RobotsChecker{
		client:    client,
		userAgent: userAgent,
		cacheTTL:  time.Hour,
		cache:     make(map[string]robotsEntry),
	}
}

// Allowed reports whether rawURL may be fetched. The returned error, if any,
// describes why robots.txt could not be consulted; the answer is then true.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) (bool, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return true, fmt.Errorf("parse URL: %w", err)
	}
	if parsedURL.Host == "" {
		return true, nil
	}

	origin := parsedURL.Scheme + "://" + parsedURL.Host
	group, err := r.group(ctx, origin)
	if group == nil {
		return true, err
	}

	return group.Test(parsedURL.RequestURI()), nil
}

// group returns the cached rule group for origin, fetching robots.txt when
// the entry is missing or expired.
func (r *RobotsChecker) group(ctx context.Context, origin string) (*robotstxt.Group, error) {
	r.mu.Lock()
	entry, ok := r.cache[origin]
	r.mu.Unlock()
	if ok && time.Since(entry.fetchedAt) < r.cacheTTL {
		return entry.group, nil
	}

	group, err := r.fetch(ctx, origin)

	r.mu.Lock()
	r.cache[origin] = robotsEntry{group: group, fetchedAt: time.Now()}
	r.mu.Unlock()

	return group, err
}

func (r *RobotsChecker) fetch(ctx context.Context, origin string) (*robotstxt.Group, error) {
	robotsURL := origin + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create robots.txt request for %s: %w", origin, err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt for %s: %w", origin, err)
	}

	body, readErr := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("read robots.txt body for %s: %w", origin, readErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close robots.txt response body for %s: %w", origin, closeErr)
	}

	// 404 means no rules; 5xx is treated the same way rather than as
	// disallow-all.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode >= 500 {
		return nil, nil
	}

	robots, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt for %s: %w", origin, err)
	}
	return robots.FindGroup(r.userAgent), nil
}
