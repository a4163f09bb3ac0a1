// Package crawler provides the HTTP session every crawl mode fetches pages
// through, and the fetch wrapper that turns transport failures into logged,
// skippable absences. The session adds robots.txt compliance, adaptive rate
// limiting, retries and an optional response cache.
package crawler

import "time"

// DefaultUserAgent identifies the crawler to the documentation site.
const DefaultUserAgent = "pepcensus/1.0 (+https://github.com/lukemcguire/pepcensus)"

// Config holds session configuration.
type Config struct {
	UserAgent      string        // User-Agent header and robots.txt agent name
	RequestTimeout time.Duration // Per-request timeout (default 10s)
	FileTimeout    time.Duration // Timeout for FetchFile downloads (default 5m)
	RateLimit      int           // Initial requests per second (default 10)
	AdaptiveRate   bool          // Adjust the rate from observed response times
	TargetRTT      time.Duration // Response time the adaptive limiter aims for (default 500ms)
	RetryPolicy    RetryPolicy   // Retries for transient failures
	RespectRobots  bool          // Skip pages disallowed by robots.txt
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:      DefaultUserAgent,
		RequestTimeout: 10 * time.Second,
		FileTimeout:    5 * time.Minute,
		RateLimit:      10,
		AdaptiveRate:   true,
		TargetRTT:      500 * time.Millisecond,
		RetryPolicy:    DefaultRetryPolicy(),
		RespectRobots:  true,
	}
}

// withDefaults fills zero-valued fields. MaxRetries is left alone so that
// zero can disable retries.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.FileTimeout <= 0 {
		c.FileTimeout = def.FileTimeout
	}
	if c.RateLimit <= 0 {
		c.RateLimit = def.RateLimit
	}
	if c.TargetRTT <= 0 {
		c.TargetRTT = def.TargetRTT
	}
	if c.RetryPolicy.MaxRetries < 0 {
		c.RetryPolicy.MaxRetries = 0
	}
	if c.RetryPolicy.BaseDelay <= 0 {
		c.RetryPolicy.BaseDelay = def.RetryPolicy.BaseDelay
	}
	if c.RetryPolicy.MaxDelay <= 0 {
		c.RetryPolicy.MaxDelay = def.RetryPolicy.MaxDelay
	}
	return c
}
