package crawler

import (
	"time"

	"github.com/lukemcguire/pepcensus/result"
)

// CrawlEvent reports progress after one detail page has been handled.
type CrawlEvent struct {
	URL           string
	Error         string
	ErrorCategory result.ErrorCategory
	FromCache     bool
	Checked       int // Entries handled so far
	Total         int // Entries on the index page
	Mismatches    int
	Rejected      int
	Skipped       int
	Rate          int           // Current request rate in requests per second
	RTT           time.Duration // Smoothed response time the rate adapts to
}
