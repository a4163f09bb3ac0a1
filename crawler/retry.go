package crawler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RetryPolicy configures retry behavior for failed requests.
type RetryPolicy struct {
	MaxRetries int           // Maximum number of retries (2 = 3 total attempts)
	BaseDelay  time.Duration // Initial backoff delay (1s)
	MaxDelay   time.Duration // Maximum backoff cap (30s)
}

// DefaultRetryPolicy returns a RetryPolicy with sensible defaults:
// 2 retries (3 attempts), 1s base delay, 30s max delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// apply installs the policy on a resty client.
func (p RetryPolicy) apply(client *resty.Client) {
	client.SetRetryCount(p.MaxRetries)
	client.SetRetryWaitTime(p.BaseDelay)
	client.SetRetryMaxWaitTime(p.MaxDelay)
	client.AddRetryCondition(shouldRetry)
}

// shouldRetry determines if a failed request should be retried.
// Returns true for:
// - Network errors (timeout, connection refused, DNS failure)
// - HTTP 429 (rate limited)
// - HTTP 5xx (server errors)
// Returns false for:
// - HTTP 4xx except 429 (client errors)
// - Cancellation of the caller's context
func shouldRetry(res *resty.Response, err error) bool {
	if err != nil {
		return isRetryableError(err)
	}
	if res == nil {
		return false
	}

	status := res.StatusCode()
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500
}

// isRetryableError checks if a transport error is transient.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Network operation errors (covers timeout, connection refused)
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return isRetryableMessage(err.Error())
}

// isRetryableMessage matches transient failures that only surface as text,
// such as errors wrapped by url.Error without %w.
func isRetryableMessage(msg string) bool {
	msg = strings.ToLower(msg)
	retryablePatterns := []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"no such host",
		"temporary failure",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
