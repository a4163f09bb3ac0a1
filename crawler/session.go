package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lukemcguire/pepcensus/httpcache"
	"github.com/lukemcguire/pepcensus/telemetry"
)

// Session is the HTTP client every mode fetches through. Requests pass the
// robots.txt gate, then the response cache, then the rate limiter, and are
// retried on transient failures.
type Session struct {
	client  *resty.Client
	files   *resty.Client
	robots  *RobotsChecker
	limiter *AdaptiveLimiter
	logger  *slog.Logger
}

// NewSession builds a session from cfg. cache may be nil to disable response
// caching.
func NewSession(cfg Config, logger *slog.Logger, cache *httpcache.Store) *Session {
	cfg = cfg.withDefaults()

	limiter := NewAdaptiveLimiter(cfg.RateLimit, cfg.TargetRTT)
	if !cfg.AdaptiveRate {
		limiter.SetRate(cfg.RateLimit)
	}

	limited := &LimitedTransport{Limiter: limiter, Next: http.DefaultTransport}
	var transport http.RoundTripper = limited
	if cache != nil {
		transport = httpcache.NewTransport(cache, transport, logger)
	}

	s := &Session{
		client:  newClient(cfg, transport, cfg.RequestTimeout),
		files:   newClient(cfg, limited, cfg.FileTimeout),
		limiter: limiter,
		logger:  logger,
	}
	if cfg.RespectRobots {
		s.robots = NewRobotsChecker(&http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		}, cfg.UserAgent)
	}
	return s
}

func newClient(cfg Config, transport http.RoundTripper, timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetTransport(transport)
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	cfg.RetryPolicy.apply(client)

	telemetry.InstrumentResty(client, "pepcensus/crawler")
	return client
}

// FetchPage retrieves url. Responses with a status of 400 or above are
// returned as *StatusError, and URLs robots.txt forbids as ErrDisallowed.
func (s *Session) FetchPage(ctx context.Context, url string) (*Page, error) {
	return s.fetch(ctx, s.client, url)
}

// FetchFile retrieves a large file such as a documentation archive. It
// bypasses the response cache and allows Config.FileTimeout instead of the
// per-page timeout; errors are reported as by FetchPage.
func (s *Session) FetchFile(ctx context.Context, url string) (*Page, error) {
	return s.fetch(ctx, s.files, url)
}

func (s *Session) fetch(ctx context.Context, client *resty.Client, url string) (*Page, error) {
	if s.robots != nil {
		allowed, err := s.robots.Allowed(ctx, url)
		if err != nil {
			s.logger.WarnContext(ctx, "robots.txt unavailable, allowing fetch", "url", url, "error", err)
		}
		if !allowed {
			return nil, fmt.Errorf("GET %s: %w", url, ErrDisallowed)
		}
	}

	res, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if res.StatusCode() >= http.StatusBadRequest {
		return nil, &StatusError{URL: url, StatusCode: res.StatusCode()}
	}

	return &Page{
		URL:         url,
		StatusCode:  res.StatusCode(),
		ContentType: res.Header().Get("Content-Type"),
		Body:        res.Body(),
		FromCache:   res.Header().Get(httpcache.XFromCache) == "1",
	}, nil
}

// Limiter exposes the rate limiter for progress reporting.
func (s *Session) Limiter() *AdaptiveLimiter {
	return s.limiter
}
