package crawler

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// minRateFloor is the minimum rate in requests per second.
	minRateFloor = 1.0

	// maxRateCeiling keeps the limiter from hammering a documentation site.
	maxRateCeiling = 50.0

	// emaAlpha is the smoothing factor for the RTT moving average.
	// 0.2 means ~20% weight to new observation, ~80% to historical average.
	emaAlpha = 0.2

	// recoveryFactor is the multiplier for rate increase during recovery.
	recoveryFactor = 1.1

	// backoffFactor limits how much the rate can drop in a single step.
	backoffFactor = 0.5
)

// AdaptiveLimiter spaces out requests to the site and slows down when the
// server's response time rises above the target.
type AdaptiveLimiter struct {
	limiter   *rate.Limiter
	targetRTT time.Duration
	mu        sync.RWMutex

	emaRTT      time.Duration
	currentRate float64
	fixed       bool
}

// NewAdaptiveLimiter creates a limiter starting at initialRPS.
func NewAdaptiveLimiter(initialRPS int, targetRTT time.Duration) *AdaptiveLimiter {
	clampedRPS := clampRate(float64(initialRPS))

	return &AdaptiveLimiter{
		limiter:     rate.NewLimiter(rate.Limit(clampedRPS), burstFor(clampedRPS)),
		targetRTT:   targetRTT,
		currentRate: clampedRPS,
		emaRTT:      targetRTT,
	}
}

// Wait blocks until the next request is allowed or ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// ObserveRTT records a response time and adjusts the rate. Slow responses
// lower the rate by at most half per step; fast responses raise it by 10%.
func (a *AdaptiveLimiter) ObserveRTT(rtt time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.fixed {
		return
	}

	newEMA := time.Duration(emaAlpha*float64(rtt) + (1-emaAlpha)*float64(a.emaRTT))
	a.emaRTT = newEMA

	ratio := float64(a.targetRTT) / float64(newEMA)

	var newRate float64
	if ratio < 1 {
		newRate = math.Max(a.currentRate*ratio, a.currentRate*backoffFactor)
	} else {
		newRate = a.currentRate * recoveryFactor
	}
	newRate = clampRate(newRate)

	if math.Abs(newRate-a.currentRate) > 0.1 {
		a.setLocked(newRate)
	}
}

// SetRate pins the limiter to rps and stops adaptation.
func (a *AdaptiveLimiter) SetRate(rps int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.fixed = true
	a.setLocked(clampRate(float64(rps)))
}

// CurrentRate returns the current rate limit in requests per second.
func (a *AdaptiveLimiter) CurrentRate() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return int(math.Round(a.currentRate))
}

// CurrentEMA returns the moving average of observed response times.
func (a *AdaptiveLimiter) CurrentEMA() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.emaRTT
}

func (a *AdaptiveLimiter) setLocked(rps float64) {
	a.currentRate = rps
	a.limiter.SetLimit(rate.Limit(rps))
	a.limiter.SetBurst(burstFor(rps))
}

func clampRate(rps float64) float64 {
	return math.Min(math.Max(rps, minRateFloor), maxRateCeiling)
}

func burstFor(rps float64) int {
	return int(math.Ceil(rps))
}

// LimitedTransport waits on the limiter before every request that reaches the
// network and feeds the response time back into it. Responses served by a
// cache layered above it never wait.
type LimitedTransport struct {
	Limiter *AdaptiveLimiter
	Next    http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *LimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.Limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	next := t.Next
	if next == nil {
		next = http.DefaultTransport
	}

	start := time.Now()
	resp, err := next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	t.Limiter.ObserveRTT(time.Since(start))
	return resp, nil
}
