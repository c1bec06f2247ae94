package onedrive

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// RequestsPerSecond is the sustained request rate.
	// Graph throttles per app and per user well above this.
	RequestsPerSecond = 10.0

	// BurstSize is the token bucket depth.
	BurstSize = 20

	// DefaultBackoff applies when a 429 carries no Retry-After header.
	DefaultBackoff = 30 * time.Second

	headerRetryAfter = "Retry-After"
)

// RateLimiter throttles Graph requests with a token bucket and honours
// Retry-After after a 429.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a limiter at the given rate.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return r.limiter.Wait(ctx)
}

// Throttled records a 429 so later calls back off.
func (r *RateLimiter) Throttled(resp *http.Response) {
	backoff := DefaultBackoff
	if v := resp.Header.Get(headerRetryAfter); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			backoff = time.Duration(seconds) * time.Second
		}
	}

	r.mu.Lock()
	r.retryAt = time.Now().Add(backoff)
	r.mu.Unlock()
}

// RetryAt returns the end of the current backoff window.
func (r *RateLimiter) RetryAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryAt
}
