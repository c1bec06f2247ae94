// Package retry provides a bounded retry loop with a pluggable policy.
// Each attempt consumes one unit of the budget. There is no backoff
// beyond an optional fixed delay between attempts.
package retry

import (
	"context"
	"errors"
	"time"
)

// DefaultMaxAttempts is the attempt budget used when a policy sets none.
const DefaultMaxAttempts = 3

// Policy controls how many times an operation runs and which errors
// are worth another attempt.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// ShouldRetry reports whether err is transient. Nil retries every error.
	ShouldRetry func(err error) bool

	// Delay is waited between attempts. Zero retries immediately.
	Delay time.Duration

	// OnRetry is called before each retry with the failed attempt number.
	OnRetry func(attempt int, err error)
}

// permanent marks an error as not retryable regardless of policy.
type permanent struct{ err error }

func (p *permanent) Error() string { return p.err.Error() }
func (p *permanent) Unwrap() error { return p.err }

// Permanent wraps err so Do returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanent{err: err}
}

// Do runs fn until it succeeds, the policy declines a retry, the budget
// is spent or ctx is cancelled. It returns the last error seen.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}

		err = fn(ctx, attempt)
		if err == nil {
			return nil
		}

		var perm *permanent
		if errors.As(err, &perm) {
			return perm.err
		}
		if p.ShouldRetry != nil && !p.ShouldRetry(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if p.Delay > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(p.Delay):
			}
		}
	}
	return err
}
