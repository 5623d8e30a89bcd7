package shared

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy parameterizes retry behavior for an operation, independent of
// any specific I/O call.
type RetryPolicy struct {
	MaxAttempts int                   // total attempts, including the first (default 3)
	BaseDelay   time.Duration         // delay before the second attempt (default 1s)
	MaxDelay    time.Duration         // cap on the backoff (default 10s)
	ShouldRetry func(err error) bool  // nil retries every error
}

// DefaultRetryPolicy mirrors the remote API guidance: three attempts with
// exponential backoff starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 3
	}
	return p.MaxAttempts
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	max := p.MaxDelay
	if max <= 0 {
		max = 10 * time.Second
	}

	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// Retry runs fn up to MaxAttempts times, sleeping with exponential backoff
// between attempts. The final error is returned unchanged when attempts are
// exhausted, wrapped so callers can still detect [ErrPermanentFetch].
//
// Context cancellation aborts between attempts and returns the context error.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	var err error

	for attempt := 1; attempt <= policy.attempts(); attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if policy.ShouldRetry != nil && !policy.ShouldRetry(err) {
			return err
		}

		if attempt == policy.attempts() {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.delay(attempt)):
		}
	}

	return errors.Join(ErrPermanentFetch, err)
}
