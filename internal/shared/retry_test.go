package shared

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	fast := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	t.Run("first attempt succeeds", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), fast, func() error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("recovers after transient failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), fast, func() error {
			calls++
			if calls < 3 {
				return ErrTransientFetch
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected recovery, got %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("exhaustion wraps permanent failure", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), fast, func() error {
			calls++
			return ErrTransientFetch
		})
		if !errors.Is(err, ErrPermanentFetch) {
			t.Errorf("expected ErrPermanentFetch, got %v", err)
		}
		if !errors.Is(err, ErrTransientFetch) {
			t.Errorf("expected original error preserved, got %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("non-retryable error returns immediately", func(t *testing.T) {
		policy := fast
		policy.ShouldRetry = func(err error) bool { return !errors.Is(err, ErrTokenExpired) }

		calls := 0
		err := Retry(context.Background(), policy, func() error {
			calls++
			return ErrTokenExpired
		})
		if !errors.Is(err, ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
		if errors.Is(err, ErrPermanentFetch) {
			t.Error("non-retryable errors should not be wrapped as permanent")
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("cancellation aborts between attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		policy := RetryPolicy{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond}

		calls := 0
		err := Retry(ctx, policy, func() error {
			calls++
			cancel()
			return ErrTransientFetch
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("zero policy uses defaults", func(t *testing.T) {
		policy := RetryPolicy{}
		if policy.attempts() != 3 {
			t.Errorf("expected 3 default attempts, got %d", policy.attempts())
		}
	})

	t.Run("backoff grows and caps", func(t *testing.T) {
		policy := RetryPolicy{BaseDelay: time.Second, MaxDelay: 3 * time.Second}
		if d := policy.delay(1); d != time.Second {
			t.Errorf("expected 1s, got %v", d)
		}
		if d := policy.delay(2); d != 2*time.Second {
			t.Errorf("expected 2s, got %v", d)
		}
		if d := policy.delay(3); d != 3*time.Second {
			t.Errorf("expected cap at 3s, got %v", d)
		}
	})
}
