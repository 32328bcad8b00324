package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/tenlabs01/Diverss/internal/stocksense"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the real Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy defines how rate-limited batches are retried. Waits grow
// linearly: InitialBackoff, then +BackoffStep per retry.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	BackoffStep    time.Duration

	// Retryable decides which errors are retried; nil means upstream 429s.
	Retryable func(error) bool
	// Sleep waits between attempts; nil means SleepContext.
	Sleep Sleeper
}

// DefaultRetryPolicy waits 20s, 40s and 60s before giving up.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: 20 * time.Second,
		BackoffStep:    20 * time.Second,
	}
}

// Backoff returns the wait before retry number n (zero-based).
func (p RetryPolicy) Backoff(n int) time.Duration {
	return p.InitialBackoff + time.Duration(n)*p.BackoffStep
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return stocksense.IsRateLimited(err)
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

// WaitFunc is told about each wait before it starts.
type WaitFunc func(retry int, wait time.Duration)

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// retry budget is spent. The final retryable error is returned wrapped so
// callers can still inspect it with errors.As.
func Retry(ctx context.Context, policy RetryPolicy, onWait WaitFunc, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !policy.retryable(err) {
			return err
		}
		if attempt == policy.MaxRetries {
			break
		}

		wait := policy.Backoff(attempt)
		if onWait != nil {
			onWait(attempt, wait)
		}
		if err := policy.sleep(ctx, wait); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}

	return fmt.Errorf("max retries exceeded (%d): %w", policy.MaxRetries, lastErr)
}
