package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/pathwise/ai-orchestrator/internal/orchestrator/providers"
)

// Options controls the retry schedule.
type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Sleep is swapped out by tests; nil means real context-aware sleeping.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultOptions is the standard 3-attempt exponential schedule (1s, 2s, 4s
// before attempts 2 and 3 and after the final failure is classified).
func DefaultOptions() Options {
	return Options{MaxAttempts: 3, BaseDelay: time.Second}
}

// Do runs op until it succeeds, exhausts MaxAttempts, fails non-retryably,
// or the context is cancelled. The delay before attempt n+1 is
// BaseDelay * 2^(n-1) plus up to 25% additive jitter, so concurrent callers
// hitting the same outage fan out instead of retrying in lockstep while the
// delay sequence stays non-decreasing.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), opts Options) (T, error) {
	var zero T

	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return zero, fmt.Errorf("attempt %d failed non-retryably: %w", attempt, err)
		}
		if attempt == opts.MaxAttempts {
			break
		}

		if err := sleep(ctx, backoffDelay(opts.BaseDelay, attempt)); err != nil {
			return zero, fmt.Errorf("retry aborted: %w", err)
		}
	}

	return zero, fmt.Errorf("all %d attempts failed: %w", opts.MaxAttempts, lastErr)
}

// IsRetryable reports whether another attempt could plausibly succeed.
// Context cancellation never retries; provider errors classify themselves by
// HTTP status; anything else (transport failures surfaced as plain errors)
// is treated as transient.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var provErr *providers.ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable()
	}
	return true
}

// backoffDelay computes the sleep before the attempt following a failed
// attempt n (1-based): base * 2^(n-1), plus 0-25% jitter.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	delay := base << uint(attempt-1)
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
