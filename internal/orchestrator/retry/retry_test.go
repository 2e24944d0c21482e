package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pathwise/ai-orchestrator/internal/orchestrator/providers"
)

func noSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		if delays != nil {
			*delays = append(*delays, d)
		}
		return nil
	}
}

func TestSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	}, Options{MaxAttempts: 3, BaseDelay: time.Second, Sleep: noSleep(nil)})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want ok", result)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
}

func TestExhaustsAllAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", &providers.ProviderError{Provider: "openai", StatusCode: 503, Body: "unavailable"}
	}, Options{MaxAttempts: 3, BaseDelay: time.Second, Sleep: noSleep(nil)})

	if err == nil {
		t.Fatal("expected exhaustion error")
	}
	if calls != 3 {
		t.Errorf("op called %d times, want 3", calls)
	}
	if !strings.Contains(err.Error(), "all 3 attempts failed") {
		t.Errorf("error should mention exhaustion, got: %v", err)
	}
	if !strings.Contains(err.Error(), "status 503") {
		t.Errorf("error should carry the last failure, got: %v", err)
	}
}

func TestBackoffScheduleIsExponentialAndNonDecreasing(t *testing.T) {
	var delays []time.Duration
	Do(context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("transient")
	}, Options{MaxAttempts: 3, BaseDelay: time.Second, Sleep: noSleep(&delays)})

	if len(delays) != 2 {
		t.Fatalf("slept %d times, want 2", len(delays))
	}
	// Exponential base steps with at most 25% additive jitter on top.
	if delays[0] < time.Second || delays[0] > 1250*time.Millisecond {
		t.Errorf("first delay %v outside [1s, 1.25s]", delays[0])
	}
	if delays[1] < 2*time.Second || delays[1] > 2500*time.Millisecond {
		t.Errorf("second delay %v outside [2s, 2.5s]", delays[1])
	}
	if delays[1] < delays[0] {
		t.Errorf("delays decreased: %v then %v", delays[0], delays[1])
	}
}

func TestNonRetryableStopsImmediately(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", &providers.ProviderError{Provider: "openai", StatusCode: 401, Body: "bad key"}
	}, Options{MaxAttempts: 3, BaseDelay: time.Second, Sleep: noSleep(nil)})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1 (4xx must not retry)", calls)
	}
	if !strings.Contains(err.Error(), "non-retryably") {
		t.Errorf("error should mark the failure non-retryable, got: %v", err)
	}
}

func TestRateLimitAndTimeoutStatusesRetry(t *testing.T) {
	for _, status := range []int{0, 408, 429, 500, 503} {
		calls := 0
		Do(context.Background(), func(context.Context) (string, error) {
			calls++
			return "", &providers.ProviderError{Provider: "gemini", StatusCode: status, Err: errors.New("boom")}
		}, Options{MaxAttempts: 2, BaseDelay: time.Second, Sleep: noSleep(nil)})

		if calls != 2 {
			t.Errorf("status %d: op called %d times, want 2", status, calls)
		}
	}
}

func TestCancellationAbortsPendingSleep(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", errors.New("transient")
	}, Options{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Sleep: func(context.Context, time.Duration) error {
			return context.Canceled
		},
	})

	if err == nil {
		t.Fatal("expected abort error")
	}
	if calls != 1 {
		t.Errorf("op called %d times after cancellation, want 1", calls)
	}
	if !strings.Contains(err.Error(), "retry aborted") {
		t.Errorf("error should mention the abort, got: %v", err)
	}
}

func TestContextErrorsAreNotRetryable(t *testing.T) {
	if IsRetryable(context.Canceled) {
		t.Error("context.Canceled must not retry")
	}
	if IsRetryable(context.DeadlineExceeded) {
		t.Error("context.DeadlineExceeded must not retry")
	}
	if !IsRetryable(errors.New("connection reset")) {
		t.Error("plain transport errors should retry")
	}
}
