package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCeilingEnforced(t *testing.T) {
	limiter := New(NewMemoryStore(), 3)
	fixed := time.Date(2026, 3, 10, 12, 30, 15, 0, time.UTC)
	limiter.SetNow(func() time.Time { return fixed })

	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := limiter.CheckAndAdmit(ctx, "user-1")
		if err != nil {
			t.Fatalf("unexpected error on request %d: %v", i, err)
		}
		if !d.Allowed {
			t.Errorf("request %d should be admitted", i)
		}
		if d.CurrentCount != i {
			t.Errorf("request %d: count = %d, want %d", i, d.CurrentCount, i)
		}
	}

	// Fourth and later requests in the same window are rejected without
	// incrementing the count.
	for i := 0; i < 2; i++ {
		d, _ := limiter.CheckAndAdmit(ctx, "user-1")
		if d.Allowed {
			t.Error("request over the ceiling should be rejected")
		}
		if d.CurrentCount != 3 {
			t.Errorf("rejected count = %d, want 3", d.CurrentCount)
		}
		if d.Limit != 3 {
			t.Errorf("limit = %d, want 3", d.Limit)
		}
		want := fixed.Truncate(time.Minute).Add(time.Minute)
		if !d.ResetAt.Equal(want) {
			t.Errorf("reset = %v, want %v", d.ResetAt, want)
		}
	}
}

func TestFreshWindowAdmitsAgain(t *testing.T) {
	limiter := New(NewMemoryStore(), 2)
	now := time.Date(2026, 3, 10, 12, 30, 59, 0, time.UTC)
	limiter.SetNow(func() time.Time { return now })

	ctx := context.Background()
	limiter.CheckAndAdmit(ctx, "user-1")
	limiter.CheckAndAdmit(ctx, "user-1")

	if d, _ := limiter.CheckAndAdmit(ctx, "user-1"); d.Allowed {
		t.Fatal("third request in the window should be rejected")
	}

	// One second later a new window starts and counting restarts at 1.
	now = now.Add(time.Second)

	d, _ := limiter.CheckAndAdmit(ctx, "user-1")
	if !d.Allowed {
		t.Error("first request of the new window should be admitted")
	}
	if d.CurrentCount != 1 {
		t.Errorf("new window count = %d, want 1", d.CurrentCount)
	}
}

func TestIdentitiesAreIndependent(t *testing.T) {
	limiter := New(NewMemoryStore(), 1)
	ctx := context.Background()

	limiter.CheckAndAdmit(ctx, "user-1")
	if d, _ := limiter.CheckAndAdmit(ctx, "user-1"); d.Allowed {
		t.Error("user-1 should be exhausted")
	}
	if d, _ := limiter.CheckAndAdmit(ctx, "user-2"); !d.Allowed {
		t.Error("user-2 should have its own budget")
	}
}

type brokenStore struct{}

func (brokenStore) IncrWindow(context.Context, string, int, time.Duration) (int64, bool, error) {
	return 0, false, errors.New("store unreachable")
}

func TestFailsOpenOnStoreOutage(t *testing.T) {
	limiter := New(brokenStore{}, 5)

	d, err := limiter.CheckAndAdmit(context.Background(), "user-1")
	if !d.Allowed {
		t.Error("limiter must fail open when the store is unreachable")
	}
	if err == nil {
		t.Error("degraded condition should be reported")
	}
}

func TestConcurrentIncrementsNeverExceedCeiling(t *testing.T) {
	const limit = 20
	store := NewMemoryStore()
	limiter := New(store, limit)
	fixed := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)
	limiter.SetNow(func() time.Time { return fixed })

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, _ := limiter.CheckAndAdmit(context.Background(), "user-1")
			if d.Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != limit {
		t.Errorf("admitted %d concurrent requests, want exactly %d", admitted, limit)
	}
}
