package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"
)

// DefaultLimit is the per-identity request ceiling per one-minute window.
const DefaultLimit = 20

// Window is the fixed rate-limit bucket size.
const Window = time.Minute

// windowTTL bounds how long a closed window's counter lingers in the store.
// Stale windows are never read (the window start is part of the key), so
// anything past one full window after close is garbage.
const windowTTL = 2 * Window

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed      bool
	CurrentCount int
	Limit        int
	ResetAt      time.Time
}

// Store is the counter backend. IncrWindow must be atomic per key: it
// increments only while the counter is below limit and returns the resulting
// count plus whether this request was admitted.
type Store interface {
	IncrWindow(ctx context.Context, key string, limit int, ttl time.Duration) (count int64, admitted bool, err error)
}

// Limiter admits at most limit requests per identity per minute window.
type Limiter struct {
	store Store
	limit int
	now   func() time.Time
}

// New creates a limiter over the given store. A limit <= 0 falls back to
// DefaultLimit.
func New(store Store, limit int) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Limiter{store: store, limit: limit, now: time.Now}
}

// WindowStart truncates t to the current one-minute window boundary.
func WindowStart(t time.Time) time.Time {
	return t.Truncate(Window)
}

// CheckAndAdmit consumes one unit of the identity's budget for the current
// window, or reports the rejection. If the store is unreachable the limiter
// fails open: the request is admitted so a counter outage cannot take down
// the whole AI path, and the degraded condition is logged and returned.
func (l *Limiter) CheckAndAdmit(ctx context.Context, identity string) (Decision, error) {
	windowStart := WindowStart(l.now())
	key := fmt.Sprintf("ratelimit:%s:%d", identity, windowStart.Unix())

	count, admitted, err := l.store.IncrWindow(ctx, key, l.limit, windowTTL)
	if err != nil {
		log.Printf("rate limiter degraded, failing open for %q: %v", identity, err)
		return Decision{
			Allowed:      true,
			CurrentCount: 0,
			Limit:        l.limit,
			ResetAt:      windowStart.Add(Window),
		}, err
	}

	return Decision{
		Allowed:      admitted,
		CurrentCount: int(count),
		Limit:        l.limit,
		ResetAt:      windowStart.Add(Window),
	}, nil
}

// SetNow overrides the clock. Tests only.
func (l *Limiter) SetNow(now func() time.Time) {
	l.now = now
}
