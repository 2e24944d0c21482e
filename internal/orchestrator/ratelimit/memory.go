package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process counter backend. It is only correct for a
// single-instance deployment: the mutex serializes increments within this
// process, but separate replicas would each keep their own counts. Use the
// Redis store for anything horizontally scaled.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	now     func() time.Time
}

type memoryWindow struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*memoryWindow),
		now:     time.Now,
	}
}

// IncrWindow implements Store. The whole read-check-increment runs under one
// lock, so concurrent requests for the same key cannot exceed the ceiling.
func (s *MemoryStore) IncrWindow(_ context.Context, key string, limit int, ttl time.Duration) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)

	w, ok := s.windows[key]
	if !ok {
		w = &memoryWindow{expiresAt: now.Add(ttl)}
		s.windows[key] = w
	}

	if w.count >= int64(limit) {
		return w.count, false, nil
	}
	w.count++
	return w.count, true, nil
}

// pruneLocked drops expired windows. Called opportunistically on each
// increment; retention is not a correctness concern because expired keys are
// never read.
func (s *MemoryStore) pruneLocked(now time.Time) {
	for key, w := range s.windows {
		if now.After(w.expiresAt) {
			delete(s.windows, key)
		}
	}
}
