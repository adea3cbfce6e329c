package violation

import (
	"context"
	"sync"
	"time"
)

// InMemoryViolationStore tracks per-identity violation counters with a TTL.
// Each increment refreshes the TTL, so the penalty multiplier only resets
// after a full quiet period.
type InMemoryViolationStore struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
}

type counter struct {
	count     int
	expiresAt time.Time
}

// Option configures an InMemoryViolationStore.
type Option func(*InMemoryViolationStore)

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *InMemoryViolationStore) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty in-memory violation store.
func New(opts ...Option) *InMemoryViolationStore {
	store := &InMemoryViolationStore{
		counters: make(map[string]*counter),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Increment bumps the violation counter for a key, refreshing its TTL, and
// returns the new count.
func (s *InMemoryViolationStore) Increment(_ context.Context, key string, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.counters[key]
	if !ok || !c.expiresAt.After(now) {
		c = &counter{}
		s.counters[key] = c
	}
	c.count++
	c.expiresAt = now.Add(ttl)
	return c.count, nil
}

// Count returns the current violation count for a key, zero if expired.
func (s *InMemoryViolationStore) Count(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || !c.expiresAt.After(s.now()) {
		return 0, nil
	}
	return c.count, nil
}

// Reset clears the violation counter for a key.
func (s *InMemoryViolationStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
	return nil
}

// EvictExpired removes expired counters and returns how many were removed.
func (s *InMemoryViolationStore) EvictExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, c := range s.counters {
		if !c.expiresAt.After(now) {
			delete(s.counters, key)
			removed++
		}
	}
	return removed, nil
}
