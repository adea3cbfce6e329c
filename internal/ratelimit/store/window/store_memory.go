package window

import (
	"context"
	"sync"
	"time"

	"cardforge/internal/ratelimit/models"
)

// InMemoryWindowStore implements the admission window store with in-process
// sliding windows. It serves two roles: the default store for single-node
// deployments, and the degraded-mode fallback when the shared Redis store
// is unreachable.
type InMemoryWindowStore struct {
	mu      sync.Mutex
	windows map[string]*slidingWindow
	now     func() time.Time
}

// slidingWindow holds the admission markers for one (identity, action) key.
type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

func (sw *slidingWindow) evictExpired(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

func (sw *slidingWindow) burstCount(now time.Time, burstWindow time.Duration) int {
	cutoff := now.Add(-burstWindow)
	n := 0
	for i := len(sw.timestamps) - 1; i >= 0; i-- {
		if !sw.timestamps[i].After(cutoff) {
			break
		}
		n++
	}
	return n
}

// Option configures an InMemoryWindowStore.
type Option func(*InMemoryWindowStore)

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *InMemoryWindowStore) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty in-memory window store.
func New(opts ...Option) *InMemoryWindowStore {
	store := &InMemoryWindowStore{
		windows: make(map[string]*slidingWindow),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Take evicts expired markers, evaluates the window and burst limits, and
// records a new marker only when the request is admitted. The whole sequence
// runs under one lock so concurrent callers can never over-admit.
func (s *InMemoryWindowStore) Take(_ context.Context, key string, limit, burst int, window, burstWindow time.Duration) (*models.WindowUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sw, ok := s.windows[key]
	if !ok {
		sw = &slidingWindow{window: window}
		s.windows[key] = sw
	}
	sw.window = window
	sw.evictExpired(now)

	count := len(sw.timestamps)
	burstCount := sw.burstCount(now, burstWindow)

	admitted := count < limit && (burst <= 0 || burstCount < burst)
	if admitted {
		sw.timestamps = append(sw.timestamps, now)
		count++
		burstCount++
	}

	resetAt := now.Add(window)
	if len(sw.timestamps) > 0 {
		resetAt = sw.timestamps[0].Add(window)
	}

	return &models.WindowUsage{
		Admitted:   admitted,
		Count:      count,
		BurstCount: burstCount,
		ResetAt:    resetAt,
	}, nil
}

// Count returns the number of live markers for a key without recording.
func (s *InMemoryWindowStore) Count(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sw, ok := s.windows[key]
	if !ok {
		return 0, nil
	}
	sw.evictExpired(s.now())
	return len(sw.timestamps), nil
}

// Reset clears the window for a key.
func (s *InMemoryWindowStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

// EvictExpired drops fully drained windows and returns how many were removed.
// Called periodically by the cleanup worker to keep the map from growing
// unboundedly under churning identities.
func (s *InMemoryWindowStore) EvictExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, sw := range s.windows {
		sw.evictExpired(now)
		if len(sw.timestamps) == 0 {
			delete(s.windows, key)
			removed++
		}
	}
	return removed, nil
}
