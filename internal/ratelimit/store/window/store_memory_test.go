package window

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTakeAdmitsUpToLimit(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	store := New(WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		usage, err := store.Take(ctx, "k", 5, 0, time.Minute, time.Minute)
		require.NoError(t, err)
		assert.True(t, usage.Admitted, "request %d", i)
		clock.Advance(time.Second)
	}

	usage, err := store.Take(ctx, "k", 5, 0, time.Minute, time.Minute)
	require.NoError(t, err)
	assert.False(t, usage.Admitted)
	assert.Equal(t, 5, usage.Count)
}

func TestTakeWindowSlides(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	store := New(WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		usage, err := store.Take(ctx, "k", 3, 0, time.Minute, time.Minute)
		require.NoError(t, err)
		require.True(t, usage.Admitted)
	}

	usage, err := store.Take(ctx, "k", 3, 0, time.Minute, time.Minute)
	require.NoError(t, err)
	assert.False(t, usage.Admitted)

	// After the window passes, capacity is restored.
	clock.Advance(61 * time.Second)
	usage, err = store.Take(ctx, "k", 3, 0, time.Minute, time.Minute)
	require.NoError(t, err)
	assert.True(t, usage.Admitted)
	assert.Equal(t, 1, usage.Count)
}

func TestTakeBurstLimit(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	store := New(WithClock(clock.Now))

	// Burst of 2 inside a 10s sub-window, overall limit 10 per minute.
	for i := 0; i < 2; i++ {
		usage, err := store.Take(ctx, "k", 10, 2, time.Minute, 10*time.Second)
		require.NoError(t, err)
		require.True(t, usage.Admitted)
	}

	usage, err := store.Take(ctx, "k", 10, 2, time.Minute, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, usage.Admitted)
	assert.Equal(t, 2, usage.BurstCount)
	assert.Less(t, usage.Count, 10)

	// Burst window passes but full window has not; admission resumes.
	clock.Advance(11 * time.Second)
	usage, err = store.Take(ctx, "k", 10, 2, time.Minute, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, usage.Admitted)
}

func TestTakeKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := New()

	usage, err := store.Take(ctx, "a", 1, 0, time.Minute, time.Minute)
	require.NoError(t, err)
	require.True(t, usage.Admitted)

	usage, err = store.Take(ctx, "a", 1, 0, time.Minute, time.Minute)
	require.NoError(t, err)
	assert.False(t, usage.Admitted)

	usage, err = store.Take(ctx, "b", 1, 0, time.Minute, time.Minute)
	require.NoError(t, err)
	assert.True(t, usage.Admitted)
}

func TestTakeConcurrentNeverOverAdmits(t *testing.T) {
	ctx := context.Background()
	store := New()

	const limit = 25
	const callers = 100

	var admitted int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			usage, err := store.Take(ctx, "k", limit, 0, time.Minute, time.Minute)
			assert.NoError(t, err)
			if usage.Admitted {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, limit, admitted)
}

func TestResetClearsWindow(t *testing.T) {
	ctx := context.Background()
	store := New()

	usage, err := store.Take(ctx, "k", 1, 0, time.Minute, time.Minute)
	require.NoError(t, err)
	require.True(t, usage.Admitted)

	require.NoError(t, store.Reset(ctx, "k"))

	usage, err = store.Take(ctx, "k", 1, 0, time.Minute, time.Minute)
	require.NoError(t, err)
	assert.True(t, usage.Admitted)
}

func TestEvictExpiredDropsDrainedWindows(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}
	store := New(WithClock(clock.Now))

	_, err := store.Take(ctx, "a", 5, 0, time.Minute, time.Minute)
	require.NoError(t, err)
	_, err = store.Take(ctx, "b", 5, 0, time.Minute, time.Minute)
	require.NoError(t, err)

	removed, err := store.EvictExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	clock.Advance(2 * time.Minute)
	removed, err = store.EvictExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
}
