package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardforge/internal/ratelimit/store/violation"
	"cardforge/internal/ratelimit/store/window"
)

func TestRunOnceEvictsDrainedState(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	windows := window.New(window.WithClock(clock))
	violations := violation.New(violation.WithClock(clock))

	_, err := windows.Take(ctx, "k", 5, 0, time.Minute, time.Minute)
	require.NoError(t, err)
	_, err = violations.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)

	worker := New(windows, violations)

	res, err := worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.WindowsEvicted)
	assert.Zero(t, res.CountersEvicted)

	now = now.Add(5 * time.Minute)

	res, err = worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.WindowsEvicted)
	assert.Equal(t, 1, res.CountersEvicted)
}

type failingStore struct{}

func (failingStore) EvictExpired(context.Context) (int, error) {
	return 0, errors.New("boom")
}

func TestRunOnceSurfacesStoreErrors(t *testing.T) {
	worker := New(failingStore{}, violation.New())
	_, err := worker.RunOnce(context.Background())
	require.Error(t, err)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	worker := New(window.New(), violation.New(), WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- worker.Start(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}
