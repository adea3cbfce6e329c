// Package cleanup prunes drained admission windows and lapsed violation
// counters from the in-process stores. Redis-backed stores expire keys on
// their own; this worker only matters for memory-backed deployments and
// the degraded-mode fallback stores, which would otherwise grow with every
// identity ever seen.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"cardforge/internal/ratelimit/metrics"
)

// Result summarizes one cleanup run.
type Result struct {
	WindowsEvicted  int
	CountersEvicted int
	Duration        time.Duration
}

type WindowStore interface {
	EvictExpired(ctx context.Context) (int, error)
}

type ViolationStore interface {
	EvictExpired(ctx context.Context) (int, error)
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

type Worker struct {
	windows    WindowStore
	violations ViolationStore
	logger     *slog.Logger
	interval   time.Duration
	metrics    *metrics.Metrics
}

func New(windows WindowStore, violations ViolationStore, opts ...Option) *Worker {
	worker := &Worker{
		windows:    windows,
		violations: violations,
		logger:     slog.Default(),
		interval:   5 * time.Minute,
	}
	for _, opt := range opts {
		opt(worker)
	}
	return worker
}

// Start runs cleanup on the configured interval until the context ends.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			startTime := time.Now()
			res, err := w.RunOnce(ctx)
			duration := time.Since(startTime)

			if err != nil {
				w.logger.Error("admission_cleanup_failed",
					"error", err,
					"duration_ms", duration.Milliseconds(),
				)
				if w.metrics != nil {
					w.metrics.RecordCleanupRun("error", 0, duration.Seconds())
				}
				continue
			}

			res.Duration = duration
			w.logger.Info("admission_cleanup_completed",
				"windows_evicted", res.WindowsEvicted,
				"counters_evicted", res.CountersEvicted,
				"duration_ms", duration.Milliseconds(),
			)
			if w.metrics != nil {
				w.metrics.RecordCleanupRun("success", res.WindowsEvicted+res.CountersEvicted, duration.Seconds())
			}

		case <-ctx.Done():
			w.logger.Info("admission cleanup worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single cleanup pass. Logging is handled by Start.
func (w *Worker) RunOnce(ctx context.Context) (*Result, error) {
	windowsEvicted, err := w.windows.EvictExpired(ctx)
	if err != nil {
		return nil, err
	}
	countersEvicted, err := w.violations.EvictExpired(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{WindowsEvicted: windowsEvicted, CountersEvicted: countersEvicted}, nil
}
