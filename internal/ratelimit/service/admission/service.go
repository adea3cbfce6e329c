// Package admission enforces per-identity request quotas with sliding
// windows and progressive penalties.
//
// Every quota-controlled operation calls CheckAndRecord before doing work.
// A denied request records a violation against the caller's identity; the
// advertised retry delay doubles with each violation up to a cap, so
// persistent abusers wait exponentially longer while a caller who backs
// off for the violation TTL starts fresh.
//
// The service prefers the shared store so all replicas see one window per
// identity. When the shared store is unreachable it degrades to an
// in-process window rather than failing open or closed on errors.
package admission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cardforge/internal/ratelimit/config"
	"cardforge/internal/ratelimit/metrics"
	"cardforge/internal/ratelimit/models"
	"cardforge/internal/ratelimit/store/violation"
	"cardforge/internal/ratelimit/store/window"
	dErrors "cardforge/pkg/domain-errors"
)

// WindowStore records and counts admission markers in sliding windows.
type WindowStore interface {
	Take(ctx context.Context, key string, limit, burst int, window, burstWindow time.Duration) (*models.WindowUsage, error)
	Count(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

// ViolationStore tracks per-identity violation counters with a TTL.
type ViolationStore interface {
	Increment(ctx context.Context, key string, ttl time.Duration) (int, error)
	Count(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

// Service is the admission controller. Thread-safe for concurrent use by
// HTTP middleware and handlers.
type Service struct {
	windows    WindowStore
	violations ViolationStore

	// In-process stores answering when the shared stores error.
	fallbackWindows    WindowStore
	fallbackViolations ViolationStore

	logger  *slog.Logger
	config  *config.Config
	metrics *metrics.Metrics
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConfig overrides the default admission configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithFallbackStores overrides the in-process stores used when the shared
// stores error. Inject these when the caller also runs the cleanup worker,
// so degraded-mode state gets pruned.
func WithFallbackStores(windows WindowStore, violations ViolationStore) Option {
	return func(s *Service) {
		if windows != nil {
			s.fallbackWindows = windows
		}
		if violations != nil {
			s.fallbackViolations = violations
		}
	}
}

// New creates an admission controller backed by the given stores.
// Returns an error if required stores are nil.
func New(windows WindowStore, violations ViolationStore, opts ...Option) (*Service, error) {
	if windows == nil {
		return nil, errors.New("window store is required")
	}
	if violations == nil {
		return nil, errors.New("violation store is required")
	}

	svc := &Service{
		windows:            windows,
		violations:         violations,
		fallbackWindows:    window.New(),
		fallbackViolations: violation.New(),
		logger:             slog.Default(),
		config:             config.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckAndRecord decides whether one request from identity may proceed for
// the given action, recording it when admitted and recording a violation
// when denied. It never returns an error for store outages; those degrade
// to the in-process fallback with Degraded set on the result.
func (s *Service) CheckAndRecord(ctx context.Context, identity string, action models.Action) (*models.AdmissionResult, error) {
	if identity == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity cannot be empty")
	}
	if !action.IsValid() {
		action = models.ActionDefault
	}

	limit := s.config.GetLimit(action)
	key := models.NewWindowKey(identity, action).String()

	degraded := false
	usage, err := s.windows.Take(ctx, key, limit.RequestsPerWindow, limit.Burst, limit.Window, limit.BurstWindow)
	if err != nil {
		s.logger.Warn("admission_store_unavailable",
			"error", err,
			"action", action,
		)
		if s.metrics != nil {
			s.metrics.RecordStoreFallback()
		}
		degraded = true
		usage, err = s.fallbackWindows.Take(ctx, key, limit.RequestsPerWindow, limit.Burst, limit.Window, limit.BurstWindow)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admission window")
		}
	}

	result := &models.AdmissionResult{
		Limit:    limit.RequestsPerWindow,
		ResetAt:  usage.ResetAt,
		Degraded: degraded,
	}

	if usage.Admitted {
		result.Allowed = true
		result.Remaining = limit.RequestsPerWindow - usage.Count
		if result.Remaining < 0 {
			result.Remaining = 0
		}
		if s.metrics != nil {
			s.metrics.RecordCheck(string(action), "allowed")
		}
		return result, nil
	}

	result.Reason = denialReason(usage, limit)
	result.ViolationCount = s.recordViolation(ctx, identity, action, limit, usage, &result.Degraded)
	result.RetryAfter = int(s.config.Penalty.Delay(result.ViolationCount).Seconds())

	if s.metrics != nil {
		s.metrics.RecordCheck(string(action), "denied")
		s.metrics.RecordDenial(string(action), result.Reason)
	}
	return result, nil
}

// Usage reports the live marker count and limit for (identity, action)
// without recording a request.
func (s *Service) Usage(ctx context.Context, identity string, action models.Action) (count, limit int, err error) {
	cfg := s.config.GetLimit(action)
	key := models.NewWindowKey(identity, action).String()

	count, err = s.windows.Count(ctx, key)
	if err != nil {
		return 0, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read admission window")
	}
	return count, cfg.RequestsPerWindow, nil
}

// Reset clears the window for (identity, action) and the identity's
// violation counter. Admin operation.
func (s *Service) Reset(ctx context.Context, identity string, action models.Action) error {
	windowKey := models.NewWindowKey(identity, action).String()
	if err := s.windows.Reset(ctx, windowKey); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset admission window")
	}

	violationKey := models.NewViolationKey(identity).String()
	if err := s.violations.Reset(ctx, violationKey); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset violation counter")
	}

	s.logger.Info("admission_reset",
		"identity", identity,
		"action", action,
	)
	return nil
}

// recordViolation bumps the identity's violation counter and emits the
// audit record. Counter store outages fall back in-process like the window
// store; a violation is never silently dropped.
func (s *Service) recordViolation(ctx context.Context, identity string, action models.Action, limit config.Limit, usage *models.WindowUsage, degraded *bool) int {
	key := models.NewViolationKey(identity).String()

	count, err := s.violations.Increment(ctx, key, s.config.Penalty.ViolationTTL)
	if err != nil {
		s.logger.Warn("violation_store_unavailable",
			"error", err,
			"action", action,
		)
		if s.metrics != nil {
			s.metrics.RecordStoreFallback()
		}
		*degraded = true
		count, err = s.fallbackViolations.Increment(ctx, key, s.config.Penalty.ViolationTTL)
		if err != nil {
			count = 1
		}
	}

	if s.metrics != nil {
		s.metrics.RecordViolation(string(action))
	}

	v, vErr := models.NewViolation(identity, action, limit.RequestsPerWindow, usage.Count)
	if vErr != nil {
		return count
	}
	s.logger.Info("quota_violation",
		"violation_id", v.ID,
		"identity", v.Identity,
		"action", v.Action,
		"limit", v.Limit,
		"window_count", v.Count,
		"violation_count", count,
	)
	return count
}

// denialReason distinguishes a burst denial from a full-window denial.
func denialReason(usage *models.WindowUsage, limit config.Limit) string {
	if usage.Count < limit.RequestsPerWindow && limit.Burst > 0 && usage.BurstCount >= limit.Burst {
		return "burst"
	}
	return "window"
}
