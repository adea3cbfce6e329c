package admission

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cardforge/internal/ratelimit/config"
	"cardforge/internal/ratelimit/models"
	"cardforge/internal/ratelimit/store/violation"
	"cardforge/internal/ratelimit/store/window"
	dErrors "cardforge/pkg/domain-errors"
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

// downStore simulates an unreachable shared store.
type downStore struct{}

func (downStore) Take(context.Context, string, int, int, time.Duration, time.Duration) (*models.WindowUsage, error) {
	return nil, errors.New("connection refused")
}

func (downStore) Count(context.Context, string) (int, error) {
	return 0, errors.New("connection refused")
}

func (downStore) Reset(context.Context, string) error {
	return errors.New("connection refused")
}

type downViolationStore struct{}

func (downViolationStore) Increment(context.Context, string, time.Duration) (int, error) {
	return 0, errors.New("connection refused")
}

func (downViolationStore) Count(context.Context, string) (int, error) {
	return 0, errors.New("connection refused")
}

func (downViolationStore) Reset(context.Context, string) error {
	return errors.New("connection refused")
}

type AdmissionSuite struct {
	suite.Suite
	service *Service
	clock   *fakeClock
}

func TestAdmissionSuite(t *testing.T) {
	suite.Run(t, new(AdmissionSuite))
}

func (s *AdmissionSuite) SetupTest() {
	s.clock = &fakeClock{now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)}

	cfg := config.DefaultConfig()
	cfg.Limits[models.ActionCardGeneration] = config.Limit{
		RequestsPerWindow: 3,
		Window:            time.Minute,
		Burst:             0,
		BurstWindow:       time.Minute,
	}
	cfg.Limits[models.ActionBinLookup] = config.Limit{
		RequestsPerWindow: 10,
		Window:            time.Minute,
		Burst:             2,
		BurstWindow:       10 * time.Second,
	}

	var err error
	s.service, err = New(
		window.New(window.WithClock(s.clock.Now)),
		violation.New(violation.WithClock(s.clock.Now)),
		WithConfig(cfg),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)
}

func (s *AdmissionSuite) TestAdmitsExactlyLimitThenDenies() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := s.service.CheckAndRecord(ctx, "user:1", models.ActionCardGeneration)
		s.Require().NoError(err)
		s.True(res.Allowed, "request %d", i)
		s.Equal(3, res.Limit)
		s.Equal(2-i, res.Remaining)
		s.clock.Advance(time.Second)
	}

	res, err := s.service.CheckAndRecord(ctx, "user:1", models.ActionCardGeneration)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal("window", res.Reason)
	s.Equal(1, res.ViolationCount)
	s.Positive(res.RetryAfter)
}

func (s *AdmissionSuite) TestWindowElapseRestoresAdmission() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := s.service.CheckAndRecord(ctx, "user:1", models.ActionCardGeneration)
		s.Require().NoError(err)
		s.Require().True(res.Allowed)
	}
	res, err := s.service.CheckAndRecord(ctx, "user:1", models.ActionCardGeneration)
	s.Require().NoError(err)
	s.Require().False(res.Allowed)

	s.clock.Advance(61 * time.Second)

	res, err = s.service.CheckAndRecord(ctx, "user:1", models.ActionCardGeneration)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *AdmissionSuite) TestBurstDeniedBeforeWindowExhausted() {
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := s.service.CheckAndRecord(ctx, "user:1", models.ActionBinLookup)
		s.Require().NoError(err)
		s.Require().True(res.Allowed)
	}

	res, err := s.service.CheckAndRecord(ctx, "user:1", models.ActionBinLookup)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal("burst", res.Reason)

	// Outside the burst sub-window the full window still has room.
	s.clock.Advance(11 * time.Second)
	res, err = s.service.CheckAndRecord(ctx, "user:1", models.ActionBinLookup)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *AdmissionSuite) TestProgressivePenaltiesEscalateAndCap() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.service.CheckAndRecord(ctx, "user:1", models.ActionCardGeneration)
		s.Require().NoError(err)
	}

	// Violations 1..7: delays 60, 120, 240, 480, 960, 960, 960.
	want := []int{60, 120, 240, 480, 960, 960, 960}
	for i, expected := range want {
		res, err := s.service.CheckAndRecord(ctx, "user:1", models.ActionCardGeneration)
		s.Require().NoError(err)
		s.Require().False(res.Allowed)
		s.Equal(i+1, res.ViolationCount)
		s.Equal(expected, res.RetryAfter, "violation %d", i+1)
	}
}

func (s *AdmissionSuite) TestViolationsSharedAcrossActions() {
	ctx := context.Background()

	// One card_generation denial starts the ladder at 1.
	for i := 0; i < 4; i++ {
		_, err := s.service.CheckAndRecord(ctx, "user:1", models.ActionCardGeneration)
		s.Require().NoError(err)
	}

	// A bin_lookup denial continues the same ladder instead of starting
	// over, so switching endpoints cannot reset the penalty clock.
	for i := 0; i < 2; i++ {
		res, err := s.service.CheckAndRecord(ctx, "user:1", models.ActionBinLookup)
		s.Require().NoError(err)
		s.Require().True(res.Allowed)
	}
	res, err := s.service.CheckAndRecord(ctx, "user:1", models.ActionBinLookup)
	s.Require().NoError(err)
	s.Require().False(res.Allowed)
	s.Equal(2, res.ViolationCount)
	s.Equal(120, res.RetryAfter)
}

func (s *AdmissionSuite) TestIdentitiesIsolated() {
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := s.service.CheckAndRecord(ctx, "user:1", models.ActionCardGeneration)
		s.Require().NoError(err)
	}

	res, err := s.service.CheckAndRecord(ctx, "user:2", models.ActionCardGeneration)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Zero(res.ViolationCount)
}

func (s *AdmissionSuite) TestStoreOutageDegradesWithoutFailing() {
	ctx := context.Background()

	svc, err := New(
		downStore{},
		downViolationStore{},
		WithConfig(s.service.config),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)

	// The fallback still enforces the limit.
	for i := 0; i < 3; i++ {
		res, err := svc.CheckAndRecord(ctx, "user:1", models.ActionCardGeneration)
		s.Require().NoError(err)
		s.True(res.Allowed, "request %d", i)
		s.True(res.Degraded)
	}

	res, err := svc.CheckAndRecord(ctx, "user:1", models.ActionCardGeneration)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.True(res.Degraded)
	s.Equal(1, res.ViolationCount)
}

func (s *AdmissionSuite) TestResetClearsWindowAndViolations() {
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := s.service.CheckAndRecord(ctx, "user:1", models.ActionCardGeneration)
		s.Require().NoError(err)
	}

	s.Require().NoError(s.service.Reset(ctx, "user:1", models.ActionCardGeneration))

	res, err := s.service.CheckAndRecord(ctx, "user:1", models.ActionCardGeneration)
	s.Require().NoError(err)
	s.True(res.Allowed)

	count, limit, err := s.service.Usage(ctx, "user:1", models.ActionCardGeneration)
	s.Require().NoError(err)
	s.Equal(1, count)
	s.Equal(3, limit)
}

func (s *AdmissionSuite) TestEmptyIdentityRejected() {
	_, err := s.service.CheckAndRecord(context.Background(), "", models.ActionDefault)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *AdmissionSuite) TestUnknownActionFallsBackToDefault() {
	res, err := s.service.CheckAndRecord(context.Background(), "user:1", models.Action("bogus"))
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(s.service.config.Limits[models.ActionDefault].RequestsPerWindow, res.Limit)
}
