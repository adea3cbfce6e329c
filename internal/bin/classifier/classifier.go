// Package classifier validates issuing prefixes before card generation.
//
// Classification is a pure read: the input is normalized, checked against
// the blocklist of known test/reserved ranges, and then resolved against
// the BIN metadata store. A prefix on the blocklist never reaches the
// digit synthesizer.
package classifier

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"cardforge/internal/bin/models"
	dErrors "cardforge/pkg/domain-errors"
)

// Store resolves a normalized six-digit prefix to its metadata record.
type Store interface {
	Lookup(ctx context.Context, prefix string) (*models.BinRecord, error)
}

// Blocklist answers whether a prefix is a known test/reserved range.
type Blocklist interface {
	IsBlocked(ctx context.Context, prefix string) (bool, string, error)
}

// Service classifies BIN prefixes. Safe for unbounded concurrent use.
type Service struct {
	store     Store
	blocklist Blocklist
	logger    *slog.Logger
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a classifier backed by the given stores.
func New(store Store, blocklist Blocklist, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("bin store is required")
	}
	if blocklist == nil {
		return nil, errors.New("blocklist store is required")
	}

	svc := &Service{
		store:     store,
		blocklist: blocklist,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Classify validates and resolves a prefix input.
//
// The input is trimmed and must be 6-8 digits; only the first six digits
// identify the issuing range. Returns CodeInvalidFormat, CodeBlocked
// (carrying the block reason) or CodeNotFound as typed domain errors.
func (s *Service) Classify(ctx context.Context, prefixInput string) (*models.BinRecord, error) {
	prefix, err := Normalize(prefixInput)
	if err != nil {
		return nil, err
	}

	blocked, reason, err := s.blocklist.IsBlocked(ctx, prefix)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check blocklist")
	}
	if blocked {
		s.logger.InfoContext(ctx, "blocked prefix rejected",
			"prefix", prefix,
			"reason", reason,
		)
		return nil, dErrors.New(dErrors.CodeBlocked, reason)
	}

	record, err := s.store.Lookup(ctx, prefix)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up bin")
	}
	if record == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "BIN not found in database")
	}

	return record, nil
}

// Normalize trims the input, enforces the 6-8 digit format and returns
// the leading six digits.
func Normalize(prefixInput string) (string, error) {
	trimmed := strings.TrimSpace(prefixInput)
	if len(trimmed) < 6 || len(trimmed) > 8 {
		return "", dErrors.New(dErrors.CodeInvalidFormat, "prefix must be 6-8 digits")
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] < '0' || trimmed[i] > '9' {
			return "", dErrors.New(dErrors.CodeInvalidFormat, "prefix must contain only digits")
		}
	}
	return trimmed[:6], nil
}
