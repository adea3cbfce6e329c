// Package service assembles complete synthetic card records.
//
// The assembler orchestrates the pipeline: classify the prefix, synthesize
// the free digits, solve the check digit, derive CVV and expiry, and
// optionally pair a postal code. The pipeline is pure apart from read-only
// store access through the classifier; no retries exist outside the
// synthesizer's internal reshuffle loop, and no partial results are ever
// returned.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"cardforge/internal/card/luhn"
	"cardforge/internal/card/metrics"
	"cardforge/internal/card/models"
	"cardforge/internal/card/tracer"

	binmodels "cardforge/internal/bin/models"
	dErrors "cardforge/pkg/domain-errors"
)

// Classifier validates and resolves a BIN prefix input.
type Classifier interface {
	Classify(ctx context.Context, prefixInput string) (*binmodels.BinRecord, error)
}

// Synthesizer fills the free digit positions, reporting fallback use.
type Synthesizer interface {
	Synthesize(prefix string, targetLen int) (string, bool)
}

// PostalPairer selects an AVS postal code for a country.
type PostalPairer interface {
	PairPostalCode(countryCode string) (string, error)
}

// Service generates card records. Safe for unbounded concurrent use: every
// call owns its own local state.
type Service struct {
	classifier Classifier
	synth      Synthesizer
	avs        PostalPairer

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	now     func() time.Time

	mu         sync.Mutex
	seedSource *rand.Rand
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer sets the pipeline tracer.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithRand injects the random seed source for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		s.seedSource = rng
	}
}

// WithClock injects the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates an assembler service.
func New(classifier Classifier, synth Synthesizer, avs PostalPairer, opts ...Option) (*Service, error) {
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if synth == nil {
		return nil, errors.New("synthesizer is required")
	}
	if avs == nil {
		return nil, errors.New("postal pairer is required")
	}

	svc := &Service{
		classifier: classifier,
		synth:      synth,
		avs:        avs,
		logger:     slog.Default(),
		tracer:     tracer.NewNoop(),
		now:        time.Now,
		seedSource: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Generate produces one card record for the prefix, or a typed error.
//
// State machine: Classify -> Synthesize+Solve -> CVV -> Expiry -> AVS (if
// requested) -> assemble. Classification failures (invalid format, blocked,
// not found) and unsupported AVS countries surface unchanged to the caller.
func (s *Service) Generate(ctx context.Context, prefixInput string, opts models.GenerateOptions) (*models.GeneratedCard, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanGenerate,
		tracer.Bool(tracer.AttrIncludeAVS, opts.IncludeAVS),
	)

	card, err := s.generate(ctx, prefixInput, opts)
	span.End(err)

	if s.metrics != nil {
		s.metrics.ObserveGeneration(s.now().Sub(start).Seconds())
		if err != nil {
			s.metrics.RecordFailure(errorCode(err))
		} else {
			s.metrics.RecordGenerated(string(card.Brand))
		}
	}
	return card, err
}

func (s *Service) generate(ctx context.Context, prefixInput string, opts models.GenerateOptions) (*models.GeneratedCard, error) {
	record, err := s.classify(ctx, prefixInput)
	if err != nil {
		return nil, err
	}

	number, err := s.synthesizeNumber(ctx, record)
	if err != nil {
		return nil, err
	}

	rng := s.childRand()
	now := s.now()
	expiry := GenerateExpiry(record.Category, now, rng)
	cvv := DeriveCVV(number, expiry, true, rng)

	postalCode := ""
	if opts.IncludeAVS {
		postalCode, err = s.avs.PairPostalCode(opts.AVSCountry)
		if err != nil {
			return nil, err
		}
	}

	return &models.GeneratedCard{
		Number:      number,
		CVV:         cvv,
		Expiry:      expiry,
		PostalCode:  postalCode,
		Prefix:      record.Prefix,
		Brand:       record.Brand,
		Category:    record.Category,
		Issuer:      record.Issuer,
		CountryCode: record.CountryCode,
		CountryName: record.CountryName,
		GeneratedAt: now,
	}, nil
}

func (s *Service) classify(ctx context.Context, prefixInput string) (*binmodels.BinRecord, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanClassify)
	record, err := s.classifier.Classify(ctx, prefixInput)
	if err != nil {
		span.End(err)
		return nil, err
	}
	span.SetAttributes(
		tracer.String(tracer.AttrPrefix, record.Prefix),
		tracer.String(tracer.AttrBrand, string(record.Brand)),
	)
	span.End(nil)
	return record, nil
}

func (s *Service) synthesizeNumber(ctx context.Context, record *binmodels.BinRecord) (string, error) {
	_, span := s.tracer.Start(ctx, tracer.SpanSynthesize,
		tracer.String(tracer.AttrPrefix, record.Prefix),
	)

	targetLen := models.NumberLength(record.Brand, record.Category)
	partial, fellBack := s.synth.Synthesize(record.Prefix, targetLen)
	if fellBack {
		if s.metrics != nil {
			s.metrics.SynthFallbacksTotal.Inc()
		}
		span.AddEvent("synth.uniform_fallback")
	}

	number, err := luhn.Solve(partial)
	if err != nil {
		// Unreachable by construction; a miss here is a logic bug.
		s.logger.ErrorContext(ctx, "checksum resolver found no valid digit",
			"partial_len", len(partial),
			"prefix", record.Prefix,
		)
		span.End(err)
		return "", err
	}

	span.SetAttributes(
		tracer.Int(tracer.AttrLength, len(number)),
		tracer.Bool(tracer.AttrSynthFallback, fellBack),
	)
	span.End(nil)
	return number, nil
}

func (s *Service) childRand() *rand.Rand {
	s.mu.Lock()
	seed := s.seedSource.Int63()
	s.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}

func errorCode(err error) string {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return string(domainErr.Code)
	}
	return string(dErrors.CodeInternal)
}
