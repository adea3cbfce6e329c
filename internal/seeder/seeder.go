// Package seeder populates in-memory stores with demo BIN data so the
// service is usable out of the box without Postgres.
package seeder

import (
	"context"
	"fmt"
	"log/slog"

	"cardforge/internal/bin/models"
)

// BinStore defines methods for seeding BIN records
type BinStore interface {
	Save(ctx context.Context, record *models.BinRecord) error
}

// Blocklist defines methods for seeding blocked prefixes
type Blocklist interface {
	Block(ctx context.Context, blocked *models.BlockedPrefix) error
}

// testBins are well-known public test prefixes. Numbers in these ranges are
// recognizable as test data, so generation from them is refused.
var testBins = []string{
	"411111", "555555", "378282", "371449",
	"601111", "630495", "630490", "360000",
	"305693", "385200", "601100", "353011", "356600",
}

// Seeder populates in-memory stores with demo data
type Seeder struct {
	bins      BinStore
	blocklist Blocklist
	logger    *slog.Logger
}

// New creates a new seeder
func New(bins BinStore, blocklist Blocklist, logger *slog.Logger) *Seeder {
	return &Seeder{
		bins:      bins,
		blocklist: blocklist,
		logger:    logger,
	}
}

// SeedAll populates the BIN store and blocklist with demo data
func (s *Seeder) SeedAll(ctx context.Context) error {
	s.logger.Info("seeding demo BIN data...")

	records, err := s.seedBins(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed bins: %w", err)
	}
	blocked, err := s.seedBlocklist(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed blocklist: %w", err)
	}

	s.logger.Info("demo BIN data seeded successfully",
		"bins", records,
		"blocked", blocked,
	)
	return nil
}

func (s *Seeder) seedBins(ctx context.Context) (int, error) {
	demoBins := []*models.BinRecord{
		{Prefix: "424242", Brand: models.BrandVisa, Category: models.CategoryCredit, Issuer: "Stripe Test Bank", CountryCode: "US", CountryName: "United States"},
		{Prefix: "400005", Brand: models.BrandVisa, Category: models.CategoryDebit, Issuer: "First National Bank", CountryCode: "US", CountryName: "United States"},
		{Prefix: "404276", Brand: models.BrandVisa, Category: models.CategoryCredit, Issuer: "Intesa Sanpaolo", CountryCode: "IT", CountryName: "Italy"},
		{Prefix: "542418", Brand: models.BrandMastercard, Category: models.CategoryCredit, Issuer: "Deutsche Bank", CountryCode: "DE", CountryName: "Germany"},
		{Prefix: "535522", Brand: models.BrandMastercard, Category: models.CategoryPrepaid, Issuer: "Revolut", CountryCode: "GB", CountryName: "United Kingdom"},
		{Prefix: "371234", Brand: models.BrandAmex, Category: models.CategoryCredit, Issuer: "American Express", CountryCode: "US", CountryName: "United States"},
		{Prefix: "305800", Brand: models.BrandDiners, Category: models.CategoryCredit, Issuer: "Diners Club International", CountryCode: "CA", CountryName: "Canada"},
		{Prefix: "650001", Brand: models.BrandDiscover, Category: models.CategoryCredit, Issuer: "Discover Bank", CountryCode: "US", CountryName: "United States"},
		{Prefix: "450605", Brand: models.BrandVisa, Category: models.CategoryDebit, Issuer: "Commonwealth Bank", CountryCode: "AU", CountryName: "Australia"},
		{Prefix: "497010", Brand: models.BrandVisa, Category: models.CategoryCredit, Issuer: "BNP Paribas", CountryCode: "FR", CountryName: "France"},
	}

	for _, record := range demoBins {
		if err := s.bins.Save(ctx, record); err != nil {
			return 0, err
		}
	}
	return len(demoBins), nil
}

func (s *Seeder) seedBlocklist(ctx context.Context) (int, error) {
	for _, prefix := range testBins {
		blocked := &models.BlockedPrefix{
			Prefix: prefix,
			Reason: "known test BIN",
		}
		if err := s.blocklist.Block(ctx, blocked); err != nil {
			return 0, err
		}
	}
	return len(testBins), nil
}
