package classifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"cardforge/internal/bin/models"
	"cardforge/internal/bin/store"
	dErrors "cardforge/pkg/domain-errors"
)

type ClassifierSuite struct {
	suite.Suite
	service *Service
}

func TestClassifierSuite(t *testing.T) {
	suite.Run(t, new(ClassifierSuite))
}

func (s *ClassifierSuite) SetupTest() {
	ctx := context.Background()
	bins := store.NewMemory()
	blocklist := store.NewMemoryBlocklist()

	s.Require().NoError(bins.Save(ctx, &models.BinRecord{
		Prefix:      "424242",
		Brand:       models.BrandVisa,
		Category:    models.CategoryCredit,
		Issuer:      "Stripe Test Bank",
		CountryCode: "US",
		CountryName: "United States",
	}))
	s.Require().NoError(blocklist.Block(ctx, &models.BlockedPrefix{
		Prefix: "411111",
		Reason: "known test BIN",
	}))

	var err error
	s.service, err = New(bins, blocklist, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
}

func (s *ClassifierSuite) TestClassifyKnownPrefix() {
	record, err := s.service.Classify(context.Background(), "424242")
	s.Require().NoError(err)
	s.Equal("424242", record.Prefix)
	s.Equal(models.BrandVisa, record.Brand)
	s.Equal(models.CategoryCredit, record.Category)
}

func (s *ClassifierSuite) TestClassifyTrimsAndTruncates() {
	record, err := s.service.Classify(context.Background(), "  42424201 ")
	s.Require().NoError(err)
	s.Equal("424242", record.Prefix)
}

func (s *ClassifierSuite) TestClassifyInvalidFormats() {
	for _, input := range []string{"", "12345", "123456789", "42a424", "4242 42"} {
		_, err := s.service.Classify(context.Background(), input)
		s.Require().Error(err, "input %q", input)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidFormat), "input %q", input)
	}
}

func (s *ClassifierSuite) TestClassifyBlockedCarriesReason() {
	_, err := s.service.Classify(context.Background(), "411111")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBlocked))
	s.Contains(err.Error(), "known test BIN")
}

func (s *ClassifierSuite) TestClassifyUnknownPrefix() {
	_, err := s.service.Classify(context.Background(), "999999")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ClassifierSuite) TestBlocklistCheckedBeforeLookup() {
	// A prefix that is both stored and blocked must be refused.
	ctx := context.Background()
	bins := store.NewMemory()
	blocklist := store.NewMemoryBlocklist()
	s.Require().NoError(bins.Save(ctx, &models.BinRecord{Prefix: "411111", Brand: models.BrandVisa, Category: models.CategoryCredit}))
	s.Require().NoError(blocklist.Block(ctx, &models.BlockedPrefix{Prefix: "411111", Reason: "known test BIN"}))

	svc, err := New(bins, blocklist)
	s.Require().NoError(err)

	_, err = svc.Classify(ctx, "411111")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBlocked))
}

type failingBlocklist struct{}

func (failingBlocklist) IsBlocked(context.Context, string) (bool, string, error) {
	return false, "", errors.New("connection reset")
}

func (s *ClassifierSuite) TestStoreErrorsWrappedAsInternal() {
	svc, err := New(store.NewMemory(), failingBlocklist{})
	s.Require().NoError(err)

	_, err = svc.Classify(context.Background(), "424242")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
