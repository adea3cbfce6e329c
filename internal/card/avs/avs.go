// Package avs pairs generated cards with representative postal codes for
// address-verification testing.
package avs

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	dErrors "cardforge/pkg/domain-errors"
)

// postalCodes maps supported country codes to representative postal codes.
// The set is closed: unknown countries are a caller-visible error, never a
// silent default.
var postalCodes = map[string][]string{
	"US": {"10001", "90210", "60601", "94102", "33101"},
	"IT": {"00100", "20100", "80100", "40100", "50100"},
	"GB": {"SW1A 1AA", "M1 1AA", "B1 1AA", "L1 1AA", "CF1 1AA"},
	"CA": {"M5H 2N2", "V6B 1A1", "T2P 1J9", "H2Y 1A6", "K1A 0A6"},
	"AU": {"2000", "3000", "4000", "5000", "6000"},
	"DE": {"10115", "20095", "80331", "50667", "01067"},
	"FR": {"75001", "69001", "13001", "31000", "59000"},
}

// Pairer selects postal codes from the reference table.
type Pairer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Pairer.
type Option func(*Pairer)

// WithRand injects the random source for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(p *Pairer) {
		p.rng = rng
	}
}

// New creates a Pairer.
func New(opts ...Option) *Pairer {
	p := &Pairer{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PairPostalCode returns a representative postal code for the country, or
// CodeUnsupportedAVSCountry when the country is not in the reference set.
func (p *Pairer) PairPostalCode(countryCode string) (string, error) {
	codes, ok := postalCodes[strings.ToUpper(strings.TrimSpace(countryCode))]
	if !ok {
		return "", dErrors.New(dErrors.CodeUnsupportedAVSCountry, "AVS not supported for country: "+countryCode)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return codes[p.rng.Intn(len(codes))], nil
}

// SupportedCountries lists the closed set of AVS country codes.
func SupportedCountries() []string {
	countries := make([]string, 0, len(postalCodes))
	for code := range postalCodes {
		countries = append(countries, code)
	}
	return countries
}
