package avs

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cardforge/pkg/domain-errors"
)

func TestPairPostalCode(t *testing.T) {
	p := New(WithRand(rand.New(rand.NewSource(1))))

	t.Run("supported country returns a table entry", func(t *testing.T) {
		code, err := p.PairPostalCode("US")
		require.NoError(t, err)
		assert.Contains(t, postalCodes["US"], code)
	})

	t.Run("lowercase and padded input is normalized", func(t *testing.T) {
		code, err := p.PairPostalCode(" gb ")
		require.NoError(t, err)
		assert.Contains(t, postalCodes["GB"], code)
	})

	t.Run("unsupported country is a typed error", func(t *testing.T) {
		_, err := p.PairPostalCode("ZZ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnsupportedAVSCountry))
	})
}

func TestSupportedCountries(t *testing.T) {
	countries := SupportedCountries()
	assert.Len(t, countries, len(postalCodes))
	assert.Contains(t, countries, "US")
	assert.Contains(t, countries, "FR")
}
