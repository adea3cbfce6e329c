package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	binmodels "cardforge/internal/bin/models"
)

func TestExpiryString(t *testing.T) {
	assert.Equal(t, "03/2029", Expiry{Month: 3, Year: 2029}.String())
	assert.Equal(t, "12/2030", Expiry{Month: 12, Year: 2030}.String())
}

func TestNumberLength(t *testing.T) {
	tests := []struct {
		name     string
		brand    binmodels.Brand
		category binmodels.Category
		want     int
	}{
		{"amex", binmodels.BrandAmex, binmodels.CategoryCredit, 15},
		{"diners", binmodels.BrandDiners, binmodels.CategoryCredit, 14},
		{"discover", binmodels.BrandDiscover, binmodels.CategoryCredit, 16},
		{"visa", binmodels.BrandVisa, binmodels.CategoryCredit, 16},
		{"prepaid mastercard", binmodels.BrandMastercard, binmodels.CategoryPrepaid, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NumberLength(tt.brand, tt.category))
		})
	}
}

func TestDisplayNumber(t *testing.T) {
	t.Run("16 digits in groups of four", func(t *testing.T) {
		c := &GeneratedCard{Number: "4242424242424242"}
		assert.Equal(t, "4242 4242 4242 4242", c.DisplayNumber())
	})

	t.Run("15 digits as 4-6-5", func(t *testing.T) {
		c := &GeneratedCard{Number: "378282246310005"}
		assert.Equal(t, "3782 822463 10005", c.DisplayNumber())
	})

	t.Run("14 digits as 4-4-4-2", func(t *testing.T) {
		c := &GeneratedCard{Number: "30569309025904"}
		assert.Equal(t, "3056 9309 0259 04", c.DisplayNumber())
	})
}

func TestMaskedNumber(t *testing.T) {
	c := &GeneratedCard{Number: "4242424242424242"}
	assert.Equal(t, "424242******4242", c.MaskedNumber())

	amex := &GeneratedCard{Number: "378282246310005"}
	assert.Equal(t, "378282*****0005", amex.MaskedNumber())
}
