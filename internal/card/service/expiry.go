package service

import (
	"math/rand"
	"time"

	binmodels "cardforge/internal/bin/models"
	"cardforge/internal/card/models"
)

// Expiry horizons in months. Prepaid cards turn over faster than
// credit/debit, so their test expiries sit closer.
const (
	prepaidHorizonMin = 12
	prepaidHorizonMax = 24
	defaultHorizonMin = 36
	defaultHorizonMax = 60
)

// GenerateExpiry returns a month/year strictly after now, within the
// horizon for the category. The minimum horizon is a full year, so the
// result can never collapse to the current month.
func GenerateExpiry(category binmodels.Category, now time.Time, rng *rand.Rand) models.Expiry {
	min, max := defaultHorizonMin, defaultHorizonMax
	if category.IsPrepaid() {
		min, max = prepaidHorizonMin, prepaidHorizonMax
	}

	months := min + rng.Intn(max-min+1)
	future := now.AddDate(0, months, 0)
	return models.Expiry{
		Month: int(future.Month()),
		Year:  future.Year(),
	}
}
