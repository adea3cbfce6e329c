package models

import (
	"strings"
	"time"

	binmodels "cardforge/internal/bin/models"
)

// Expiry is a month/year pair, always strictly in the future at generation time.
type Expiry struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// String formats the expiry as MM/YYYY, the form embossed on physical cards.
func (e Expiry) String() string {
	mm := byte('0' + e.Month/10)
	m := byte('0' + e.Month%10)
	return string([]byte{mm, m, '/'}) + itoa4(e.Year)
}

func itoa4(year int) string {
	b := [4]byte{}
	for i := 3; i >= 0; i-- {
		b[i] = byte('0' + year%10)
		year /= 10
	}
	return string(b[:])
}

// GeneratedCard is the result value of one generation call. It carries no
// identity, is never persisted by this subsystem, and exists only inside
// the response it is embedded in.
type GeneratedCard struct {
	Number     string `json:"number"`
	CVV        string `json:"cvv"`
	Expiry     Expiry `json:"expiry"`
	PostalCode string `json:"postal_code,omitempty"`

	// Denormalized BIN metadata for display.
	Prefix      string             `json:"bin"`
	Brand       binmodels.Brand    `json:"brand"`
	Category    binmodels.Category `json:"category"`
	Issuer      string             `json:"issuer"`
	CountryCode string             `json:"country_code"`
	CountryName string             `json:"country_name"`

	GeneratedAt time.Time `json:"generated_at"`
}

// GenerateOptions controls optional companion fields.
type GenerateOptions struct {
	IncludeAVS bool
	AVSCountry string
}

// NumberLength returns the card number length for a brand/category pair.
// Length is a deterministic function of the pair, never of randomness:
// Amex-family 15, Diners-family 14, everything else (including Discover
// and all prepaid ranges) 16.
func NumberLength(brand binmodels.Brand, category binmodels.Category) int {
	switch {
	case brand.IsAmex():
		return 15
	case brand.IsDiners():
		return 14
	default:
		return 16
	}
}

// DisplayNumber groups the number the way card faces do: 4-6-5 for
// 15-digit numbers, groups of four otherwise.
func (c *GeneratedCard) DisplayNumber() string {
	n := c.Number
	if len(n) == 15 {
		return n[:4] + " " + n[4:10] + " " + n[10:]
	}
	var b strings.Builder
	for i := 0; i < len(n); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		end := i + 4
		if end > len(n) {
			end = len(n)
		}
		b.WriteString(n[i:end])
	}
	return b.String()
}

// MaskedNumber returns the PCI display form: first six and last four
// digits visible, the rest replaced with asterisks.
func (c *GeneratedCard) MaskedNumber() string {
	n := c.Number
	if len(n) <= 10 {
		return n
	}
	return n[:6] + strings.Repeat("*", len(n)-10) + n[len(n)-4:]
}
