package models

import "strings"

// Brand identifies the card network a BIN belongs to.
type Brand string

const (
	BrandVisa       Brand = "VISA"
	BrandMastercard Brand = "MASTERCARD"
	BrandAmex       Brand = "AMERICAN EXPRESS"
	BrandDiners     Brand = "DINERS CLUB"
	BrandDiscover   Brand = "DISCOVER"
)

// Category distinguishes funding types; prepaid cards get shorter expiry horizons.
type Category string

const (
	CategoryCredit  Category = "CREDIT"
	CategoryDebit   Category = "DEBIT"
	CategoryPrepaid Category = "PREPAID"
)

// BinRecord is the read-only metadata for a six-digit issuing prefix.
// Records are externally sourced and immutable once loaded.
type BinRecord struct {
	Prefix      string   `json:"prefix"`
	Brand       Brand    `json:"brand"`
	Category    Category `json:"category"`
	Issuer      string   `json:"issuer"`
	CountryCode string   `json:"country_code"`
	CountryName string   `json:"country_name"`
}

// BlockedPrefix marks a prefix that must never reach generation,
// typically a published network test range.
type BlockedPrefix struct {
	Prefix string `json:"prefix"`
	Reason string `json:"reason"`
}

// IsAmex reports whether the brand belongs to the 15-digit family.
func (b Brand) IsAmex() bool {
	u := strings.ToUpper(string(b))
	return strings.Contains(u, "AMERICAN EXPRESS") || strings.Contains(u, "AMEX")
}

// IsDiners reports whether the brand belongs to the 14-digit family.
func (b Brand) IsDiners() bool {
	return strings.Contains(strings.ToUpper(string(b)), "DINERS")
}

// IsDiscover reports whether the brand belongs to the Discover family.
func (b Brand) IsDiscover() bool {
	return strings.Contains(strings.ToUpper(string(b)), "DISCOVER")
}

// IsPrepaid reports whether the category is prepaid, tolerating
// source databases that carry mixed-case or annotated values.
func (c Category) IsPrepaid() bool {
	return strings.Contains(strings.ToUpper(string(c)), "PREPAID")
}
