package handler

import (
	binmodels "cardforge/internal/bin/models"
	"cardforge/internal/card/models"
)

// CardResponse is one generated card with its display forms.
type CardResponse struct {
	*models.GeneratedCard
	DisplayNumber string `json:"display_number"`
	MaskedNumber  string `json:"masked_number"`
}

func newCardResponse(card *models.GeneratedCard) *CardResponse {
	return &CardResponse{
		GeneratedCard: card,
		DisplayNumber: card.DisplayNumber(),
		MaskedNumber:  card.MaskedNumber(),
	}
}

// BulkGenerateResponse is the body of a bulk generation reply. Failed counts
// only occur on internal generation errors; input problems fail the whole
// request before any card is attempted.
type BulkGenerateResponse struct {
	Requested int             `json:"requested"`
	Generated int             `json:"generated"`
	Failed    int             `json:"failed,omitempty"`
	Cards     []*CardResponse `json:"cards"`
}

// BinResponse is the body of a BIN lookup reply.
type BinResponse struct {
	Prefix      string             `json:"bin"`
	Brand       binmodels.Brand    `json:"brand"`
	Category    binmodels.Category `json:"category"`
	Issuer      string             `json:"issuer"`
	CountryCode string             `json:"country_code"`
	CountryName string             `json:"country_name"`
}

func newBinResponse(record *binmodels.BinRecord) *BinResponse {
	return &BinResponse{
		Prefix:      record.Prefix,
		Brand:       record.Brand,
		Category:    record.Category,
		Issuer:      record.Issuer,
		CountryCode: record.CountryCode,
		CountryName: record.CountryName,
	}
}
