package handler

// GenerateRequest is the body of POST /cards/generate.
type GenerateRequest struct {
	BIN        string `json:"bin" validate:"required,numeric,min=6,max=8"`
	IncludeAVS bool   `json:"include_avs"`
	AVSCountry string `json:"avs_country" validate:"omitempty,alpha,len=2"`
}

// BulkGenerateRequest is the body of POST /cards/generate/bulk.
type BulkGenerateRequest struct {
	BIN        string `json:"bin" validate:"required,numeric,min=6,max=8"`
	Count      int    `json:"count" validate:"required,min=1,max=1000"`
	IncludeAVS bool   `json:"include_avs"`
	AVSCountry string `json:"avs_country" validate:"omitempty,alpha,len=2"`
}
