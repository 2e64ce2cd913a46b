package server

// CreateFirmRequest onboards a firm with a zero-filled score document.
type CreateFirmRequest struct {
	Name     string   `json:"name" example:"Apex Funding"`
	Slug     string   `json:"slug,omitempty" example:"apex-funding"`
	PTIScore *float64 `json:"ptiScore,omitempty" example:"7.5"`
}

// UpdateFactorRequest sets one factor. FirmID is optional; the path names the firm.
type UpdateFactorRequest struct {
	FirmID     string   `json:"firmId,omitempty" example:"apex-funding"`
	PillarID   string   `json:"pillarId" example:"credibility"`
	CategoryID string   `json:"categoryId" example:"physical_legal_presence"`
	FactorKey  string   `json:"factorKey" example:"registered_company"`
	Value      *float64 `json:"value" example:"1"`
}

// SetPTIRequest sets or, with null, clears the display-only PTI score.
type SetPTIRequest struct {
	PTIScore *float64 `json:"ptiScore" example:"8.2"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"firm not found"`
}
