package model

import "time"

// Firm is a prop-trading firm under evaluation.
type Firm struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewFirm is the onboarding payload. PTIScore is display-only.
type NewFirm struct {
	Name     string   `json:"name"`
	Slug     string   `json:"slug,omitempty"`
	PTIScore *float64 `json:"ptiScore,omitempty"`
}

// ScoreEvent records one committed factor change.
type ScoreEvent struct {
	ID         string    `json:"id"`
	FirmID     string    `json:"firmId"`
	PillarID   string    `json:"pillarId"`
	CategoryID string    `json:"categoryId"`
	FactorKey  string    `json:"factorKey"`
	OldValue   *float64  `json:"oldValue,omitempty"`
	NewValue   float64   `json:"newValue"`
	Patch      string    `json:"patch,omitempty"`
	Revision   int64     `json:"revision"`
	CreatedAt  time.Time `json:"createdAt"`
}
