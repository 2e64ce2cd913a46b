package model

import "time"

// Scores holds committed factor values keyed pillar → category → factor.
// A path that is absent contributes 0; callers use Get rather than indexing.
type Scores map[string]map[string]map[string]float64

// Lookup returns the stored value and whether the path exists.
func (s Scores) Lookup(pillarID, categoryID, factorKey string) (float64, bool) {
	cats, ok := s[pillarID]
	if !ok {
		return 0, false
	}
	factors, ok := cats[categoryID]
	if !ok {
		return 0, false
	}
	v, ok := factors[factorKey]
	return v, ok
}

// Get returns the stored value, or 0 when the path is missing.
func (s Scores) Get(pillarID, categoryID, factorKey string) float64 {
	v, _ := s.Lookup(pillarID, categoryID, factorKey)
	return v
}

// Set writes a value, creating missing or nil intermediate maps. s must be
// non-nil.
func (s Scores) Set(pillarID, categoryID, factorKey string, value float64) {
	cats := s[pillarID]
	if cats == nil {
		cats = make(map[string]map[string]float64)
		s[pillarID] = cats
	}
	factors := cats[categoryID]
	if factors == nil {
		factors = make(map[string]float64)
		cats[categoryID] = factors
	}
	factors[factorKey] = value
}

// Clone returns a deep copy.
func (s Scores) Clone() Scores {
	if s == nil {
		return nil
	}
	out := make(Scores, len(s))
	for p, cats := range s {
		cc := make(map[string]map[string]float64, len(cats))
		for c, factors := range cats {
			fc := make(map[string]float64, len(factors))
			for k, v := range factors {
				fc[k] = v
			}
			cc[c] = fc
		}
		out[p] = cc
	}
	return out
}

// ScoresData is the per-firm evaluation document. It is always exchanged
// whole: a committed edit returns the full updated document.
type ScoresData struct {
	FirmID   string   `json:"firmId"`
	FirmName string   `json:"firmName"`
	PTIScore *float64 `json:"ptiScore,omitempty"`
	Scores   Scores   `json:"scores"`

	// Revision increments on every committed change.
	Revision  int64     `json:"revision"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Value is a nil-safe Scores.Get on the document.
func (d *ScoresData) Value(pillarID, categoryID, factorKey string) float64 {
	if d == nil {
		return 0
	}
	return d.Scores.Get(pillarID, categoryID, factorKey)
}

// Clone returns a deep copy of the document.
func (d *ScoresData) Clone() *ScoresData {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Scores = d.Scores.Clone()
	if d.PTIScore != nil {
		v := *d.PTIScore
		cp.PTIScore = &v
	}
	return &cp
}

// FactorRef addresses one leaf of the scoring tree.
type FactorRef struct {
	PillarID   string `json:"pillarId"`
	CategoryID string `json:"categoryId"`
	FactorKey  string `json:"factorKey"`
}

func (r FactorRef) String() string {
	return r.PillarID + "/" + r.CategoryID + "/" + r.FactorKey
}

// FactorUpdate is the partial-update request: one factor, one value.
type FactorUpdate struct {
	FirmID     string  `json:"firmId"`
	PillarID   string  `json:"pillarId"`
	CategoryID string  `json:"categoryId"`
	FactorKey  string  `json:"factorKey"`
	Value      float64 `json:"value"`
}

// Ref returns the factor address of the update.
func (u FactorUpdate) Ref() FactorRef {
	return FactorRef{PillarID: u.PillarID, CategoryID: u.CategoryID, FactorKey: u.FactorKey}
}
