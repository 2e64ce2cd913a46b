// Package score rolls committed factor values up the scoring tree. Every
// function here is pure: same schema and document in, same totals out.
package score

import (
	"github.com/raysh454/trimetric/internal/model"
	"github.com/raysh454/trimetric/internal/schema"
)

// Total is an awarded sum against the maximum attainable sum.
type Total struct {
	Total    float64 `json:"total"`
	MaxTotal float64 `json:"maxTotal"`
}

// Add returns the element-wise sum.
func (t Total) Add(o Total) Total {
	return Total{Total: t.Total + o.Total, MaxTotal: t.MaxTotal + o.MaxTotal}
}

// Percent returns Total as a percentage of MaxTotal, or 0 when nothing is attainable.
func (t Total) Percent() float64 {
	if t.MaxTotal == 0 {
		return 0
	}
	return t.Total / t.MaxTotal * 100
}

// CategoryScore sums the stored values of factors under pillarID/categoryID.
// A factor without a stored value adds 0 to Total; every factor adds its max
// to MaxTotal. Stored values are summed as-is, out-of-range ones included.
func CategoryScore(pillarID, categoryID string, factors []schema.Factor, doc *model.ScoresData) Total {
	var t Total
	for _, f := range factors {
		t.Total += doc.Value(pillarID, categoryID, f.Key)
		t.MaxTotal += f.Max
	}
	return t
}

// PillarScore sums CategoryScore over every category of p.
func PillarScore(p schema.Pillar, doc *model.ScoresData) Total {
	var t Total
	for _, c := range p.Categories {
		t = t.Add(CategoryScore(p.ID, c.ID, c.Factors, doc))
	}
	return t
}

// FirmScore sums PillarScore over every pillar of s.
func FirmScore(s *schema.Schema, doc *model.ScoresData) Total {
	var t Total
	for _, p := range s.Pillars() {
		t = t.Add(PillarScore(p, doc))
	}
	return t
}
