package score

import (
	"github.com/raysh454/trimetric/internal/model"
	"github.com/raysh454/trimetric/internal/schema"
)

// Breakdown is the full derived view of one firm's evaluation, in schema order.
type Breakdown struct {
	FirmID   string            `json:"firmId"`
	FirmName string            `json:"firmName"`
	PTIScore *float64          `json:"ptiScore,omitempty"`
	Version  string            `json:"schemaVersion"`
	Total    Total             `json:"total"`
	Percent  float64           `json:"percent"`
	Pillars  []PillarBreakdown `json:"pillars"`
}

// PillarBreakdown is one pillar with its rolled-up total and categories.
type PillarBreakdown struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Total      Total               `json:"total"`
	Percent    float64             `json:"percent"`
	Categories []CategoryBreakdown `json:"categories"`
}

// CategoryBreakdown is one category with the sum of its factors.
type CategoryBreakdown struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Total   Total             `json:"total"`
	Factors []FactorBreakdown `json:"factors"`
}

// FactorBreakdown is one factor's stored value. Recorded is false when the
// document has no value and 0 is shown.
type FactorBreakdown struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Max       float64 `json:"max"`
	Recorded  bool    `json:"recorded"`
	Criterion string  `json:"criterion,omitempty"`
}

// Summarize derives every total shown on a firm's evaluation page.
func Summarize(s *schema.Schema, doc *model.ScoresData) Breakdown {
	b := Breakdown{Version: s.Version()}
	if doc != nil {
		b.FirmID = doc.FirmID
		b.FirmName = doc.FirmName
		b.PTIScore = doc.PTIScore
	}

	for _, p := range s.Pillars() {
		pb := PillarBreakdown{ID: p.ID, Name: p.Name, Total: PillarScore(p, doc)}
		pb.Percent = pb.Total.Percent()

		for _, c := range p.Categories {
			cb := CategoryBreakdown{ID: c.ID, Name: c.Name, Total: CategoryScore(p.ID, c.ID, c.Factors, doc)}
			for _, f := range c.Factors {
				fb := FactorBreakdown{Key: f.Key, Label: f.Label, Max: f.Max}
				if doc != nil {
					fb.Value, fb.Recorded = doc.Scores.Lookup(p.ID, c.ID, f.Key)
				}
				if crit, ok := f.CriterionFor(fb.Value); ok && fb.Recorded {
					fb.Criterion = crit.Label
				}
				cb.Factors = append(cb.Factors, fb)
			}
			pb.Categories = append(pb.Categories, cb)
		}

		b.Total = b.Total.Add(pb.Total)
		b.Pillars = append(b.Pillars, pb)
	}
	b.Percent = b.Total.Percent()
	return b
}
