package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/raysh454/trimetric/internal/model"
	"github.com/raysh454/trimetric/internal/schema"
)

type IssueKind string

const (
	IssueMissing    IssueKind = "missing"
	IssueOutOfRange IssueKind = "out_of_range"
	IssueNonFinite  IssueKind = "non_finite"
	IssueUnknown    IssueKind = "unknown_factor"
)

// Issue describes one place where a stored document disagrees with the schema.
type Issue struct {
	Kind    IssueKind       `json:"kind"`
	Ref     model.FactorRef `json:"ref"`
	Value   *float64        `json:"value,omitempty"`
	Max     float64         `json:"max,omitempty"`
	Message string          `json:"message"`
}

// CheckIntegrity reports problems in doc without changing it. Aggregation keeps
// summing whatever is stored; this is how operators find rows edited outside
// the factor editor.
func CheckIntegrity(s *schema.Schema, doc *model.ScoresData) []Issue {
	var issues []Issue
	var scores model.Scores
	if doc != nil {
		scores = doc.Scores
	}

	for _, p := range s.Pillars() {
		for _, c := range p.Categories {
			for _, f := range c.Factors {
				ref := model.FactorRef{PillarID: p.ID, CategoryID: c.ID, FactorKey: f.Key}
				v, ok := scores.Lookup(p.ID, c.ID, f.Key)
				switch {
				case !ok:
					issues = append(issues, Issue{Kind: IssueMissing, Ref: ref, Max: f.Max,
						Message: fmt.Sprintf("%s has no stored value (counted as 0)", ref)})
				case math.IsNaN(v) || math.IsInf(v, 0):
					issues = append(issues, Issue{Kind: IssueNonFinite, Ref: ref, Max: f.Max,
						Message: fmt.Sprintf("%s is not a finite number", ref)})
				case !f.InRange(v):
					val := v
					issues = append(issues, Issue{Kind: IssueOutOfRange, Ref: ref, Value: &val, Max: f.Max,
						Message: fmt.Sprintf("%s = %g is outside [0, %g]", ref, v, f.Max)})
				}
			}
		}
	}

	// Stored paths the schema does not know about, sorted for stable output.
	var unknown []model.FactorRef
	for p, cats := range scores {
		for c, factors := range cats {
			for k := range factors {
				if !s.Has(p, c, k) {
					unknown = append(unknown, model.FactorRef{PillarID: p, CategoryID: c, FactorKey: k})
				}
			}
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i].String() < unknown[j].String() })
	for _, ref := range unknown {
		v := scores.Get(ref.PillarID, ref.CategoryID, ref.FactorKey)
		issues = append(issues, Issue{Kind: IssueUnknown, Ref: ref, Value: &v,
			Message: fmt.Sprintf("%s is not part of the scoring schema", ref)})
	}
	return issues
}
