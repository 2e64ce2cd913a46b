// Package schema holds the TriMetric scoring tree: pillars, their categories,
// and the factors evaluators score. A Schema is built once and never mutated;
// accessors hand out copies.
package schema

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/raysh454/trimetric/internal/model"
)

//go:embed trimetric.yaml
var defaultDocument []byte

// ErrInvalidSchema wraps every structural problem reported by Parse.
var ErrInvalidSchema = errors.New("invalid scoring schema")

// Criterion is one documented point value an evaluator may pick. The list is
// advisory: any value in [0, Max] is accepted on commit.
type Criterion struct {
	Label string  `yaml:"label" json:"label"`
	Value float64 `yaml:"value" json:"value"`
}

// Factor is a leaf of the scoring tree.
type Factor struct {
	Key      string      `yaml:"key" json:"key"`
	Label    string      `yaml:"label" json:"label"`
	Max      float64     `yaml:"max" json:"max"`
	Criteria []Criterion `yaml:"criteria" json:"criteria"`
}

// InRange reports whether v is a finite value within [0, Max].
func (f Factor) InRange(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= 0 && v <= f.Max
}

// CriterionFor returns the criterion whose value equals v, if any.
func (f Factor) CriterionFor(v float64) (Criterion, bool) {
	for _, c := range f.Criteria {
		if c.Value == v {
			return c, true
		}
	}
	return Criterion{}, false
}

// Category groups factors. Factor order is display order.
type Category struct {
	ID      string   `yaml:"id" json:"id"`
	Name    string   `yaml:"name" json:"name"`
	Factors []Factor `yaml:"factors" json:"factors"`
}

// Pillar is a top-level group of categories.
type Pillar struct {
	ID         string     `yaml:"id" json:"id"`
	Name       string     `yaml:"name" json:"name"`
	Categories []Category `yaml:"categories" json:"categories"`
}

// Category looks up a category of the pillar by id.
func (p Pillar) Category(id string) (Category, bool) {
	for _, c := range p.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

type document struct {
	Version string   `yaml:"version" json:"version"`
	Pillars []Pillar `yaml:"pillars" json:"pillars"`
}

type factorPath struct {
	pillar, category, factor string
}

// Schema is the immutable scoring configuration.
type Schema struct {
	doc   document
	index map[factorPath]Factor
}

var (
	defaultOnce   sync.Once
	defaultSchema *Schema
)

// Default returns the compiled-in TriMetric schema. It panics if the embedded
// document is malformed, which is a build defect rather than a runtime state.
func Default() *Schema {
	defaultOnce.Do(func() {
		s, err := Parse(defaultDocument)
		if err != nil {
			panic(fmt.Sprintf("embedded trimetric schema: %v", err))
		}
		defaultSchema = s
	})
	return defaultSchema
}

// Parse decodes and validates a YAML (or JSON) schema document.
func Parse(data []byte) (*Schema, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidSchema, err)
	}
	return build(doc)
}

func build(doc document) (*Schema, error) {
	if len(doc.Pillars) == 0 {
		return nil, fmt.Errorf("%w: no pillars", ErrInvalidSchema)
	}

	index := make(map[factorPath]Factor)
	pillarIDs := make(map[string]bool, len(doc.Pillars))
	for _, p := range doc.Pillars {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: pillar with empty id", ErrInvalidSchema)
		}
		if pillarIDs[p.ID] {
			return nil, fmt.Errorf("%w: duplicate pillar %q", ErrInvalidSchema, p.ID)
		}
		pillarIDs[p.ID] = true

		catIDs := make(map[string]bool, len(p.Categories))
		for _, c := range p.Categories {
			if c.ID == "" {
				return nil, fmt.Errorf("%w: pillar %q has a category with empty id", ErrInvalidSchema, p.ID)
			}
			if catIDs[c.ID] {
				return nil, fmt.Errorf("%w: duplicate category %q in pillar %q", ErrInvalidSchema, c.ID, p.ID)
			}
			catIDs[c.ID] = true

			for _, f := range c.Factors {
				path := factorPath{p.ID, c.ID, f.Key}
				if f.Key == "" {
					return nil, fmt.Errorf("%w: %s/%s has a factor with empty key", ErrInvalidSchema, p.ID, c.ID)
				}
				if _, dup := index[path]; dup {
					return nil, fmt.Errorf("%w: duplicate factor %q in %s/%s", ErrInvalidSchema, f.Key, p.ID, c.ID)
				}
				if math.IsNaN(f.Max) || math.IsInf(f.Max, 0) || f.Max < 0 {
					return nil, fmt.Errorf("%w: factor %s/%s/%s has invalid max %v", ErrInvalidSchema, p.ID, c.ID, f.Key, f.Max)
				}
				for _, cr := range f.Criteria {
					if !f.InRange(cr.Value) {
						return nil, fmt.Errorf("%w: criterion %q of %s/%s/%s is outside [0, %g]", ErrInvalidSchema, cr.Label, p.ID, c.ID, f.Key, f.Max)
					}
				}
				index[path] = f
			}
		}
	}

	return &Schema{doc: cloneDocument(doc), index: index}, nil
}

// Version identifies the scoring ruleset.
func (s *Schema) Version() string { return s.doc.Version }

// Pillars returns a copy of the pillar tree in declaration order.
func (s *Schema) Pillars() []Pillar {
	return cloneDocument(s.doc).Pillars
}

// Pillar looks up a pillar by id.
func (s *Schema) Pillar(id string) (Pillar, bool) {
	for _, p := range s.doc.Pillars {
		if p.ID == id {
			return clonePillar(p), true
		}
	}
	return Pillar{}, false
}

// Factor looks up one factor config by its full path.
func (s *Schema) Factor(pillarID, categoryID, factorKey string) (Factor, bool) {
	f, ok := s.index[factorPath{pillarID, categoryID, factorKey}]
	if !ok {
		return Factor{}, false
	}
	f.Criteria = append([]Criterion(nil), f.Criteria...)
	return f, true
}

// Has reports whether the path names a factor.
func (s *Schema) Has(pillarID, categoryID, factorKey string) bool {
	_, ok := s.index[factorPath{pillarID, categoryID, factorKey}]
	return ok
}

// FactorCount is the number of leaves.
func (s *Schema) FactorCount() int { return len(s.index) }

// ZeroScores returns a document with every factor present and set to 0.
func (s *Schema) ZeroScores() model.Scores {
	out := model.Scores{}
	for _, p := range s.doc.Pillars {
		for _, c := range p.Categories {
			for _, f := range c.Factors {
				out.Set(p.ID, c.ID, f.Key, 0)
			}
		}
	}
	return out
}

// MarshalJSON exposes the tree to API clients.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.doc)
}

func cloneDocument(d document) document {
	out := document{Version: d.Version, Pillars: make([]Pillar, len(d.Pillars))}
	for i, p := range d.Pillars {
		out.Pillars[i] = clonePillar(p)
	}
	return out
}

func clonePillar(p Pillar) Pillar {
	cp := Pillar{ID: p.ID, Name: p.Name, Categories: make([]Category, len(p.Categories))}
	for i, c := range p.Categories {
		cc := Category{ID: c.ID, Name: c.Name, Factors: make([]Factor, len(c.Factors))}
		for j, f := range c.Factors {
			f.Criteria = append([]Criterion(nil), f.Criteria...)
			cc.Factors[j] = f
		}
		cp.Categories[i] = cc
	}
	return cp
}
