package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/trimetric/internal/schema"
)

func TestDefault_Shape(t *testing.T) {
	s := schema.Default()

	pillars := s.Pillars()
	require.Len(t, pillars, 3)
	assert.Equal(t, "credibility", pillars[0].ID)
	assert.Equal(t, "trading_conditions", pillars[1].ID)
	assert.Equal(t, "payouts_support", pillars[2].ID)

	for _, p := range pillars {
		assert.GreaterOrEqual(t, len(p.Categories), 3, p.ID)
		assert.LessOrEqual(t, len(p.Categories), 4, p.ID)
		for _, c := range p.Categories {
			assert.GreaterOrEqual(t, len(c.Factors), 3, c.ID)
			assert.LessOrEqual(t, len(c.Factors), 4, c.ID)
		}
	}
	assert.Equal(t, "trimetric-v1", s.Version())
}

func TestDefault_PhysicalLegalPresence(t *testing.T) {
	s := schema.Default()
	p, ok := s.Pillar("credibility")
	require.True(t, ok)
	c, ok := p.Category("physical_legal_presence")
	require.True(t, ok)

	keys := make([]string, 0, len(c.Factors))
	for _, f := range c.Factors {
		keys = append(keys, f.Key)
		assert.Equal(t, 1.0, f.Max, f.Key)
	}
	assert.Equal(t, []string{"registered_company", "physical_office", "dashboard_friendlyness"}, keys)
}

func TestDefault_IsStable(t *testing.T) {
	assert.Same(t, schema.Default(), schema.Default())
}

func TestSchema_AccessorsReturnCopies(t *testing.T) {
	s := schema.Default()

	pillars := s.Pillars()
	pillars[0].Categories[0].Factors[0].Max = 99
	pillars[0].ID = "mutated"

	f, ok := s.Factor("credibility", "physical_legal_presence", "registered_company")
	require.True(t, ok)
	assert.Equal(t, 1.0, f.Max)
	assert.Equal(t, "credibility", s.Pillars()[0].ID)
}

func TestSchema_FactorLookup(t *testing.T) {
	s := schema.Default()

	_, ok := s.Factor("credibility", "physical_legal_presence", "nope")
	assert.False(t, ok)
	assert.True(t, s.Has("trading_conditions", "rules", "max_drawdown"))
	assert.False(t, s.Has("trading_conditions", "pricing", "max_drawdown"))
}

func TestSchema_ZeroScoresCoversEveryFactor(t *testing.T) {
	s := schema.Default()
	zero := s.ZeroScores()

	n := 0
	for _, p := range s.Pillars() {
		for _, c := range p.Categories {
			for _, f := range c.Factors {
				v, ok := zero.Lookup(p.ID, c.ID, f.Key)
				assert.True(t, ok)
				assert.Equal(t, 0.0, v)
				n++
			}
		}
	}
	assert.Equal(t, s.FactorCount(), n)
}

func TestFactor_InRange(t *testing.T) {
	f := schema.Factor{Key: "k", Max: 2}
	assert.True(t, f.InRange(0))
	assert.True(t, f.InRange(2))
	assert.True(t, f.InRange(1.25))
	assert.False(t, f.InRange(-0.01))
	assert.False(t, f.InRange(2.01))
}

func TestFactor_CriterionFor(t *testing.T) {
	f, _ := schema.Default().Factor("credibility", "physical_legal_presence", "physical_office")
	c, ok := f.CriterionFor(0.5)
	require.True(t, ok)
	assert.Equal(t, "Virtual or shared office", c.Label)

	_, ok = f.CriterionFor(0.7)
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", `version: x`},
		{"duplicate pillar", `
pillars:
  - id: a
  - id: a`},
		{"duplicate category", `
pillars:
  - id: a
    categories:
      - id: c
      - id: c`},
		{"duplicate factor", `
pillars:
  - id: a
    categories:
      - id: c
        factors:
          - {key: f, max: 1}
          - {key: f, max: 1}`},
		{"negative max", `
pillars:
  - id: a
    categories:
      - id: c
        factors:
          - {key: f, max: -1}`},
		{"criterion above max", `
pillars:
  - id: a
    categories:
      - id: c
        factors:
          - key: f
            max: 1
            criteria:
              - {label: too much, value: 2}`},
		{"malformed", `pillars: [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.Parse([]byte(tt.doc))
			require.ErrorIs(t, err, schema.ErrInvalidSchema)
		})
	}
}

func TestParse_MaxNeedNotMatchCriteria(t *testing.T) {
	s, err := schema.Parse([]byte(`
pillars:
  - id: a
    categories:
      - id: c
        factors:
          - key: f
            max: 3
            criteria:
              - {label: low, value: 0}
              - {label: mid, value: 1}`))
	require.NoError(t, err)
	f, ok := s.Factor("a", "c", "f")
	require.True(t, ok)
	assert.Equal(t, 3.0, f.Max)
}

func TestSchema_MarshalJSON(t *testing.T) {
	raw, err := json.Marshal(schema.Default())
	require.NoError(t, err)

	var doc struct {
		Version string `json:"version"`
		Pillars []struct {
			ID string `json:"id"`
		} `json:"pillars"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "trimetric-v1", doc.Version)
	assert.Len(t, doc.Pillars, 3)
}
