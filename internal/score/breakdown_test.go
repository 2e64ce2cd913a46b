package score_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/trimetric/internal/model"
	"github.com/raysh454/trimetric/internal/schema"
	"github.com/raysh454/trimetric/internal/score"
)

func TestSummarize_FollowsSchemaOrder(t *testing.T) {
	s := schema.Default()
	pti := 81.0
	doc := &model.ScoresData{FirmID: "f1", FirmName: "Acme", PTIScore: &pti, Scores: model.Scores{}}
	doc.Scores.Set("credibility", "physical_legal_presence", "physical_office", 0.5)

	b := score.Summarize(s, doc)

	require.Len(t, b.Pillars, 3)
	assert.Equal(t, "f1", b.FirmID)
	assert.Equal(t, &pti, b.PTIScore)
	assert.Equal(t, "trimetric-v1", b.Version)
	for i, p := range s.Pillars() {
		assert.Equal(t, p.ID, b.Pillars[i].ID)
		require.Len(t, b.Pillars[i].Categories, len(p.Categories))
	}

	plp := b.Pillars[0].Categories[0]
	assert.Equal(t, "physical_legal_presence", plp.ID)
	assert.Equal(t, score.Total{Total: 0.5, MaxTotal: 3}, plp.Total)

	office := plp.Factors[1]
	assert.Equal(t, "physical_office", office.Key)
	assert.True(t, office.Recorded)
	assert.Equal(t, "Virtual or shared office", office.Criterion)

	registered := plp.Factors[0]
	assert.False(t, registered.Recorded)
	assert.Empty(t, registered.Criterion)
}

func TestSummarize_TotalsAgreeWithRollups(t *testing.T) {
	s := schema.Default()
	doc := &model.ScoresData{Scores: s.ZeroScores()}
	doc.Scores.Set("trading_conditions", "platform", "execution_quality", 2)

	b := score.Summarize(s, doc)

	assert.Equal(t, score.FirmScore(s, doc), b.Total)
	for _, pb := range b.Pillars {
		p, _ := s.Pillar(pb.ID)
		assert.Equal(t, score.PillarScore(p, doc), pb.Total)
	}
}

func TestSummarize_NilDocument(t *testing.T) {
	b := score.Summarize(schema.Default(), nil)
	assert.Equal(t, 0.0, b.Total.Total)
	assert.Greater(t, b.Total.MaxTotal, 0.0)
}
