package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupTag_AllConstantsRegistered(t *testing.T) {
	for _, r := range []RiskFactor{RiskLowConsistency, RiskSlowResponse, RiskLowPerformance, RiskDecliningTrend} {
		tag := LookupTag(string(r))
		require.NotNil(t, tag, "risk %q", r)
		assert.Equal(t, "risk", tag.Kind)
	}
	for _, s := range []Suggestion{
		SuggestGatherMoreData, SuggestBuildRoutine, SuggestTimeManagement,
		SuggestReviewBasics, SuggestEasierDifficulty, SuggestHarderDifficulty,
	} {
		tag := LookupTag(string(s))
		require.NotNil(t, tag, "suggestion %q", s)
		assert.Equal(t, "suggestion", tag.Kind)
	}
}

func TestLabel_FallsBackToID(t *testing.T) {
	assert.Equal(t, "Declining trend", RiskDecliningTrend.Label())
	assert.Equal(t, "mystery", Suggestion("mystery").Label())
	assert.Nil(t, LookupTag("mystery"))
}

func TestHashJitter(t *testing.T) {
	j := HashJitter{Seed: 7, Amplitude: 5}

	a := j.Offset("l1", "PU", 3)
	assert.Equal(t, a, j.Offset("l1", "PU", 3))
	assert.LessOrEqual(t, a, 5.0)
	assert.GreaterOrEqual(t, a, -5.0)

	other := HashJitter{Seed: 8, Amplitude: 5}
	assert.NotEqual(t, a, other.Offset("l1", "PU", 3))

	assert.Zero(t, HashJitter{Seed: 7}.Offset("l1", "PU", 3))
	assert.Zero(t, NoJitter{}.Offset("l1", "PU", 3))
}
