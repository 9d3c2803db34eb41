package sampling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	got, err := Scenarios(50000, 10, Confidence95, 0.05)
	require.NoError(t, err)
	require.Len(t, got, len(ScenarioMatrix()))

	selected := 0
	for _, s := range got {
		if s.Selected {
			selected++
			assert.Equal(t, "Padrão (95% / ±5%) ★", s.Label)
			assert.Equal(t, 382, s.MinimumCochran)
			assert.Equal(t, 500, s.Recommended)
			assert.Equal(t, 630, s.FieldTarget)
		}
		assert.Zero(t, s.Recommended%10)
		assert.GreaterOrEqual(t, s.Recommended, 400)
	}
	assert.Equal(t, 1, selected)

	// Within one confidence level a tighter margin never needs fewer interviews.
	byConfidence := map[Confidence]int{}
	for _, s := range got {
		if prev, ok := byConfidence[s.Confidence]; ok {
			assert.GreaterOrEqual(t, s.Recommended, prev, s.Label)
		}
		byConfidence[s.Confidence] = s.Recommended
	}
}

func TestScenarios_NoMatch(t *testing.T) {
	got, err := Scenarios(50000, 10, Confidence95, 0.06)
	require.NoError(t, err)
	for _, s := range got {
		assert.False(t, s.Selected, s.Label)
	}
}

func TestScenarios_InvalidPopulation(t *testing.T) {
	_, err := Scenarios(1, 1, Confidence95, 0.05)
	assert.ErrorIs(t, err, ErrInvalidPopulation)
}
