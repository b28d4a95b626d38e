package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeights_Valid(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())
}

func TestWeightSet_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights WeightSet
		wantErr bool
	}{
		{"default", DefaultWeights(), false},
		{"uneven but normalized", WeightSet{Cost: 0.5, CO2: 0.1, DeliveryTime: 0.1, EthicalScore: 0.3}, false},
		{"does not sum to one", WeightSet{Cost: 0.5, CO2: 0.5, DeliveryTime: 0.5, EthicalScore: 0.5}, true},
		{"negative weight", WeightSet{Cost: -0.3, CO2: 0.5, DeliveryTime: 0.5, EthicalScore: 0.3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWeightedPredictor_KnownScores(t *testing.T) {
	p := NewWeightedPredictor(DefaultWeights())

	// Neutral metrics with ethical 0.8: 0.5*0.3 + 0.5*0.2 + 0.5*0.2 + 0.8*0.3 = 0.59.
	high, err := p.Predict(FeatureVector{0.5, 0.5, 0.5, 0.8})
	require.NoError(t, err)
	assert.InDelta(t, 59.0, high, 1e-9)

	low, err := p.Predict(FeatureVector{0.5, 0.5, 0.5, 0.2})
	require.NoError(t, err)
	assert.InDelta(t, 41.0, low, 1e-9)
}

func TestWeightedPredictor_Deterministic(t *testing.T) {
	p := NewWeightedPredictor(DefaultWeights())
	f := FeatureVector{0.1, 0.9, 0.4, 0.6}

	first, err := p.Predict(f)
	require.NoError(t, err)
	second, err := p.Predict(f)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNoisyWeightedPredictor_ClipsToRange(t *testing.T) {
	p := NewNoisyWeightedPredictor(DefaultWeights(), 50, 1)

	for i := 0; i < 500; i++ {
		score, err := p.Predict(FeatureVector{1, 1, 1, 1})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	}
}

func TestNoisyWeightedPredictor_SeededRunsMatch(t *testing.T) {
	f := FeatureVector{0.5, 0.5, 0.5, 0.5}

	a, err := NewNoisyWeightedPredictor(DefaultWeights(), 5, 99).Predict(f)
	require.NoError(t, err)
	b, err := NewNoisyWeightedPredictor(DefaultWeights(), 5, 99).Predict(f)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
