package ranking

import "math/rand"

// WeightedPredictor is the deterministic scorer: a fixed weighted sum of
// the normalized features, scaled to [0,100]. It needs no trained artifact
// and is always available.
type WeightedPredictor struct {
	weights  WeightSet
	noiseStd float64
	rng      *rand.Rand
}

func NewWeightedPredictor(weights WeightSet) *WeightedPredictor {
	return &WeightedPredictor{weights: weights}
}

// NewNoisyWeightedPredictor perturbs each score with Gaussian noise
// (mean 0, the given std). Only sample/demo batches use this variant;
// real optimization runs must stay reproducible.
func NewNoisyWeightedPredictor(weights WeightSet, noiseStd float64, seed int64) *WeightedPredictor {
	return &WeightedPredictor{
		weights:  weights,
		noiseStd: noiseStd,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (p *WeightedPredictor) Name() string {
	return "weighted"
}

func (p *WeightedPredictor) Predict(features FeatureVector) (float64, error) {
	score := (features[FeatureCost]*p.weights.Cost +
		features[FeatureCO2]*p.weights.CO2 +
		features[FeatureDelivery]*p.weights.DeliveryTime +
		features[FeatureEthical]*p.weights.EthicalScore) * 100

	if p.noiseStd > 0 && p.rng != nil {
		score += p.rng.NormFloat64() * p.noiseStd
	}

	return clipScore(score), nil
}

func clipScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
