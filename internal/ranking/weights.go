package ranking

import (
	"fmt"
	"math"
)

// Feature indices within a FeatureVector.
const (
	FeatureCost = iota
	FeatureCO2
	FeatureDelivery
	FeatureEthical
	NumFeatures
)

// FeatureVector holds one supplier's normalized metrics, each in [0,1]
// with 1 meaning best.
type FeatureVector [NumFeatures]float64

// WeightSet defines the relative importance of each ranking factor.
// Weights must sum to 1.0 (±0.001 tolerance).
type WeightSet struct {
	Cost         float64
	CO2          float64
	DeliveryTime float64
	EthicalScore float64
}

// DefaultWeights returns the standard weight distribution.
func DefaultWeights() WeightSet {
	return WeightSet{
		Cost:         0.30,
		CO2:          0.20,
		DeliveryTime: 0.20,
		EthicalScore: 0.30,
	}
}

func (w WeightSet) Sum() float64 {
	return w.Cost + w.CO2 + w.DeliveryTime + w.EthicalScore
}

func (w WeightSet) Validate() error {
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return fmt.Errorf("weights sum to %.4f, must sum to 1.0", w.Sum())
	}
	for _, v := range []float64{w.Cost, w.CO2, w.DeliveryTime, w.EthicalScore} {
		if v < 0 {
			return fmt.Errorf("negative weight: %f", v)
		}
	}
	return nil
}
