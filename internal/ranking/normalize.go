package ranking

import "github.com/ethicsupply/backend/internal/storage/models"

// neutralValue is assigned when a metric carries no information within a
// batch (all values equal, or a batch of one).
const neutralValue = 0.5

// NormalizeMetrics maps each supplier's cost, CO2, and delivery time onto
// [0,1] scales where 1 is best. Bounds are batch-local: for each metric the
// batch min and max are computed, values are rescaled and inverted (lower
// raw cost/CO2/delivery is better). A metric with max == min yields the
// neutral 0.5 for every supplier, which also covers batches of size one.
// The ethical slot of each vector is left at zero; FillEthicalFeatures sets
// it once synthesis has run.
func NormalizeMetrics(suppliers []models.Supplier) []FeatureVector {
	features := make([]FeatureVector, len(suppliers))
	if len(suppliers) == 0 {
		return features
	}

	normalizeField(suppliers, features, FeatureCost, func(s models.Supplier) float64 { return s.Cost })
	normalizeField(suppliers, features, FeatureCO2, func(s models.Supplier) float64 { return s.CO2 })
	normalizeField(suppliers, features, FeatureDelivery, func(s models.Supplier) float64 { return s.DeliveryTime })

	return features
}

func normalizeField(suppliers []models.Supplier, features []FeatureVector, idx int, value func(models.Supplier) float64) {
	min, max := value(suppliers[0]), value(suppliers[0])
	for _, s := range suppliers[1:] {
		v := value(s)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if max == min {
		for i := range features {
			features[i][idx] = neutralValue
		}
		return
	}

	for i, s := range suppliers {
		features[i][idx] = 1 - (value(s)-min)/(max-min)
	}
}

// FillEthicalFeatures copies each supplier's ethical score, rescaled from
// [0,100] to [0,1], into the ethical slot. Ethical scores are already
// oriented higher-is-better, so there is no inversion.
func FillEthicalFeatures(suppliers []models.Supplier, features []FeatureVector) {
	for i, s := range suppliers {
		features[i][FeatureEthical] = s.EthicalScoreValue() / 100
	}
}
