package ranking

import "github.com/ethicsupply/backend/internal/storage/models"

// Blend weights for deriving an ethical score from the other metrics.
const (
	ethicalCostWeight     = 0.3
	ethicalCO2Weight      = 0.4
	ethicalDeliveryWeight = 0.3
)

// SynthesizeEthical fills in ethical scores for suppliers that arrived
// without one, using a fixed blend of the already-normalized (inverted)
// cost, CO2, and delivery metrics. This is a fallback heuristic, not a
// certified ethics metric. Suppliers that carry a score pass through
// unchanged, so a re-run over persisted output is a no-op.
func SynthesizeEthical(suppliers []models.Supplier, features []FeatureVector) {
	for i := range suppliers {
		if suppliers[i].EthicalScore != nil {
			continue
		}
		f := features[i]
		score := (f[FeatureCost]*ethicalCostWeight +
			f[FeatureCO2]*ethicalCO2Weight +
			f[FeatureDelivery]*ethicalDeliveryWeight) * 100
		suppliers[i].EthicalScore = &score
	}
}
