package ranking

import (
	"sort"

	"github.com/ethicsupply/backend/internal/storage/models"
)

// DefaultTopK is how many suppliers a run flags as selected.
const DefaultTopK = 3

// RankSuppliers sorts the batch by predicted score, highest first, and
// flags the top k as selected. The sort is stable: suppliers with equal
// scores keep their input order. Batches smaller than k select everyone.
// A positive minEthicalScore excludes suppliers below the floor from
// selection; they remain in the output in rank order.
func RankSuppliers(suppliers []models.Supplier, k int, minEthicalScore float64) []models.Supplier {
	ranked := make([]models.Supplier, len(suppliers))
	copy(ranked, suppliers)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PredictedScore > ranked[j].PredictedScore
	})

	if k <= 0 {
		k = DefaultTopK
	}

	selected := 0
	for i := range ranked {
		ranked[i].Selected = false
		if selected >= k {
			continue
		}
		if minEthicalScore > 0 && ranked[i].EthicalScoreValue() < minEthicalScore {
			continue
		}
		ranked[i].Selected = true
		selected++
	}

	return ranked
}
