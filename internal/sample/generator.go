// Package sample produces illustrative supplier batches for demos and
// manual testing. Sample batches are the only place noisy scoring is
// appropriate.
package sample

import (
	"fmt"
	"math/rand"

	"github.com/ethicsupply/backend/internal/storage/models"
)

// Metric ranges for generated suppliers.
const (
	minCost, maxCost         = 100.0, 1000.0
	minCO2, maxCO2           = 100.0, 500.0
	minDelivery, maxDelivery = 1.0, 30.0
)

// Suppliers generates count random suppliers. Ethical scores are always
// populated so sample batches never exercise the synthesizer. A zero seed
// leaves the generator unseeded (non-reproducible), matching ad-hoc demo
// use; tests pass an explicit seed.
func Suppliers(count int, seed int64) []models.Supplier {
	rng := rand.New(rand.NewSource(seed))
	if seed == 0 {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	suppliers := make([]models.Supplier, count)
	for i := range suppliers {
		ethical := rng.Float64() * 100
		suppliers[i] = models.Supplier{
			Name:         fmt.Sprintf("Supplier_%04d", i+1),
			Cost:         uniform(rng, minCost, maxCost),
			CO2:          uniform(rng, minCO2, maxCO2),
			DeliveryTime: uniform(rng, minDelivery, maxDelivery),
			EthicalScore: &ethical,
		}
	}

	return suppliers
}

func uniform(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}
