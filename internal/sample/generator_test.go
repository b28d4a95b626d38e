package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuppliers_CountAndRanges(t *testing.T) {
	suppliers := Suppliers(15, 42)
	require.Len(t, suppliers, 15)

	for _, s := range suppliers {
		assert.NotEmpty(t, s.Name)
		assert.GreaterOrEqual(t, s.Cost, minCost)
		assert.LessOrEqual(t, s.Cost, maxCost)
		assert.GreaterOrEqual(t, s.CO2, minCO2)
		assert.LessOrEqual(t, s.CO2, maxCO2)
		assert.GreaterOrEqual(t, s.DeliveryTime, minDelivery)
		assert.LessOrEqual(t, s.DeliveryTime, maxDelivery)
		require.NotNil(t, s.EthicalScore)
		assert.GreaterOrEqual(t, *s.EthicalScore, 0.0)
		assert.LessOrEqual(t, *s.EthicalScore, 100.0)
	}
}

func TestSuppliers_SeededReproducible(t *testing.T) {
	a := Suppliers(5, 7)
	b := Suppliers(5, 7)

	require.Len(t, b, 5)
	for i := range a {
		assert.Equal(t, a[i].Cost, b[i].Cost)
		assert.Equal(t, a[i].CO2, b[i].CO2)
	}
}

func TestSuppliers_UniqueNames(t *testing.T) {
	suppliers := Suppliers(20, 1)

	seen := map[string]bool{}
	for _, s := range suppliers {
		assert.False(t, seen[s.Name], "duplicate name %s", s.Name)
		seen[s.Name] = true
	}
}

func TestSuppliers_Empty(t *testing.T) {
	assert.Empty(t, Suppliers(0, 1))
}
