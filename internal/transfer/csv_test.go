package transfer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethicsupply/backend/internal/storage/models"
)

func TestDecodeSuppliers_FullSchema(t *testing.T) {
	input := strings.Join([]string{
		"name,cost,co2,delivery_time,ethical_score",
		"Acme,300,100,5,80",
		"Globex,450.5,210,9,",
	}, "\n")

	suppliers, err := DecodeSuppliers(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, suppliers, 2)

	assert.Equal(t, "Acme", suppliers[0].Name)
	assert.Equal(t, 300.0, suppliers[0].Cost)
	require.NotNil(t, suppliers[0].EthicalScore)
	assert.Equal(t, 80.0, *suppliers[0].EthicalScore)

	// Empty ethical cell means the score gets synthesized later.
	assert.Equal(t, 450.5, suppliers[1].Cost)
	assert.Nil(t, suppliers[1].EthicalScore)
}

func TestDecodeSuppliers_WithoutEthicalColumn(t *testing.T) {
	input := "name,cost,co2,delivery_time\nAcme,300,100,5\n"

	suppliers, err := DecodeSuppliers(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Nil(t, suppliers[0].EthicalScore)
}

func TestDecodeSuppliers_ReorderedColumns(t *testing.T) {
	input := "cost,delivery_time,name,co2\n300,5,Acme,100\n"

	suppliers, err := DecodeSuppliers(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Equal(t, "Acme", suppliers[0].Name)
	assert.Equal(t, 100.0, suppliers[0].CO2)
	assert.Equal(t, 5.0, suppliers[0].DeliveryTime)
}

func TestDecodeSuppliers_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"missing column", "name,cost,co2\nAcme,300,100\n"},
		{"non-numeric cost", "name,cost,co2,delivery_time\nAcme,cheap,100,5\n"},
		{"blank name", "name,cost,co2,delivery_time\n ,300,100,5\n"},
		{"bad ethical score", "name,cost,co2,delivery_time,ethical_score\nAcme,300,100,5,high\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSuppliers(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestEncodeResults(t *testing.T) {
	results := []models.OptimizationResult{
		{Name: "Acme", Cost: 300, CO2: 100, DeliveryTime: 5, EthicalScore: 80, PredictedScore: 74, Selected: true},
		{Name: "Globex", Cost: 450.5, CO2: 210, DeliveryTime: 9, EthicalScore: 60, PredictedScore: 56.25, Selected: false},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeResults(&buf, results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,cost,co2,delivery_time,ethical_score,predicted_score,selected", lines[0])
	assert.Equal(t, "Acme,300,100,5,80,74,1", lines[1])
	assert.Equal(t, "Globex,450.5,210,9,60,56.25,0", lines[2])
}

func TestDecodeEncode_ImportedBatchSurvives(t *testing.T) {
	input := "name,cost,co2,delivery_time,ethical_score\nAcme,300,100,5,80\n"

	suppliers, err := DecodeSuppliers(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Equal(t, "Acme", suppliers[0].Name)
}
