package ranking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethicsupply/backend/internal/storage/models"
)

type failingPredictor struct{}

func (failingPredictor) Name() string { return "failing" }

func (failingPredictor) Predict(FeatureVector) (float64, error) {
	return 0, errors.New("inference exploded")
}

func newTestEngine() *Engine {
	return NewEngine(NewWeightedPredictor(DefaultWeights()), DefaultWeights())
}

func TestEngine_EmptyBatch(t *testing.T) {
	result, err := newTestEngine().Rank(context.Background(), nil, Options{})

	require.NoError(t, err)
	assert.Empty(t, result.Suppliers)
	assert.NotEmpty(t, result.BatchID)
}

func TestEngine_RejectsInvalidSupplier(t *testing.T) {
	tests := []struct {
		name     string
		supplier models.Supplier
		field    string
	}{
		{"negative cost", models.Supplier{Name: "x", Cost: -5, CO2: 1, DeliveryTime: 1}, "cost"},
		{"zero co2", models.Supplier{Name: "x", Cost: 1, CO2: 0, DeliveryTime: 1}, "co2"},
		{"negative delivery", models.Supplier{Name: "x", Cost: 1, CO2: 1, DeliveryTime: -1}, "delivery_time"},
		{"missing name", models.Supplier{Cost: 1, CO2: 1, DeliveryTime: 1}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestEngine().Rank(context.Background(), []models.Supplier{tt.supplier}, Options{})

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSupplierData)

			var invalid *InvalidSupplierError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestEngine_RejectsEthicalScoreOutOfRange(t *testing.T) {
	bad := 120.0
	_, err := newTestEngine().Rank(context.Background(), []models.Supplier{
		{Name: "x", Cost: 1, CO2: 1, DeliveryTime: 1, EthicalScore: &bad},
	}, Options{})

	assert.ErrorIs(t, err, ErrInvalidSupplierData)
}

func TestEngine_WorkedExample(t *testing.T) {
	eighty, twenty := 80.0, 20.0
	batch := []models.Supplier{
		{Name: "low-ethics", Cost: 300, CO2: 100, DeliveryTime: 5, EthicalScore: &twenty},
		{Name: "high-ethics", Cost: 300, CO2: 100, DeliveryTime: 5, EthicalScore: &eighty},
	}

	result, err := newTestEngine().Rank(context.Background(), batch, Options{TopK: 1})
	require.NoError(t, err)
	require.Len(t, result.Suppliers, 2)

	first, second := result.Suppliers[0], result.Suppliers[1]
	// Identical metrics normalize to 0.5 each, so the scores differ only in
	// the ethical term: 0.45 + 0.8*0.3 = 0.59 versus 0.45 + 0.2*0.3 = 0.41.
	assert.Equal(t, "high-ethics", first.Name)
	assert.InDelta(t, 59.0, first.PredictedScore, 1e-9)
	assert.True(t, first.Selected)

	assert.Equal(t, "low-ethics", second.Name)
	assert.InDelta(t, 41.0, second.PredictedScore, 1e-9)
	assert.False(t, second.Selected)
}

func TestEngine_ReportsPipelineStages(t *testing.T) {
	batch := []models.Supplier{
		supplier("a", 300, 150, 5),
		supplier("b", 700, 400, 20),
	}

	var stages []string
	_, err := newTestEngine().Rank(context.Background(), batch, Options{
		OnStage: func(stage string, count int) {
			assert.Equal(t, len(batch), count)
			stages = append(stages, stage)
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"normalized", "predicted"}, stages)
}

func TestEngine_StagesReportedOnFallback(t *testing.T) {
	engine := NewEngine(failingPredictor{}, DefaultWeights())

	var stages []string
	result, err := engine.Rank(context.Background(), []models.Supplier{supplier("a", 1, 1, 1)}, Options{
		OnStage: func(stage string, _ int) {
			stages = append(stages, stage)
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "weighted", result.Predictor)
	assert.Equal(t, []string{"normalized", "predicted"}, stages)
}

func TestEngine_SingleSupplierBatch(t *testing.T) {
	result, err := newTestEngine().Rank(context.Background(), []models.Supplier{
		{Name: "only", Cost: 500, CO2: 200, DeliveryTime: 10},
	}, Options{})

	require.NoError(t, err)
	require.Len(t, result.Suppliers, 1)

	only := result.Suppliers[0]
	assert.True(t, only.Selected)
	// All metrics neutral and the synthesized ethical score is 50, so the
	// weighted sum is 0.5 across the board.
	assert.InDelta(t, 50.0, only.PredictedScore, 1e-9)
	require.NotNil(t, only.EthicalScore)
	assert.InDelta(t, 50.0, *only.EthicalScore, 1e-9)
}

func TestEngine_ScoresWithinRange(t *testing.T) {
	batch := []models.Supplier{
		supplier("a", 100, 500, 1),
		supplier("b", 1000, 100, 30),
		supplier("c", 550, 300, 15),
	}

	result, err := newTestEngine().Rank(context.Background(), batch, Options{})
	require.NoError(t, err)

	for _, s := range result.Suppliers {
		assert.GreaterOrEqual(t, s.PredictedScore, 0.0)
		assert.LessOrEqual(t, s.PredictedScore, 100.0)
	}
}

func TestEngine_IdempotentOnRankedOutput(t *testing.T) {
	batch := []models.Supplier{
		supplier("a", 300, 150, 5),
		supplier("b", 700, 400, 20),
		supplier("c", 450, 250, 12),
		supplier("d", 900, 120, 3),
	}

	engine := newTestEngine()

	first, err := engine.Rank(context.Background(), batch, Options{})
	require.NoError(t, err)

	// Re-rank the ranked output: ethical scores are already synthesized and
	// persisted on the records, so order and scores must reproduce exactly.
	second, err := engine.Rank(context.Background(), first.Suppliers, Options{})
	require.NoError(t, err)

	require.Len(t, second.Suppliers, len(first.Suppliers))
	for i := range first.Suppliers {
		assert.Equal(t, first.Suppliers[i].Name, second.Suppliers[i].Name)
		assert.Equal(t, first.Suppliers[i].PredictedScore, second.Suppliers[i].PredictedScore)
		assert.Equal(t, first.Suppliers[i].Selected, second.Suppliers[i].Selected)
	}
}

func TestEngine_FallsBackWhenPredictorFails(t *testing.T) {
	engine := NewEngine(failingPredictor{}, DefaultWeights())

	result, err := engine.Rank(context.Background(), []models.Supplier{
		supplier("a", 300, 150, 5),
		supplier("b", 700, 400, 20),
	}, Options{})

	require.NoError(t, err)
	assert.Equal(t, "weighted", result.Predictor)
	for _, s := range result.Suppliers {
		assert.GreaterOrEqual(t, s.PredictedScore, 0.0)
		assert.LessOrEqual(t, s.PredictedScore, 100.0)
	}
}

func TestEngine_SampleModeStaysClipped(t *testing.T) {
	batch := []models.Supplier{
		supplier("a", 100, 100, 1),
		supplier("b", 1000, 500, 30),
	}

	result, err := newTestEngine().Rank(context.Background(), batch, Options{Sample: true, SampleSeed: 7})
	require.NoError(t, err)

	for _, s := range result.Suppliers {
		assert.GreaterOrEqual(t, s.PredictedScore, 0.0)
		assert.LessOrEqual(t, s.PredictedScore, 100.0)
	}
}

func TestEngine_DoesNotMutateInputBatch(t *testing.T) {
	batch := []models.Supplier{
		supplier("a", 300, 150, 5),
		supplier("b", 700, 400, 20),
	}

	_, err := newTestEngine().Rank(context.Background(), batch, Options{})
	require.NoError(t, err)

	assert.Nil(t, batch[0].EthicalScore)
	assert.Zero(t, batch[0].PredictedScore)
	assert.False(t, batch[0].Selected)
}

func TestEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine().Rank(ctx, []models.Supplier{supplier("a", 1, 1, 1)}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
