package ranking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ethicsupply/backend/internal/storage/models"
	"github.com/ethicsupply/backend/pkg/logger"
)

// sampleNoiseStd is the Gaussian noise applied to sample/demo scores.
const sampleNoiseStd = 5.0

// Engine runs the ranking pipeline: validate, normalize, synthesize missing
// ethical scores, predict, rank. It holds no state between batches; every
// call is independent and safe to run concurrently.
type Engine struct {
	predictor Predictor
	weights   WeightSet
}

type Options struct {
	// TopK is how many suppliers to flag selected; 0 means DefaultTopK.
	TopK int
	// MinEthicalScore excludes suppliers below the floor from selection
	// when positive.
	MinEthicalScore float64
	// Sample scores with the noisy weighted predictor to produce
	// illustrative data. Never set for real optimization runs.
	Sample bool
	// SampleSeed seeds the sample noise; 0 derives one from the clock.
	SampleSeed int64
	// OnStage, when set, is called with the stage name and batch size as
	// each pipeline stage finishes. Callbacks run on the caller's goroutine
	// and must be fast.
	OnStage func(stage string, count int)
}

type Result struct {
	BatchID   string
	Predictor string
	Suppliers []models.Supplier
	LatencyMS int
}

func NewEngine(predictor Predictor, weights WeightSet) *Engine {
	return &Engine{
		predictor: predictor,
		weights:   weights,
	}
}

// PredictorName reports which predictor the engine was configured with.
func (e *Engine) PredictorName() string {
	return e.predictor.Name()
}

// Rank scores and orders a batch. An empty batch returns an empty result,
// not an error. Invalid records reject the whole batch before normalization.
func (e *Engine) Rank(ctx context.Context, suppliers []models.Supplier, opts Options) (*Result, error) {
	startTime := time.Now()
	batchID := uuid.New().String()

	if err := ValidateBatch(suppliers); err != nil {
		return nil, err
	}

	if len(suppliers) == 0 {
		return &Result{
			BatchID:   batchID,
			Predictor: e.predictor.Name(),
			Suppliers: []models.Supplier{},
		}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	notify := opts.OnStage
	if notify == nil {
		notify = func(string, int) {}
	}

	batch := make([]models.Supplier, len(suppliers))
	copy(batch, suppliers)

	features := NormalizeMetrics(batch)
	SynthesizeEthical(batch, features)
	FillEthicalFeatures(batch, features)
	notify("normalized", len(batch))

	predictor := e.selectPredictor(opts)
	predictorName, err := e.scoreBatch(batch, features, predictor)
	if err != nil {
		return nil, err
	}
	notify("predicted", len(batch))

	ranked := RankSuppliers(batch, opts.TopK, opts.MinEthicalScore)
	latency := int(time.Since(startTime).Milliseconds())

	logger.Info("Batch ranked",
		zap.String("batch_id", batchID),
		zap.String("predictor", predictorName),
		zap.Int("num_suppliers", len(ranked)),
		zap.Int("latency_ms", latency),
	)

	return &Result{
		BatchID:   batchID,
		Predictor: predictorName,
		Suppliers: ranked,
		LatencyMS: latency,
	}, nil
}

func (e *Engine) selectPredictor(opts Options) Predictor {
	if !opts.Sample {
		return e.predictor
	}
	seed := opts.SampleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewNoisyWeightedPredictor(e.weights, sampleNoiseStd, seed)
}

// scoreBatch fills PredictedScore for every supplier. If the predictor
// fails partway through, the whole batch is rescored once with the
// deterministic weighted scorer so a broken model artifact never surfaces
// to the caller. This is the only retry in the pipeline.
func (e *Engine) scoreBatch(batch []models.Supplier, features []FeatureVector, predictor Predictor) (string, error) {
	err := applyScores(batch, features, predictor)
	if err == nil {
		return predictor.Name(), nil
	}

	logger.Warn("Predictor failed, rescoring with weighted predictor",
		zap.String("predictor", predictor.Name()),
		zap.Error(err),
	)

	fallback := NewWeightedPredictor(e.weights)
	if err := applyScores(batch, features, fallback); err != nil {
		return "", err
	}
	return fallback.Name(), nil
}

func applyScores(batch []models.Supplier, features []FeatureVector, predictor Predictor) error {
	for i := range batch {
		score, err := predictor.Predict(features[i])
		if err != nil {
			return err
		}
		batch[i].PredictedScore = score
	}
	return nil
}
