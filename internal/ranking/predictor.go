package ranking

import (
	"go.uber.org/zap"

	"github.com/ethicsupply/backend/internal/model"
	"github.com/ethicsupply/backend/pkg/logger"
)

// Predictor produces a 0-100 score from one supplier's normalized features.
// The deterministic weighted scorer and the trained network both satisfy it.
type Predictor interface {
	Name() string
	Predict(features FeatureVector) (float64, error)
}

// TrainedPredictor scores with a trained regression artifact. The network
// outputs [0,1]; scores are scaled to [0,100] and clipped.
type TrainedPredictor struct {
	network *model.Network
}

func NewTrainedPredictor(network *model.Network) *TrainedPredictor {
	return &TrainedPredictor{network: network}
}

func (p *TrainedPredictor) Name() string {
	return "trained"
}

func (p *TrainedPredictor) Predict(features FeatureVector) (float64, error) {
	out, err := p.network.Infer(features[:])
	if err != nil {
		return 0, err
	}
	return clipScore(out * 100), nil
}

// NewPredictor selects the trained model when its artifact loads, and falls
// back to the deterministic weighted scorer otherwise. A missing or corrupt
// artifact is logged but never aborts ranking.
func NewPredictor(modelPath string, weights WeightSet) Predictor {
	if modelPath != "" {
		network, err := model.LoadCached(modelPath)
		if err == nil {
			logger.Info("Using trained predictor", zap.String("model_path", modelPath))
			return NewTrainedPredictor(network)
		}
		logger.Warn("Trained model unavailable, falling back to weighted predictor",
			zap.String("model_path", modelPath),
			zap.Error(err),
		)
	}
	return NewWeightedPredictor(weights)
}
