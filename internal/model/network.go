// Package model loads and evaluates the trained supplier-scoring network.
// The artifact is a JSON dump of a small dense feed-forward regression
// (4 normalized features in, one value in [0,1] out) produced by the
// offline training pipeline.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/ethicsupply/backend/pkg/logger"
)

const expectedInputs = 4

type Layer struct {
	// Weights is row-major: Weights[i][j] connects input j to unit i.
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
	Activation string      `json:"activation"`
}

type Network struct {
	Inputs int     `json:"inputs"`
	Layers []Layer `json:"layers"`
}

// Load reads and validates a network artifact.
func Load(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var n Network
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact: %w", err)
	}

	if err := n.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}

	logger.Info("Trained model loaded",
		zap.String("path", path),
		zap.Int("layers", len(n.Layers)),
	)

	return &n, nil
}

var (
	cacheMu sync.Mutex
	cache   = map[string]*Network{}
)

// LoadCached returns a process-wide shared instance per artifact path, so
// concurrent ranking engines do not reload the file redundantly. The
// artifact is read-only at inference time.
func LoadCached(path string) (*Network, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if n, ok := cache[path]; ok {
		return n, nil
	}

	n, err := Load(path)
	if err != nil {
		return nil, err
	}
	cache[path] = n
	return n, nil
}

func (n *Network) validate() error {
	if n.Inputs != expectedInputs {
		return fmt.Errorf("expected %d inputs, artifact declares %d", expectedInputs, n.Inputs)
	}
	if len(n.Layers) == 0 {
		return fmt.Errorf("artifact has no layers")
	}

	width := n.Inputs
	for i, layer := range n.Layers {
		if len(layer.Weights) == 0 || len(layer.Weights) != len(layer.Biases) {
			return fmt.Errorf("layer %d: weight rows (%d) must match biases (%d)",
				i, len(layer.Weights), len(layer.Biases))
		}
		for _, row := range layer.Weights {
			if len(row) != width {
				return fmt.Errorf("layer %d: weight row has %d columns, expected %d",
					i, len(row), width)
			}
		}
		switch layer.Activation {
		case "relu", "sigmoid", "linear":
		default:
			return fmt.Errorf("layer %d: unknown activation %q", i, layer.Activation)
		}
		width = len(layer.Weights)
	}

	if width != 1 {
		return fmt.Errorf("output layer has %d units, expected 1", width)
	}

	return nil
}

// Infer runs the forward pass and returns the raw network output, expected
// to lie in (or near) [0,1]. Callers own the ×100 score scaling.
func (n *Network) Infer(inputs []float64) (float64, error) {
	if len(inputs) != n.Inputs {
		return 0, fmt.Errorf("expected %d inputs, got %d", n.Inputs, len(inputs))
	}

	values := inputs
	for _, layer := range n.Layers {
		next := make([]float64, len(layer.Weights))
		for i, row := range layer.Weights {
			sum := layer.Biases[i]
			for j, w := range row {
				sum += w * values[j]
			}
			next[i] = activate(layer.Activation, sum)
		}
		values = next
	}

	out := values[0]
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("model produced a non-finite output")
	}

	return out, nil
}

func activate(name string, x float64) float64 {
	switch name {
	case "relu":
		if x < 0 {
			return 0
		}
		return x
	case "sigmoid":
		return 1 / (1 + math.Exp(-x))
	default:
		return x
	}
}
