package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityArtifact passes the first input straight through: one linear
// layer whose single unit has weight 1 on input 0.
const identityArtifact = `{
	"inputs": 4,
	"layers": [
		{"weights": [[1, 0, 0, 0]], "biases": [0], "activation": "linear"}
	]
}`

const twoLayerArtifact = `{
	"inputs": 4,
	"layers": [
		{
			"weights": [[0.25, 0.25, 0.25, 0.25], [-1, -1, -1, -1]],
			"biases": [0, 0],
			"activation": "relu"
		},
		{"weights": [[1, 1]], "biases": [0.1], "activation": "linear"}
	]
}`

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "supplier_model.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidArtifact(t *testing.T) {
	n, err := Load(writeArtifact(t, identityArtifact))

	require.NoError(t, err)
	assert.Equal(t, 4, n.Inputs)
	assert.Len(t, n.Layers, 1)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoad_RejectsBadArtifacts(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{{{`},
		{"wrong input count", `{"inputs": 3, "layers": [{"weights": [[1,1,1]], "biases": [0], "activation": "linear"}]}`},
		{"no layers", `{"inputs": 4, "layers": []}`},
		{"weights biases mismatch", `{"inputs": 4, "layers": [{"weights": [[1,0,0,0]], "biases": [0, 0], "activation": "linear"}]}`},
		{"ragged weight row", `{"inputs": 4, "layers": [{"weights": [[1,0]], "biases": [0], "activation": "linear"}]}`},
		{"unknown activation", `{"inputs": 4, "layers": [{"weights": [[1,0,0,0]], "biases": [0], "activation": "tanh"}]}`},
		{"multi-unit output", `{"inputs": 4, "layers": [{"weights": [[1,0,0,0],[0,1,0,0]], "biases": [0,0], "activation": "linear"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeArtifact(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestInfer_Identity(t *testing.T) {
	n, err := Load(writeArtifact(t, identityArtifact))
	require.NoError(t, err)

	out, err := n.Infer([]float64{0.73, 0.1, 0.2, 0.3})
	require.NoError(t, err)
	assert.InDelta(t, 0.73, out, 1e-9)
}

func TestInfer_TwoLayerRelu(t *testing.T) {
	n, err := Load(writeArtifact(t, twoLayerArtifact))
	require.NoError(t, err)

	// Hidden unit 0: mean of inputs = 0.5 (relu keeps it).
	// Hidden unit 1: -2 clamped to 0 by relu.
	// Output: 0.5 + 0 + 0.1 bias = 0.6.
	out, err := n.Infer([]float64{0.5, 0.5, 0.5, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, out, 1e-9)
}

func TestInfer_WrongInputWidth(t *testing.T) {
	n, err := Load(writeArtifact(t, identityArtifact))
	require.NoError(t, err)

	_, err = n.Infer([]float64{1, 2})
	assert.Error(t, err)
}

func TestLoadCached_SharesOneInstance(t *testing.T) {
	path := writeArtifact(t, identityArtifact)

	first, err := LoadCached(path)
	require.NoError(t, err)
	second, err := LoadCached(path)
	require.NoError(t, err)

	assert.Same(t, first, second)
}
