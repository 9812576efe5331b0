package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func filled(size int, rgb [3]float32) *tensor.Dense {
	data := make([]float32, size*size*3)
	for i := 0; i < len(data); i += 3 {
		data[i], data[i+1], data[i+2] = rgb[0], rgb[1], rgb[2]
	}
	return tensor.New(tensor.WithShape(1, size, size, 3), tensor.WithBacking(data))
}

func TestHeadReturnsBiasForZeroWeights(t *testing.T) {
	head, err := NewHead(Config{InputSize: 4, OutputSize: 3, Bias: []float32{1, 2, 3}})
	require.NoError(t, err)
	defer head.Close()

	out, err := head.Infer(context.Background(), filled(4, [3]float32{0.2, 0.4, 0.6}))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1, 1, 3}, out.Shape())
	assert.InDeltaSlice(t, []float32{1, 2, 3}, out.Data().([]float32), 1e-6)
}

func TestHeadProjectsMeanColor(t *testing.T) {
	head, err := NewHead(Config{
		InputSize:  2,
		OutputSize: 2,
		// out[0] = r, out[1] = g + b
		Weights: []float32{
			1, 0,
			0, 1,
			0, 1,
		},
	})
	require.NoError(t, err)
	defer head.Close()

	for run := 0; run < 2; run++ {
		out, err := head.Infer(context.Background(), filled(2, [3]float32{0.5, 0.25, 0.125}))
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float32{0.5, 0.375}, out.Data().([]float32), 1e-6, "run %d", run)
	}
}

func TestHeadRejectsWrongShape(t *testing.T) {
	head, err := NewHead(Config{InputSize: 4, OutputSize: 1})
	require.NoError(t, err)
	defer head.Close()

	_, err = head.Infer(context.Background(), filled(2, [3]float32{}))
	assert.Error(t, err)
}

func TestNewHeadValidatesParameters(t *testing.T) {
	_, err := NewHead(Config{InputSize: 0, OutputSize: 1})
	assert.Error(t, err)
	_, err = NewHead(Config{InputSize: 2, OutputSize: 2, Weights: []float32{1}})
	assert.Error(t, err)
	_, err = NewHead(Config{InputSize: 2, OutputSize: 2, Bias: []float32{1}})
	assert.Error(t, err)
}

func TestHeadHonoursContext(t *testing.T) {
	head, err := NewHead(Config{InputSize: 2, OutputSize: 1})
	require.NoError(t, err)
	defer head.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = head.Infer(ctx, filled(2, [3]float32{}))
	assert.ErrorIs(t, err, context.Canceled)
}
