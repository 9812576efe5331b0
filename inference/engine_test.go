package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-pose/common"
	"github.com/nvr-ai/go-pose/inference/graph"
)

func TestInvoke(t *testing.T) {
	input := Vector([]float32{1})
	backendErr := errors.New("backend exploded")

	tests := []struct {
		name    string
		inf     Inferencer
		wantErr error
	}{
		{
			name: "success",
			inf: InferFunc(func(_ context.Context, in *tensor.Dense) (*tensor.Dense, error) {
				return in, nil
			}),
		},
		{
			name: "backend error",
			inf: InferFunc(func(context.Context, *tensor.Dense) (*tensor.Dense, error) {
				return nil, backendErr
			}),
			wantErr: backendErr,
		},
		{
			name: "nil output",
			inf: InferFunc(func(context.Context, *tensor.Dense) (*tensor.Dense, error) {
				return nil, nil
			}),
			wantErr: common.ErrInferenceFailure,
		},
		{
			name:    "nil inferencer",
			wantErr: common.ErrInferenceFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Invoke(context.Background(), tt.inf, input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInferenceFailure)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, out)
				return
			}
			require.NoError(t, err)
			assert.Same(t, input, out)
		})
	}
}

func TestEngineBuilder(t *testing.T) {
	stub := InferFunc(func(_ context.Context, in *tensor.Dense) (*tensor.Dense, error) { return in, nil })

	e, err := NewEngineBuilder().WithInferencer(stub).Build()
	require.NoError(t, err)
	assert.NoError(t, e.Close())

	_, err = NewEngineBuilder().Build()
	assert.Error(t, err, "an engine must be configured")

	_, err = NewEngineBuilder().WithInferencer(nil).Build()
	assert.Error(t, err)

	_, err = NewEngineBuilder().WithInferencer(stub).WithInferencer(stub).Build()
	assert.Error(t, err, "only one engine may be configured")

	assert.Panics(t, func() { NewEngineBuilder().MustBuild() })
}

func TestNewEngineGraph(t *testing.T) {
	e, err := NewEngine(EngineConfig{
		Type:  EngineGraph,
		Graph: graph.Config{InputSize: 2, OutputSize: 2, Bias: []float32{0.5, 1.5}},
	})
	require.NoError(t, err)
	defer e.Close()

	in, err := NewFloat32(make([]float32, 12), 1, 2, 2, 3)
	require.NoError(t, err)

	out, err := Invoke(context.Background(), e, in)
	require.NoError(t, err)
	data, err := Float32s(out)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.5, 1.5}, data, 1e-6)
}

func TestNewEngineUnsupported(t *testing.T) {
	_, err := NewEngine(EngineConfig{Type: "tflite"})
	assert.Error(t, err)
}

func TestFloat32s(t *testing.T) {
	_, err := Float32s(nil)
	assert.ErrorIs(t, err, common.ErrShapeMismatch)

	_, err = Float32s(tensor.New(tensor.WithShape(2), tensor.WithBacking([]float64{1, 2})))
	assert.ErrorIs(t, err, common.ErrShapeMismatch)

	data, err := Float32s(Vector([]float32{3, 4}))
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, data)
}

func TestNewFloat32(t *testing.T) {
	_, err := NewFloat32([]float32{1, 2, 3}, 1, 2)
	assert.ErrorIs(t, err, common.ErrShapeMismatch)

	d, err := NewFloat32([]float32{1, 2}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2}, d.Shape())
}
