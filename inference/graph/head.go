// Package graph - An in-process gorgonia network head usable wherever the pose network is
// expected. It pools the input image to its mean color and projects that through a dense
// layer, which makes its output a known function of the input.
package graph

import (
	"context"
	"fmt"
	"sync"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Config describes the head's layer sizes and parameters.
type Config struct {
	// InputSize is the side of the square [1, InputSize, InputSize, 3] input.
	InputSize int `json:"input_size" yaml:"input_size" validate:"gt=0"`
	// OutputSize is the length of the flat output.
	OutputSize int `json:"output_size" yaml:"output_size" validate:"gt=0"`
	// Weights is the row-major [3, OutputSize] projection. Nil means zeros.
	Weights []float32 `json:"weights" yaml:"weights"`
	// Bias is the [OutputSize] offset. Nil means zeros.
	Bias []float32 `json:"bias" yaml:"bias"`
}

// Head is a compiled gorgonia graph. Runs are serialised on one tape machine.
type Head struct {
	mu     sync.Mutex
	cfg    Config
	input  *G.Node
	output *G.Node
	vm     G.VM
}

// NewHead builds and compiles the graph.
//
// Arguments:
//   - cfg: The layer sizes and parameters.
//
// Returns:
//   - *Head: The compiled head, to be released with Close.
//   - error: An error if sizes or parameter lengths are invalid or the graph fails to build.
func NewHead(cfg Config) (*Head, error) {
	if cfg.InputSize <= 0 || cfg.OutputSize <= 0 {
		return nil, fmt.Errorf("invalid head sizes: input=%d output=%d", cfg.InputSize, cfg.OutputSize)
	}
	weights := cfg.Weights
	if weights == nil {
		weights = make([]float32, 3*cfg.OutputSize)
	}
	bias := cfg.Bias
	if bias == nil {
		bias = make([]float32, cfg.OutputSize)
	}
	if len(weights) != 3*cfg.OutputSize {
		return nil, fmt.Errorf("weights have %d values, want %d", len(weights), 3*cfg.OutputSize)
	}
	if len(bias) != cfg.OutputSize {
		return nil, fmt.Errorf("bias has %d values, want %d", len(bias), cfg.OutputSize)
	}

	n := cfg.InputSize
	g := G.NewGraph()
	input := G.NewTensor(g, tensor.Float32, 4, G.WithShape(1, n, n, 3), G.WithName("input"))

	pixels, err := G.Reshape(input, tensor.Shape{n * n, 3})
	if err != nil {
		return nil, fmt.Errorf("can't reshape input: %w", err)
	}
	mean, err := G.Mean(pixels, 0)
	if err != nil {
		return nil, fmt.Errorf("can't pool input: %w", err)
	}
	row, err := G.Reshape(mean, tensor.Shape{1, 3})
	if err != nil {
		return nil, fmt.Errorf("can't reshape pooled input: %w", err)
	}

	w := G.NewMatrix(g, tensor.Float32, G.WithShape(3, cfg.OutputSize), G.WithName("weights"),
		G.WithValue(tensor.New(tensor.WithShape(3, cfg.OutputSize), tensor.WithBacking(copyOf(weights)))))
	b := G.NewMatrix(g, tensor.Float32, G.WithShape(1, cfg.OutputSize), G.WithName("bias"),
		G.WithValue(tensor.New(tensor.WithShape(1, cfg.OutputSize), tensor.WithBacking(copyOf(bias)))))

	projected, err := G.Mul(row, w)
	if err != nil {
		return nil, fmt.Errorf("can't project pooled input: %w", err)
	}
	output, err := G.Add(projected, b)
	if err != nil {
		return nil, fmt.Errorf("can't add bias: %w", err)
	}

	return &Head{
		cfg:    cfg,
		input:  input,
		output: output,
		vm:     G.NewTapeMachine(g),
	}, nil
}

// Infer runs the graph on a [1, InputSize, InputSize, 3] tensor and returns a
// [1, 1, 1, OutputSize] tensor.
func (h *Head) Infer(ctx context.Context, input *tensor.Dense) (*tensor.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := tensor.Shape{1, h.cfg.InputSize, h.cfg.InputSize, 3}
	if input == nil || !input.Shape().Eq(want) {
		return nil, fmt.Errorf("head input must have shape %v", want)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	defer h.vm.Reset()

	if err := G.Let(h.input, input); err != nil {
		return nil, fmt.Errorf("can't bind input: %w", err)
	}
	if err := h.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("can't run tape machine: %w", err)
	}

	data, ok := h.output.Value().Data().([]float32)
	if !ok {
		return nil, fmt.Errorf("head output is not float32")
	}
	out := copyOf(data)
	return tensor.New(tensor.WithShape(1, 1, 1, len(out)), tensor.WithBacking(out)), nil
}

// Close releases the tape machine.
func (h *Head) Close() error {
	return h.vm.Close()
}

func copyOf(data []float32) []float32 {
	out := make([]float32, len(data))
	copy(out, data)
	return out
}
