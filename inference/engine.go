package inference

import (
	"context"
	"errors"
	"fmt"

	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-pose/common"
	"github.com/nvr-ai/go-pose/inference/graph"
	"github.com/nvr-ai/go-pose/inference/providers"
)

// Inferencer is the opaque network: one input tensor in, one combined output tensor out.
type Inferencer interface {
	Infer(ctx context.Context, input *tensor.Dense) (*tensor.Dense, error)
}

// InferFunc adapts a plain function to the Inferencer interface.
type InferFunc func(ctx context.Context, input *tensor.Dense) (*tensor.Dense, error)

// Infer calls f.
func (f InferFunc) Infer(ctx context.Context, input *tensor.Dense) (*tensor.Dense, error) {
	return f(ctx, input)
}

// Invoke calls the network. Every failure, including a missing output, is reported as
// common.ErrInferenceFailure with the backend error attached.
//
// Arguments:
//   - ctx: The context for the call.
//   - inf: The network.
//   - input: The encoded input tensor.
//
// Returns:
//   - *tensor.Dense: The combined output tensor.
//   - error: An error wrapping common.ErrInferenceFailure.
func Invoke(ctx context.Context, inf Inferencer, input *tensor.Dense) (*tensor.Dense, error) {
	if inf == nil {
		return nil, fmt.Errorf("%w: no inferencer configured", common.ErrInferenceFailure)
	}
	out, err := inf.Infer(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInferenceFailure, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: network returned no output", common.ErrInferenceFailure)
	}
	return out, nil
}

// Engine is an Inferencer that owns native or graph resources.
type Engine interface {
	Inferencer
	Close() error
}

// EngineConfig selects and configures an engine.
type EngineConfig struct {
	Type  EngineType       `json:"type" yaml:"type" validate:"required,oneof=onnx graph"`
	ONNX  providers.Config `json:"onnx" yaml:"onnx" validate:"-"`
	Graph graph.Config     `json:"graph" yaml:"graph" validate:"-"`
}

// EngineBuilder helps build engines with a fluent API.
type EngineBuilder struct {
	engine Engine
	err    error
}

// NewEngineBuilder creates a new engine builder.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{}
}

// WithONNX creates an onnxruntime session for the engine.
//
// Arguments:
//   - cfg: The session configuration.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func (b *EngineBuilder) WithONNX(cfg providers.Config) *EngineBuilder {
	if b.HasError() {
		return b
	}
	session, err := providers.NewSession(cfg)
	if err != nil {
		b.err = err
		return b
	}
	b.set(session)
	return b
}

// WithGraph compiles a gorgonia head for the engine.
//
// Arguments:
//   - cfg: The head configuration.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func (b *EngineBuilder) WithGraph(cfg graph.Config) *EngineBuilder {
	if b.HasError() {
		return b
	}
	head, err := graph.NewHead(cfg)
	if err != nil {
		b.err = err
		return b
	}
	b.set(head)
	return b
}

// WithInferencer wraps an Inferencer that owns no resources.
func (b *EngineBuilder) WithInferencer(inf Inferencer) *EngineBuilder {
	if b.HasError() {
		return b
	}
	if inf == nil {
		b.err = errors.New("inferencer is nil")
		return b
	}
	b.set(nopCloser{inf})
	return b
}

func (b *EngineBuilder) set(e Engine) {
	if b.engine != nil {
		b.engine.Close()
		b.err = errors.New("engine already configured")
		e.Close()
		return
	}
	b.engine = e
}

// HasError checks if the engine builder has errors.
//
// Returns:
//   - bool: True if there are errors, false otherwise.
func (b *EngineBuilder) HasError() bool {
	return b.err != nil
}

// Build builds the engine.
//
// Returns:
//   - Engine: The engine.
//   - error: The error if any.
func (b *EngineBuilder) Build() (Engine, error) {
	if b.HasError() {
		return nil, b.err
	}
	if b.engine == nil {
		return nil, errors.New("engine not configured")
	}
	return b.engine, nil
}

// MustBuild builds the engine and panics if there is an error.
func (b *EngineBuilder) MustBuild() Engine {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}

// NewEngine builds the engine selected by cfg.Type.
func NewEngine(cfg EngineConfig) (Engine, error) {
	b := NewEngineBuilder()
	switch cfg.Type {
	case EngineONNX:
		b.WithONNX(cfg.ONNX)
	case EngineGraph:
		b.WithGraph(cfg.Graph)
	default:
		return nil, fmt.Errorf("unsupported engine type: %q", cfg.Type)
	}
	return b.Build()
}

type nopCloser struct {
	Inferencer
}

func (nopCloser) Close() error { return nil }
