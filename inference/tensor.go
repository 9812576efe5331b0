package inference

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-pose/common"
)

// Float32s returns the float32 backing data of t.
//
// Returns:
//   - []float32: The flat, row-major values.
//   - error: common.ErrShapeMismatch if t is nil or not float32.
func Float32s(t *tensor.Dense) ([]float32, error) {
	if t == nil {
		return nil, errors.Wrap(common.ErrShapeMismatch, "tensor is nil")
	}
	switch data := t.Data().(type) {
	case []float32:
		return data, nil
	case float32:
		return []float32{data}, nil
	default:
		return nil, errors.Wrapf(common.ErrShapeMismatch, "tensor dtype %v is not float32", t.Dtype())
	}
}

// NewFloat32 wraps data in a tensor of the given shape.
//
// Returns:
//   - *tensor.Dense: The tensor backed by data.
//   - error: common.ErrShapeMismatch if len(data) differs from the shape's size.
func NewFloat32(data []float32, shape ...int) (*tensor.Dense, error) {
	if tensor.Shape(shape).TotalSize() != len(data) {
		return nil, errors.Wrapf(common.ErrShapeMismatch, "%d values do not fill shape %v", len(data), shape)
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data)), nil
}

// Vector wraps data in the [1, 1, 1, n] layout used for flat network outputs.
func Vector(data []float32) *tensor.Dense {
	return tensor.New(tensor.WithShape(1, 1, 1, len(data)), tensor.WithBacking(data))
}
