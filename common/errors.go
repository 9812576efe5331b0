// Package common - Errors shared by every pipeline stage.
package common

import "github.com/pkg/errors"

var (
	// ErrInvalidRoi is returned when a region of interest has a non-positive width or height.
	ErrInvalidRoi = errors.New("invalid roi")

	// ErrShapeMismatch is returned when a tensor or image does not have the shape a stage
	// expects at its boundary.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInferenceFailure is returned when the network call fails or yields no output.
	ErrInferenceFailure = errors.New("inference failure")

	// ErrInvalidConfig is returned when a pipeline configuration fails validation.
	ErrInvalidConfig = errors.New("invalid config")
)
