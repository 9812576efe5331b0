// Package model - Configuration of the pose landmark network and the stages around it.
package model

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-pose/common"
	"github.com/nvr-ai/go-pose/images"
)

// Name is the unique identifier of a model preset.
type Name string

const (
	// ModelNamePoseUpperBody is the 31 landmark upper-body pose network.
	ModelNamePoseUpperBody Name = "pose_upper_body"
)

// Activation is the function applied to a raw network score.
type Activation string

const (
	// ActivationNone clamps the raw value to [0, 1].
	ActivationNone Activation = "none"
	// ActivationSigmoid is the logistic function 1 / (1 + e^-x).
	ActivationSigmoid Activation = "sigmoid"
)

// Range is a half-open [Begin, End) range of output blocks.
type Range struct {
	Begin int `json:"begin" yaml:"begin" validate:"gte=0"`
	End   int `json:"end" yaml:"end" validate:"gtfield=Begin"`
}

// Len returns the number of blocks in the range.
func (r Range) Len() int {
	return r.End - r.Begin
}

// Config holds every constant of the pose pipeline.
type Config struct {
	// Name identifies the preset the config was built from.
	Name Name `json:"name" yaml:"name"`

	// InputSize is the side of the square network input, in pixels.
	InputSize int `json:"input_size" yaml:"input_size" validate:"gt=0"`
	// Border is how the ROI crop samples outside the frame.
	Border images.BorderMode `json:"border" yaml:"border" validate:"omitempty,oneof=replicate zero"`
	// Interpolation is the letterbox scaler.
	Interpolation images.Interpolation `json:"interpolation" yaml:"interpolation" validate:"omitempty,oneof=bilinear lanczos catmullrom"`
	// ZeroCenter maps input channels to [-1, 1] instead of [0, 1].
	ZeroCenter bool `json:"zero_center" yaml:"zero_center"`

	// NumLandmarks is the number of points the network emits.
	NumLandmarks int `json:"num_landmarks" yaml:"num_landmarks" validate:"gt=0"`
	// LandmarkChannels is the number of values per point: x, y, z and optionally visibility and
	// presence.
	LandmarkChannels int `json:"landmark_channels" yaml:"landmark_channels" validate:"gte=3,lte=5"`

	// OutputBlocks are the sizes of the blocks concatenated in the combined network output.
	OutputBlocks []int `json:"output_blocks" yaml:"output_blocks" validate:"required,min=2,dive,gt=0"`
	// LandmarkRange selects the landmark blocks.
	LandmarkRange Range `json:"landmark_range" yaml:"landmark_range"`
	// FlagRange selects the presence flag block.
	FlagRange Range `json:"flag_range" yaml:"flag_range"`

	// PresenceThreshold is the score a pose must exceed to be reported.
	PresenceThreshold float32 `json:"presence_threshold" yaml:"presence_threshold" validate:"gte=0,lte=1"`
	// PresenceActivation maps the raw flag value to a score.
	PresenceActivation Activation `json:"presence_activation" yaml:"presence_activation" validate:"oneof=none sigmoid"`
	// VisibilityActivation maps the raw visibility channel.
	VisibilityActivation Activation `json:"visibility_activation" yaml:"visibility_activation" validate:"oneof=none sigmoid"`
	// LandmarkPresenceActivation maps the raw per-point presence channel.
	LandmarkPresenceActivation Activation `json:"landmark_presence_activation" yaml:"landmark_presence_activation" validate:"oneof=none sigmoid"`

	// NormalizeZ divides the decoded depth after scaling by the input width.
	NormalizeZ float32 `json:"normalize_z" yaml:"normalize_z" validate:"gt=0"`
	// FlipHorizontally mirrors decoded x.
	FlipHorizontally bool `json:"flip_horizontally" yaml:"flip_horizontally"`
	// FlipVertically mirrors decoded y.
	FlipVertically bool `json:"flip_vertically" yaml:"flip_vertically"`
	// IgnoreRotation projects landmarks as if the ROI were axis aligned.
	IgnoreRotation bool `json:"ignore_rotation" yaml:"ignore_rotation"`
}

// DefaultConfig returns the upper-body pose configuration: a 256x256 input, 31 landmarks with
// x, y, z and visibility, and one sigmoid presence flag thresholded at 0.5.
func DefaultConfig() Config {
	const (
		landmarks = 31
		channels  = 4
	)
	return Config{
		Name:                       ModelNamePoseUpperBody,
		InputSize:                  256,
		Border:                     images.BorderReplicate,
		Interpolation:              images.InterpolationBilinear,
		NumLandmarks:               landmarks,
		LandmarkChannels:           channels,
		OutputBlocks:               []int{landmarks * channels, 1},
		LandmarkRange:              Range{Begin: 0, End: 1},
		FlagRange:                  Range{Begin: 1, End: 2},
		PresenceThreshold:          0.5,
		PresenceActivation:         ActivationSigmoid,
		VisibilityActivation:       ActivationSigmoid,
		LandmarkPresenceActivation: ActivationSigmoid,
		NormalizeZ:                 1,
	}
}

var validate = validator.New()

// Validate checks the struct tags and the cross-field constraints between blocks and ranges.
//
// Returns:
//   - error: common.ErrInvalidConfig wrapped with the first problem found.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(common.ErrInvalidConfig, err.Error())
	}
	for name, r := range map[string]Range{"landmark_range": c.LandmarkRange, "flag_range": c.FlagRange} {
		if r.Begin < 0 || r.End > len(c.OutputBlocks) || r.Len() <= 0 {
			return errors.Wrapf(common.ErrInvalidConfig, "%s %+v outside %d output blocks",
				name, r, len(c.OutputBlocks))
		}
	}
	if c.LandmarkRange.Begin < c.FlagRange.End && c.FlagRange.Begin < c.LandmarkRange.End {
		return errors.Wrap(common.ErrInvalidConfig, "landmark_range and flag_range overlap")
	}
	if got, want := c.BlockSize(c.LandmarkRange), c.NumLandmarks*c.LandmarkChannels; got != want {
		return errors.Wrapf(common.ErrInvalidConfig, "landmark blocks hold %d values, want %d x %d",
			got, c.NumLandmarks, c.LandmarkChannels)
	}
	if got := c.BlockSize(c.FlagRange); got != 1 {
		return errors.Wrapf(common.ErrInvalidConfig, "flag blocks hold %d values, want 1", got)
	}
	return nil
}

// BlockSize returns the number of values in the blocks selected by r. Out of range blocks count
// as zero.
func (c Config) BlockSize(r Range) int {
	total := 0
	for i := r.Begin; i < r.End; i++ {
		if i >= 0 && i < len(c.OutputBlocks) {
			total += c.OutputBlocks[i]
		}
	}
	return total
}

// OutputSize returns the total number of values in the combined network output.
func (c Config) OutputSize() int {
	return c.BlockSize(Range{Begin: 0, End: len(c.OutputBlocks)})
}

// BlockOffset returns the index of the first value of block i in the combined output.
func (c Config) BlockOffset(i int) int {
	return c.BlockSize(Range{Begin: 0, End: i})
}
