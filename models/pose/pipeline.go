package pose

import (
	"context"
	"image"
	"image/color"

	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/logger"
	"github.com/nvr-ai/go-pose/models/model"
)

// Result is the outcome of one (image, ROI) pair.
type Result struct {
	// Presence is the gate decision. It is always set once the network ran.
	Presence Presence
	// Padding is the letterbox padding used for the crop.
	Padding images.LetterboxPadding

	landmarks LandmarkList
}

// Landmarks returns the frame-space landmarks and true, or nil and false when no pose was
// detected. An absent pose is not an error.
func (r Result) Landmarks() (LandmarkList, bool) {
	if !r.Presence.Present {
		return nil, false
	}
	return r.landmarks, true
}

// Pipeline runs the crop, letterbox, encode, infer, split, gate, decode, un-letterbox and
// project stages for one pair at a time. It holds no per-pair state and is safe for concurrent
// use when its Inferencer is.
type Pipeline struct {
	cfg  model.Config
	inf  inference.Inferencer
	log  logrus.FieldLogger
	fill color.Color
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger stages report to.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithFill sets the letterbox fill color.
func WithFill(c color.Color) Option {
	return func(p *Pipeline) {
		p.fill = c
	}
}

// NewPipeline validates cfg and returns a pipeline around inf.
//
// Arguments:
//   - cfg: The pipeline constants.
//   - inf: The network.
//   - opts: Optional settings.
//
// Returns:
//   - *Pipeline: The pipeline.
//   - error: An error if cfg is invalid.
func NewPipeline(cfg model.Config, inf inference.Inferencer, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{cfg: cfg, inf: inf, log: logger.Discard()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the pipeline constants.
func (p *Pipeline) Config() model.Config {
	return p.cfg
}

// Process computes the frame-space landmarks of the pose inside roi.
//
// Order of operations:
//  1. ROI validation and crop with border replication.
//  2. Aspect-preserving resize into the square input, recording the padding.
//  3. Tensor encoding and the network call.
//  4. Output split and presence gate; an absent pose returns here without landmarks.
//  5. Landmark decoding, letterbox removal and projection into the frame.
//
// Arguments:
//   - ctx: The context for the network call.
//   - img: The full frame.
//   - roi: The region of interest in img's normalized space.
//
// Returns:
//   - Result: The presence decision and, when present, the landmarks.
//   - error: common.ErrInvalidRoi, common.ErrShapeMismatch or common.ErrInferenceFailure.
func (p *Pipeline) Process(ctx context.Context, img image.Image, roi images.NormalizedRect) (Result, error) {
	if err := roi.Validate(); err != nil {
		return Result{}, err
	}
	log := p.log.WithField("roi", roi)

	crop, err := images.Crop(img, roi, images.CropOptions{Border: p.cfg.Border})
	if err != nil {
		return Result{}, err
	}

	square, padding, err := images.Letterbox(crop, images.LetterboxOptions{
		Size:          p.cfg.InputSize,
		Fill:          p.fill,
		Interpolation: p.cfg.Interpolation,
	})
	if err != nil {
		return Result{}, err
	}
	log.WithFields(logrus.Fields{
		"crop_width":  crop.Bounds().Dx(),
		"crop_height": crop.Bounds().Dy(),
		"padding":     padding,
	}).Debug("letterboxed roi")

	input, err := inference.EncodeTensor(square, inference.EncodeOptions{
		Size:       p.cfg.InputSize,
		ZeroCenter: p.cfg.ZeroCenter,
	})
	if err != nil {
		return Result{}, err
	}

	output, err := inference.Invoke(ctx, p.inf, input)
	if err != nil {
		return Result{}, err
	}

	landmarkTensor, flag, err := SplitOutput(output, p.cfg)
	if err != nil {
		return Result{}, err
	}

	gated, presence, err := NewPresenceGate(p.cfg).Gate(landmarkTensor, flag)
	if err != nil {
		return Result{}, err
	}
	result := Result{Presence: presence, Padding: padding}
	if gated == nil {
		log.WithField("score", presence.Score).Debug("no pose detected")
		return result, nil
	}

	decoded, err := DecodeLandmarks(gated, NewDecodeOptions(p.cfg))
	if err != nil {
		return Result{}, err
	}

	bounds := img.Bounds()
	result.landmarks = ProjectToFrame(RemoveLetterbox(decoded, padding), roi, ProjectOptions{
		FrameWidth:     bounds.Dx(),
		FrameHeight:    bounds.Dy(),
		IgnoreRotation: p.cfg.IgnoreRotation,
	})
	log.WithField("score", presence.Score).Debug("pose detected")

	return result, nil
}
