package pose

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-pose/common"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/models/model"
)

// DecodeOptions describes the landmark tensor encoding.
type DecodeOptions struct {
	// InputWidth and InputHeight are the network input dimensions the raw coordinates are in.
	InputWidth, InputHeight int
	// NumLandmarks is the number of points.
	NumLandmarks int
	// Channels is the number of values per point, 3 to 5.
	Channels int
	// NormalizeZ divides z after it is scaled by InputWidth. Zero means 1.
	NormalizeZ float32
	// FlipHorizontally and FlipVertically mirror the decoded points.
	FlipHorizontally, FlipVertically bool
	// VisibilityActivation and PresenceActivation map channels 3 and 4.
	VisibilityActivation, PresenceActivation model.Activation
}

// NewDecodeOptions returns the decoder settings of cfg.
func NewDecodeOptions(cfg model.Config) DecodeOptions {
	return DecodeOptions{
		InputWidth:           cfg.InputSize,
		InputHeight:          cfg.InputSize,
		NumLandmarks:         cfg.NumLandmarks,
		Channels:             cfg.LandmarkChannels,
		NormalizeZ:           cfg.NormalizeZ,
		FlipHorizontally:     cfg.FlipHorizontally,
		FlipVertically:       cfg.FlipVertically,
		VisibilityActivation: cfg.VisibilityActivation,
		PresenceActivation:   cfg.LandmarkPresenceActivation,
	}
}

// DecodeLandmarks converts the raw landmark tensor, in network input pixels, into normalized
// points. Tensor entries map in order to landmark indices. Values outside [0, 1] are kept.
//
// Arguments:
//   - t: The landmark tensor of NumLandmarks * Channels values.
//   - opts: The encoding.
//
// Returns:
//   - LandmarkList: Exactly NumLandmarks points.
//   - error: common.ErrShapeMismatch if the tensor size or options are inconsistent.
func DecodeLandmarks(t *tensor.Dense, opts DecodeOptions) (LandmarkList, error) {
	if opts.InputWidth <= 0 || opts.InputHeight <= 0 || opts.NumLandmarks <= 0 ||
		opts.Channels < 3 || opts.Channels > 5 {
		return nil, errors.Wrapf(common.ErrShapeMismatch, "invalid landmark encoding %+v", opts)
	}
	raw, err := inference.Float32s(t)
	if err != nil {
		return nil, err
	}
	if want := opts.NumLandmarks * opts.Channels; len(raw) != want {
		return nil, errors.Wrapf(common.ErrShapeMismatch, "landmark tensor has %d values, want %d",
			len(raw), want)
	}

	zScale := opts.NormalizeZ
	if zScale == 0 {
		zScale = 1
	}
	w, h := float32(opts.InputWidth), float32(opts.InputHeight)

	out := make(LandmarkList, opts.NumLandmarks)
	for i := range out {
		p := raw[i*opts.Channels : (i+1)*opts.Channels]

		x, y := p[0], p[1]
		if opts.FlipHorizontally {
			x = w - x
		}
		if opts.FlipVertically {
			y = h - y
		}

		lm := Landmark{X: x / w, Y: y / h, Z: p[2] / w / zScale}
		if opts.Channels > 3 {
			lm.Visibility = Activate(opts.VisibilityActivation, p[3])
		}
		if opts.Channels > 4 {
			lm.Presence = Activate(opts.PresenceActivation, p[4])
		}
		out[i] = lm
	}
	return out, nil
}
