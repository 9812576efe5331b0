package pose

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-pose/common"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/models/model"
)

// SplitOutput slices the combined network output into the landmark tensor and the presence flag
// tensor, using the block layout and ranges of cfg. Both results are [1, 1, 1, n] copies.
//
// Arguments:
//   - combined: The network output.
//   - cfg: The block layout.
//
// Returns:
//   - *tensor.Dense: The landmark tensor of cfg.NumLandmarks * cfg.LandmarkChannels values.
//   - *tensor.Dense: The single value presence flag tensor.
//   - error: common.ErrShapeMismatch if the output size differs from cfg.OutputSize().
func SplitOutput(combined *tensor.Dense, cfg model.Config) (*tensor.Dense, *tensor.Dense, error) {
	data, err := inference.Float32s(combined)
	if err != nil {
		return nil, nil, err
	}
	if want := cfg.OutputSize(); len(data) != want {
		return nil, nil, errors.Wrapf(common.ErrShapeMismatch, "network output has %d values, want %d",
			len(data), want)
	}

	return sliceBlocks(data, cfg, cfg.LandmarkRange), sliceBlocks(data, cfg, cfg.FlagRange), nil
}

func sliceBlocks(data []float32, cfg model.Config, r model.Range) *tensor.Dense {
	begin := cfg.BlockOffset(r.Begin)
	end := begin + cfg.BlockSize(r)
	out := make([]float32, end-begin)
	copy(out, data[begin:end])
	return inference.Vector(out)
}
