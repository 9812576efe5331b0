package inference

import (
	"image"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-pose/common"
	"github.com/nvr-ai/go-pose/images"
)

// EncodeOptions controls the tensor encoding of the letterboxed image.
type EncodeOptions struct {
	// Size is the required square side length of the input image.
	Size int `json:"size" yaml:"size"`
	// ZeroCenter maps channels to [-1, 1] instead of [0, 1].
	ZeroCenter bool `json:"zero_center" yaml:"zero_center"`
}

// EncodeTensor converts a Size x Size image into a [1, Size, Size, 3] float32 tensor in HWC order
// with channels scaled from [0, 255] to [0, 1]. No resizing or cropping happens here.
//
// Arguments:
//   - img: The letterboxed image.
//   - opts: The expected size and value range.
//
// Returns:
//   - *tensor.Dense: The input tensor.
//   - error: common.ErrShapeMismatch if img is not exactly Size x Size.
func EncodeTensor(img image.Image, opts EncodeOptions) (*tensor.Dense, error) {
	if img == nil {
		return nil, errors.Wrap(common.ErrShapeMismatch, "input image is nil")
	}
	b := img.Bounds()
	if opts.Size <= 0 || b.Dx() != opts.Size || b.Dy() != opts.Size {
		return nil, errors.Wrapf(common.ErrShapeMismatch, "input image is %dx%d, want %dx%d",
			b.Dx(), b.Dy(), opts.Size, opts.Size)
	}

	rgba := images.ToRGBA(img)
	size := opts.Size
	data := make([]float32, size*size*3)

	idx := 0
	for y := 0; y < size; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+size*4]
		for x := 0; x < size*4; x += 4 {
			data[idx] = float32(row[x]) / 255.0
			data[idx+1] = float32(row[x+1]) / 255.0
			data[idx+2] = float32(row[x+2]) / 255.0
			idx += 3
		}
	}

	if opts.ZeroCenter {
		for i := range data {
			data[i] = data[i]*2 - 1
		}
	}

	return tensor.New(tensor.WithShape(1, size, size, 3), tensor.WithBacking(data)), nil
}
