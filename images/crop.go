package images

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// BorderMode selects how samples outside the source image are filled.
type BorderMode string

const (
	// BorderReplicate repeats the nearest valid edge pixel.
	BorderReplicate BorderMode = "replicate"
	// BorderZero fills with opaque black.
	BorderZero BorderMode = "zero"
)

// CropOptions controls RoiCropper sampling.
type CropOptions struct {
	// Border is the out-of-bounds sampling mode. Empty means BorderReplicate.
	Border BorderMode `json:"border" yaml:"border"`
}

// Crop extracts the (possibly rotated) region described by roi from src.
//
// The output is sized to the roi's pixel extent inside src. Each output pixel center is mapped
// through the roi's affine transform and bilinearly sampled from src; samples that fall outside
// src follow the configured border mode.
//
// Arguments:
//   - src: The full frame.
//   - roi: The region of interest in src's normalized space.
//   - opts: Sampling options.
//
// Returns:
//   - *image.RGBA: The cropped image with bounds starting at (0,0).
//   - error: common.ErrInvalidRoi when roi has non-positive dimensions.
func Crop(src image.Image, roi NormalizedRect, opts CropOptions) (*image.RGBA, error) {
	if err := roi.Validate(); err != nil {
		return nil, err
	}
	if src == nil || src.Bounds().Empty() {
		return nil, errors.New("crop source image is empty")
	}

	rgba := ToRGBA(src)
	srcW, srcH := rgba.Bounds().Dx(), rgba.Bounds().Dy()
	dstW, dstH := roi.PixelSize(srcW, srcH)
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))

	m := roi.Transform(float64(srcW), float64(srcH))
	s := sampler{img: rgba, border: opts.Border}

	for y := 0; y < dstH; y++ {
		v := (float64(y) + 0.5) / float64(dstH)
		for x := 0; x < dstW; x++ {
			u := (float64(x) + 0.5) / float64(dstW)
			px, py := ApplyAffine(m, u, v)
			off := dst.PixOffset(x, y)
			s.bilinear(px-0.5, py-0.5, dst.Pix[off:off+4])
		}
	}

	return dst, nil
}

// sampler reads from an RGBA image whose bounds start at the origin.
type sampler struct {
	img    *image.RGBA
	border BorderMode
}

func (s sampler) bilinear(fx, fy float64, out []uint8) {
	x0 := math.Floor(fx)
	y0 := math.Floor(fy)
	ax := fx - x0
	ay := fy - y0
	ix, iy := int(x0), int(y0)

	var acc [4]float64
	s.accumulate(ix, iy, (1-ax)*(1-ay), &acc)
	s.accumulate(ix+1, iy, ax*(1-ay), &acc)
	s.accumulate(ix, iy+1, (1-ax)*ay, &acc)
	s.accumulate(ix+1, iy+1, ax*ay, &acc)

	for c := 0; c < 4; c++ {
		out[c] = uint8(math.Min(255, math.Max(0, math.Round(acc[c]))))
	}
}

func (s sampler) accumulate(x, y int, weight float64, acc *[4]float64) {
	if weight == 0 {
		return
	}
	w, h := s.img.Bounds().Dx(), s.img.Bounds().Dy()
	if x < 0 || y < 0 || x >= w || y >= h {
		if s.border == BorderZero {
			acc[3] += 255 * weight
			return
		}
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
	}
	off := s.img.PixOffset(x, y)
	for c := 0; c < 4; c++ {
		acc[c] += float64(s.img.Pix[off+c]) * weight
	}
}
