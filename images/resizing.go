package images

import (
	"image"
	"image/color"
	"math"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// Interpolation selects the scaler used for the aspect-preserving resize.
type Interpolation string

const (
	// InterpolationBilinear is nfnt bilinear resampling.
	InterpolationBilinear Interpolation = "bilinear"
	// InterpolationLanczos is nfnt Lanczos3 resampling.
	InterpolationLanczos Interpolation = "lanczos"
	// InterpolationCatmullRom is the x/image Catmull-Rom scaler.
	InterpolationCatmullRom Interpolation = "catmullrom"
)

// LetterboxOptions controls LetterboxResizer.
type LetterboxOptions struct {
	// Size is the side length of the square output.
	Size int `json:"size" yaml:"size"`
	// Fill is the color of the padding. Nil means opaque black.
	Fill color.Color `json:"-" yaml:"-"`
	// Interpolation is the scaler. Empty means InterpolationBilinear.
	Interpolation Interpolation `json:"interpolation" yaml:"interpolation"`
}

// LetterboxGeometry is the pixel layout of a letterboxed image.
type LetterboxGeometry struct {
	// Scale is the uniform factor applied to the source.
	Scale float64
	// ResizedWidth and ResizedHeight are the content dimensions inside the square.
	ResizedWidth, ResizedHeight int
	// PadLeft, PadTop, PadRight and PadBottom are the borders in pixels.
	PadLeft, PadTop, PadRight, PadBottom int
	// Padding is the border as fractions of the square.
	Padding LetterboxPadding
}

// ComputeLetterbox fits a srcWidth x srcHeight image inside a size x size square.
//
// The content is centered; when the unused extent is odd the extra pixel goes to the right or
// bottom. Padding fractions are the exact pixel borders divided by size, so
// ResizedWidth + PadLeft + PadRight == size (same for height) always holds.
//
// Arguments:
//   - srcWidth: The source width in pixels.
//   - srcHeight: The source height in pixels.
//   - size: The square side length.
//
// Returns:
//   - LetterboxGeometry: The computed layout.
//   - error: An error if any dimension is non-positive.
func ComputeLetterbox(srcWidth, srcHeight, size int) (LetterboxGeometry, error) {
	if srcWidth <= 0 || srcHeight <= 0 || size <= 0 {
		return LetterboxGeometry{}, errors.Errorf("invalid letterbox dimensions: src=%dx%d size=%d",
			srcWidth, srcHeight, size)
	}

	scale := math.Min(float64(size)/float64(srcWidth), float64(size)/float64(srcHeight))
	rw := min(max(int(math.Round(float64(srcWidth)*scale)), 1), size)
	rh := min(max(int(math.Round(float64(srcHeight)*scale)), 1), size)

	left := (size - rw) / 2
	top := (size - rh) / 2
	right := size - rw - left
	bottom := size - rh - top

	s := float32(size)
	return LetterboxGeometry{
		Scale:         scale,
		ResizedWidth:  rw,
		ResizedHeight: rh,
		PadLeft:       left,
		PadTop:        top,
		PadRight:      right,
		PadBottom:     bottom,
		Padding: LetterboxPadding{
			Left:   float32(left) / s,
			Top:    float32(top) / s,
			Right:  float32(right) / s,
			Bottom: float32(bottom) / s,
		},
	}, nil
}

// Letterbox resizes img to fit a square of opts.Size while preserving its aspect ratio, then
// pads the remainder with opts.Fill.
//
// Arguments:
//   - img: The cropped image.
//   - opts: Target size, fill and interpolation.
//
// Returns:
//   - *image.RGBA: The opts.Size x opts.Size letterboxed image.
//   - LetterboxPadding: The padding fractions for later removal.
//   - error: An error if the dimensions are invalid.
func Letterbox(img image.Image, opts LetterboxOptions) (*image.RGBA, LetterboxPadding, error) {
	if img == nil {
		return nil, LetterboxPadding{}, errors.New("letterbox source image is nil")
	}
	b := img.Bounds()
	geo, err := ComputeLetterbox(b.Dx(), b.Dy(), opts.Size)
	if err != nil {
		return nil, LetterboxPadding{}, err
	}

	resized := resizeTo(img, geo.ResizedWidth, geo.ResizedHeight, opts.Interpolation)

	fill := opts.Fill
	if fill == nil {
		fill = color.Black
	}

	canvas := image.NewRGBA(image.Rect(0, 0, opts.Size, opts.Size))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)
	draw.Draw(canvas,
		image.Rect(geo.PadLeft, geo.PadTop, geo.PadLeft+geo.ResizedWidth, geo.PadTop+geo.ResizedHeight),
		resized, resized.Bounds().Min, draw.Src)

	return canvas, geo.Padding, nil
}

func resizeTo(img image.Image, width, height int, interp Interpolation) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}

	switch interp {
	case InterpolationCatmullRom:
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		return dst
	case InterpolationLanczos:
		return resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
	default:
		return resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	}
}
