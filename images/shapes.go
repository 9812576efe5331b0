// Package images - Geometry and image transforms that feed the pose network.
package images

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/nvr-ai/go-pose/common"
)

// NormalizedRect is a possibly rotated rectangle whose spatial fields are fractions of the
// enclosing image's dimensions.
type NormalizedRect struct {
	// CenterX is the horizontal center as a fraction of the image width.
	CenterX float32 `json:"center_x" yaml:"center_x"`
	// CenterY is the vertical center as a fraction of the image height.
	CenterY float32 `json:"center_y" yaml:"center_y"`
	// Width is the rectangle width as a fraction of the image width.
	Width float32 `json:"width" yaml:"width"`
	// Height is the rectangle height as a fraction of the image height.
	Height float32 `json:"height" yaml:"height"`
	// Rotation is the clockwise rotation around the center, in radians.
	Rotation float32 `json:"rotation" yaml:"rotation"`
}

// FullFrame returns the rectangle covering the whole image with no rotation.
func FullFrame() NormalizedRect {
	return NormalizedRect{CenterX: 0.5, CenterY: 0.5, Width: 1, Height: 1}
}

// Validate rejects rectangles with non-positive dimensions or non-finite fields.
//
// Returns:
//   - error: common.ErrInvalidRoi wrapped with the offending values.
func (r NormalizedRect) Validate() error {
	if !(r.Width > 0) || !(r.Height > 0) {
		return errors.Wrapf(common.ErrInvalidRoi, "width=%f height=%f", r.Width, r.Height)
	}
	for _, v := range []float32{r.CenterX, r.CenterY, r.Width, r.Height, r.Rotation} {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return errors.Wrapf(common.ErrInvalidRoi, "non-finite field in %+v", r)
		}
	}
	return nil
}

// MaxCropSide bounds the longer side of a crop in pixels. Larger rectangles are sampled at a
// reduced resolution that keeps their aspect ratio.
const MaxCropSide = 4096

// PixelSize returns the pixel extent of the rectangle inside a frame of the given size.
// Each side is at least one pixel and at most MaxCropSide.
func (r NormalizedRect) PixelSize(frameWidth, frameHeight int) (int, int) {
	w := float64(r.Width) * float64(frameWidth)
	h := float64(r.Height) * float64(frameHeight)
	if longest := math.Max(w, h); longest > MaxCropSide {
		w, h = w*MaxCropSide/longest, h*MaxCropSide/longest
	}
	return max(int(math.Round(w)), 1), max(int(math.Round(h)), 1)
}

// Transform builds the affine matrix that maps a point in the rectangle's local normalized
// space (u, v in [0,1]) into frame space.
//
// The map is translate(center) * rotate(rotation) * scale(size) * translate(-0.5, -0.5), with
// center and size multiplied by the frame dimensions. Passing the frame size in pixels yields
// pixel coordinates; passing (1, 1) yields normalized frame coordinates with the rotation applied
// in normalized space.
//
// Arguments:
//   - frameWidth: The horizontal unit of the output space.
//   - frameHeight: The vertical unit of the output space.
//
// Returns:
//   - *mat.Dense: A 3x3 homogeneous affine matrix.
func (r NormalizedRect) Transform(frameWidth, frameHeight float64) *mat.Dense {
	return r.transform(frameWidth, frameHeight, float64(r.Rotation))
}

// TransformNoRotation is Transform with the rotation ignored.
func (r NormalizedRect) TransformNoRotation(frameWidth, frameHeight float64) *mat.Dense {
	return r.transform(frameWidth, frameHeight, 0)
}

func (r NormalizedRect) transform(frameWidth, frameHeight, angle float64) *mat.Dense {
	sin, cos := math.Sincos(angle)

	translate := mat.NewDense(3, 3, []float64{
		1, 0, float64(r.CenterX) * frameWidth,
		0, 1, float64(r.CenterY) * frameHeight,
		0, 0, 1,
	})
	rotate := mat.NewDense(3, 3, []float64{
		cos, -sin, 0,
		sin, cos, 0,
		0, 0, 1,
	})
	scale := mat.NewDense(3, 3, []float64{
		float64(r.Width) * frameWidth, 0, 0,
		0, float64(r.Height) * frameHeight, 0,
		0, 0, 1,
	})
	center := mat.NewDense(3, 3, []float64{
		1, 0, -0.5,
		0, 1, -0.5,
		0, 0, 1,
	})

	var m mat.Dense
	m.Product(translate, rotate, scale, center)
	return &m
}

// ApplyAffine maps (x, y) through a 3x3 homogeneous affine matrix.
func ApplyAffine(m mat.Matrix, x, y float64) (float64, float64) {
	return m.At(0, 0)*x + m.At(0, 1)*y + m.At(0, 2),
		m.At(1, 0)*x + m.At(1, 1)*y + m.At(1, 2)
}

// LetterboxPadding is the border added around a resized image to fill a fixed square, each
// side expressed as a fraction of the padded image's corresponding dimension.
type LetterboxPadding struct {
	Left   float32 `json:"left" yaml:"left"`
	Top    float32 `json:"top" yaml:"top"`
	Right  float32 `json:"right" yaml:"right"`
	Bottom float32 `json:"bottom" yaml:"bottom"`
}

// Validate checks that every side is in [0,1) and that opposite sides leave content.
func (p LetterboxPadding) Validate() error {
	for _, v := range []float32{p.Left, p.Top, p.Right, p.Bottom} {
		if !(v >= 0 && v < 1) {
			return errors.Errorf("letterbox padding out of range: %+v", p)
		}
	}
	if p.Left+p.Right >= 1 || p.Top+p.Bottom >= 1 {
		return errors.Errorf("letterbox padding leaves no content: %+v", p)
	}
	return nil
}

// ContentScale returns the fraction of the padded width and height occupied by content.
func (p LetterboxPadding) ContentScale() (float32, float32) {
	return 1 - p.Left - p.Right, 1 - p.Top - p.Bottom
}

// Apply maps a point normalized to the un-padded content into the padded square.
func (p LetterboxPadding) Apply(x, y float32) (float32, float32) {
	sx, sy := p.ContentScale()
	return p.Left + x*sx, p.Top + y*sy
}
