package pose

import (
	"github.com/nvr-ai/go-pose/images"
)

// ProjectOptions controls RoiProjector.
type ProjectOptions struct {
	// FrameWidth and FrameHeight are the source frame dimensions in pixels. When both are set the
	// rotation is applied in pixel space, which makes projection the exact inverse of the crop on
	// non-square frames. Otherwise the rotation is applied in normalized space.
	FrameWidth, FrameHeight int
	// IgnoreRotation treats the ROI as axis aligned.
	IgnoreRotation bool
}

// ProjectToFrame maps points from the ROI's local normalized space into the frame's normalized
// space: scale by the ROI size, rotate by its rotation and translate to its center. Depth is
// scaled by the ROI width.
//
// Arguments:
//   - landmarks: Points normalized to the ROI crop.
//   - roi: The rectangle the crop was taken from.
//   - opts: Frame size and rotation handling.
//
// Returns:
//   - LandmarkList: A new list in frame space, in the same order.
func ProjectToFrame(landmarks LandmarkList, roi images.NormalizedRect, opts ProjectOptions) LandmarkList {
	fw, fh := 1.0, 1.0
	if opts.FrameWidth > 0 && opts.FrameHeight > 0 {
		fw, fh = float64(opts.FrameWidth), float64(opts.FrameHeight)
	}
	m := roi.Transform(fw, fh)
	if opts.IgnoreRotation {
		m = roi.TransformNoRotation(fw, fh)
	}

	out := landmarks.Clone()
	for i := range out {
		x, y := images.ApplyAffine(m, float64(out[i].X), float64(out[i].Y))
		out[i].X = float32(x / fw)
		out[i].Y = float32(y / fh)
		out[i].Z *= roi.Width
	}
	return out
}
