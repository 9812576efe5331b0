package pose

import "github.com/nvr-ai/go-pose/images"

// RemoveLetterbox re-expresses points from the padded square into the un-padded content:
// x' = (x - left) / (1 - left - right), y' = (y - top) / (1 - top - bottom). Depth shares the
// horizontal scale.
//
// Arguments:
//   - landmarks: Points normalized to the padded square.
//   - padding: The padding LetterboxResizer added.
//
// Returns:
//   - LandmarkList: A new list in content space, in the same order.
func RemoveLetterbox(landmarks LandmarkList, padding images.LetterboxPadding) LandmarkList {
	sx, sy := padding.ContentScale()
	out := landmarks.Clone()
	for i := range out {
		out[i].X = (out[i].X - padding.Left) / sx
		out[i].Y = (out[i].Y - padding.Top) / sy
		out[i].Z /= sx
	}
	return out
}
