package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-pose/images"
)

func TestRemoveLetterboxRoundTrip(t *testing.T) {
	crops := map[string][2]int{
		"square": {100, 100},
		"wide":   {200, 100},
		"tall":   {100, 300},
		"odd":    {37, 91},
		"sliver": {640, 64},
	}
	content := LandmarkList{
		{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0.5, Y: 0.5}, {X: 0.1, Y: 0.9, Z: 0.2}, {X: 0.73, Y: 0.31, Z: -0.4},
	}

	for name, dims := range crops {
		t.Run(name, func(t *testing.T) {
			geo, err := images.ComputeLetterbox(dims[0], dims[1], 256)
			require.NoError(t, err)

			sx, _ := geo.Padding.ContentScale()
			padded := content.Clone()
			for i := range padded {
				padded[i].X, padded[i].Y = geo.Padding.Apply(content[i].X, content[i].Y)
				padded[i].Z = content[i].Z * sx
			}

			got := RemoveLetterbox(padded, geo.Padding)
			require.Len(t, got, len(content))
			for i := range content {
				assert.InDelta(t, content[i].X, got[i].X, 1e-5, "x of point %d", i)
				assert.InDelta(t, content[i].Y, got[i].Y, 1e-5, "y of point %d", i)
				assert.InDelta(t, content[i].Z, got[i].Z, 1e-5, "z of point %d", i)
			}
		})
	}
}

func TestRemoveLetterboxFormula(t *testing.T) {
	padding := images.LetterboxPadding{Left: 0.1, Right: 0.3, Top: 0.25, Bottom: 0.25}
	in := LandmarkList{{X: 0.4, Y: 0.5, Z: 0.6, Visibility: 0.9}}

	got := RemoveLetterbox(in, padding)
	assert.InDelta(t, 0.5, got[0].X, 1e-6)
	assert.InDelta(t, 0.5, got[0].Y, 1e-6)
	assert.InDelta(t, 1, got[0].Z, 1e-6)
	assert.Equal(t, float32(0.9), got[0].Visibility)
	assert.Equal(t, float32(0.4), in[0].X, "input is not modified")
}

func TestRemoveLetterboxNoPadding(t *testing.T) {
	in := LandmarkList{{X: 0.2, Y: 0.7, Z: 0.1}}
	assert.Equal(t, in, RemoveLetterbox(in, images.LetterboxPadding{}))
}
