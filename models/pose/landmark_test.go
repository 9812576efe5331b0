package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBodyPartString(t *testing.T) {
	assert.Equal(t, "nose", Nose.String())
	assert.Equal(t, "left_shoulder", LeftShoulder.String())
	assert.Equal(t, "left_hip", LeftHip.String())
	assert.Equal(t, "right_hip", RightHip.String())
	assert.Equal(t, "auxiliary", BodyPart(27).String())
	assert.Equal(t, 25, len(bodyPartNames))
}

func TestUpperBodyConnectionsInRange(t *testing.T) {
	for _, c := range UpperBodyConnections {
		assert.Less(t, int(c.From), NumUpperBodyLandmarks)
		assert.Less(t, int(c.To), NumUpperBodyLandmarks)
		assert.NotEqual(t, c.From, c.To)
	}
}

func TestLandmarkListClone(t *testing.T) {
	l := LandmarkList{{X: 1}}
	c := l.Clone()
	c[0].X = 2
	assert.Equal(t, float32(1), l[0].X)
}
