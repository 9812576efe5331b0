package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-pose/common"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/models/model"
)

func TestSigmoid(t *testing.T) {
	assert.Equal(t, float32(0.5), Sigmoid(0))
	assert.InDelta(t, 0.7310586, Sigmoid(1), 1e-6)
	assert.InDelta(t, 0.2689414, Sigmoid(-1), 1e-6)
	assert.InDelta(t, 1, Sigmoid(100), 1e-6)
	assert.InDelta(t, 0, Sigmoid(-100), 1e-6)
}

func TestActivateNoneClamps(t *testing.T) {
	assert.Equal(t, float32(0), Activate(model.ActivationNone, -3))
	assert.Equal(t, float32(1), Activate(model.ActivationNone, 3))
	assert.Equal(t, float32(0.25), Activate(model.ActivationNone, 0.25))
}

func TestPresenceGateThresholdIsStrict(t *testing.T) {
	gate := PresenceGate{Threshold: 0.5, Activation: model.ActivationNone}

	tests := []struct {
		score   float32
		present bool
	}{
		{score: 0.5, present: false},
		{score: 0.50001, present: true},
		{score: 0.49999, present: false},
		{score: 1, present: true},
		{score: 0, present: false},
	}
	for _, tt := range tests {
		p := gate.Score(tt.score)
		assert.Equal(t, tt.present, p.Present, "score %v", tt.score)
		assert.Equal(t, tt.score, p.Score)
	}
}

func TestPresenceGateSigmoidBoundary(t *testing.T) {
	gate := NewPresenceGate(model.DefaultConfig())

	p := gate.Score(0)
	assert.Equal(t, float32(0.5), p.Score)
	assert.False(t, p.Present, "a logit of zero sits exactly on the threshold")

	assert.True(t, gate.Score(0.001).Present)
	assert.False(t, gate.Score(-0.001).Present)
}

func TestPresenceGateSuppressesLandmarks(t *testing.T) {
	gate := NewPresenceGate(model.DefaultConfig())
	landmarks := inference.Vector(make([]float32, 124))

	out, p, err := gate.Gate(landmarks, inference.Vector([]float32{-4}))
	require.NoError(t, err)
	assert.False(t, p.Present)
	assert.Nil(t, out, "an absent pose drops the landmark tensor")

	out, p, err = gate.Gate(landmarks, inference.Vector([]float32{4}))
	require.NoError(t, err)
	assert.True(t, p.Present)
	assert.Same(t, landmarks, out, "a present pose passes the tensor through unmodified")
}

func TestPresenceGateFlagShape(t *testing.T) {
	gate := NewPresenceGate(model.DefaultConfig())
	_, err := gate.Evaluate(inference.Vector([]float32{1, 2}))
	assert.ErrorIs(t, err, common.ErrShapeMismatch)
}
