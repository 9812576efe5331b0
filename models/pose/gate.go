package pose

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-pose/common"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/models/model"
)

// Sigmoid is the logistic function.
func Sigmoid(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}

// Activate applies the activation a to x. Unknown activations behave like model.ActivationNone.
func Activate(a model.Activation, x float32) float32 {
	if a == model.ActivationSigmoid {
		return Sigmoid(x)
	}
	return clamp01(x)
}

func clamp01(x float32) float32 {
	if math32.IsNaN(x) {
		return 0
	}
	return math32.Min(1, math32.Max(0, x))
}

// Presence is the outcome of the presence gate.
type Presence struct {
	// Score is the activated flag value in [0, 1].
	Score float32 `json:"score" yaml:"score"`
	// Present reports Score > threshold.
	Present bool `json:"present" yaml:"present"`
}

// PresenceGate thresholds the network's pose flag.
type PresenceGate struct {
	Threshold  float32
	Activation model.Activation
}

// NewPresenceGate returns the gate configured by cfg.
func NewPresenceGate(cfg model.Config) PresenceGate {
	return PresenceGate{Threshold: cfg.PresenceThreshold, Activation: cfg.PresenceActivation}
}

// Score maps a raw flag value to a presence decision. A score equal to the threshold is absent.
func (g PresenceGate) Score(raw float32) Presence {
	score := Activate(g.Activation, raw)
	return Presence{Score: score, Present: score > g.Threshold}
}

// Evaluate reads the single flag value and scores it.
//
// Arguments:
//   - flag: The presence flag tensor.
//
// Returns:
//   - Presence: The score and decision.
//   - error: common.ErrShapeMismatch if flag does not hold exactly one value.
func (g PresenceGate) Evaluate(flag *tensor.Dense) (Presence, error) {
	data, err := inference.Float32s(flag)
	if err != nil {
		return Presence{}, err
	}
	if len(data) != 1 {
		return Presence{}, errors.Wrapf(common.ErrShapeMismatch, "presence flag has %d values, want 1", len(data))
	}
	return g.Score(data[0]), nil
}

// Gate passes landmarks through when the pose is present and suppresses them otherwise.
//
// Returns:
//   - *tensor.Dense: landmarks unchanged, or nil when suppressed.
//   - Presence: The decision.
//   - error: An error if the flag tensor is malformed.
func (g PresenceGate) Gate(landmarks, flag *tensor.Dense) (*tensor.Dense, Presence, error) {
	p, err := g.Evaluate(flag)
	if err != nil {
		return nil, Presence{}, err
	}
	if !p.Present {
		return nil, p, nil
	}
	return landmarks, p, nil
}
