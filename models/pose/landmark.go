// Package pose - The coordinate pipeline around the upper-body pose landmark network: output
// splitting, presence gating, landmark decoding, letterbox removal and ROI projection.
package pose

// Landmark is a point in the normalized space of whichever image the current stage works in.
type Landmark struct {
	// X is the horizontal position as a fraction of the image width.
	X float32 `json:"x" yaml:"x"`
	// Y is the vertical position as a fraction of the image height.
	Y float32 `json:"y" yaml:"y"`
	// Z is depth on the same scale as X.
	Z float32 `json:"z" yaml:"z"`
	// Visibility is the likelihood the point is visible, when the network reports it.
	Visibility float32 `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	// Presence is the likelihood the point is inside the image, when the network reports it.
	Presence float32 `json:"presence,omitempty" yaml:"presence,omitempty"`
}

// LandmarkList is an ordered list of landmarks. Index i is always body part i.
type LandmarkList []Landmark

// Clone returns a copy of l.
func (l LandmarkList) Clone() LandmarkList {
	out := make(LandmarkList, len(l))
	copy(out, l)
	return out
}

// BodyPart names a landmark index.
type BodyPart int

// Named upper-body landmarks. Indices 25 to 30 are auxiliary points used for ROI tracking.
const (
	Nose BodyPart = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
)

// NumUpperBodyLandmarks is the number of points the upper-body network emits.
const NumUpperBodyLandmarks = 31

var bodyPartNames = [...]string{
	"nose", "left_eye_inner", "left_eye", "left_eye_outer", "right_eye_inner", "right_eye",
	"right_eye_outer", "left_ear", "right_ear", "mouth_left", "mouth_right", "left_shoulder",
	"right_shoulder", "left_elbow", "right_elbow", "left_wrist", "right_wrist", "left_pinky",
	"right_pinky", "left_index", "right_index", "left_thumb", "right_thumb", "left_hip", "right_hip",
}

// String returns the snake case name of the part, or "auxiliary" for unnamed indices.
func (p BodyPart) String() string {
	if p >= 0 && int(p) < len(bodyPartNames) {
		return bodyPartNames[p]
	}
	return "auxiliary"
}

// Connection is an edge of the skeleton drawn between two landmarks.
type Connection struct {
	From, To BodyPart
}

// UpperBodyConnections is the skeleton over the named upper-body landmarks.
var UpperBodyConnections = []Connection{
	{Nose, LeftEyeInner}, {LeftEyeInner, LeftEye}, {LeftEye, LeftEyeOuter}, {LeftEyeOuter, LeftEar},
	{Nose, RightEyeInner}, {RightEyeInner, RightEye}, {RightEye, RightEyeOuter}, {RightEyeOuter, RightEar},
	{MouthLeft, MouthRight},
	{LeftShoulder, RightShoulder}, {LeftShoulder, LeftElbow}, {LeftElbow, LeftWrist},
	{LeftWrist, LeftPinky}, {LeftWrist, LeftIndex}, {LeftWrist, LeftThumb}, {LeftPinky, LeftIndex},
	{RightShoulder, RightElbow}, {RightElbow, RightWrist},
	{RightWrist, RightPinky}, {RightWrist, RightIndex}, {RightWrist, RightThumb}, {RightPinky, RightIndex},
	{LeftShoulder, LeftHip}, {RightShoulder, RightHip}, {LeftHip, RightHip},
}
