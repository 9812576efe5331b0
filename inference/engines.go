// Package inference - The boundary between the pose pipeline and the network that scores it.
package inference

// EngineType is the type of the engine
type EngineType string

const (
	// EngineONNX is the ONNX engine that uses the onnxruntime library
	EngineONNX EngineType = "onnx"
	// EngineGraph is the in-process gorgonia head
	EngineGraph EngineType = "graph"
)

// Engines is a list of all supported engines
var Engines = []EngineType{EngineONNX, EngineGraph}
