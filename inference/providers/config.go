// Package providers - onnxruntime backed inference for the pose network.
package providers

import (
	"fmt"
)

// ProviderBackend represents different ONNX Runtime execution providers
type ProviderBackend string

const (
	// CPUProviderBackend runs on the default CPU execution provider.
	CPUProviderBackend ProviderBackend = "cpu"
	// CUDAProviderBackend runs on NVIDIA GPUs.
	CUDAProviderBackend ProviderBackend = "cuda"
	// CoreMLProviderBackend runs on Apple silicon.
	CoreMLProviderBackend ProviderBackend = "coreml"
	// OpenVINOProviderBackend runs on Intel CPUs/GPUs.
	OpenVINOProviderBackend ProviderBackend = "openvino"
)

// Config describes an onnxruntime session for a single-input pose network.
type Config struct {
	// Backend is the execution provider. Empty means CPUProviderBackend.
	Backend ProviderBackend `json:"backend" yaml:"backend" validate:"omitempty,oneof=cpu cuda coreml openvino"`
	// ModelPath is the path to the ONNX model file.
	ModelPath string `json:"model_path" yaml:"model_path" validate:"required"`
	// SharedLibraryPath overrides the onnxruntime library location.
	SharedLibraryPath string `json:"shared_library_path" yaml:"shared_library_path"`
	// InputName is the model's image input node.
	InputName string `json:"input_name" yaml:"input_name" validate:"required"`
	// InputShape is the input tensor shape, e.g. [1, 256, 256, 3].
	InputShape []int64 `json:"input_shape" yaml:"input_shape" validate:"required,min=1,dive,gt=0"`
	// OutputNames are the model outputs, concatenated in this order into one combined tensor.
	OutputNames []string `json:"output_names" yaml:"output_names" validate:"required,min=1,dive,required"`
	// OutputShapes are the shapes of OutputNames, in the same order.
	OutputShapes [][]int64 `json:"output_shapes" yaml:"output_shapes" validate:"required,min=1"`
	// IntraOpThreads parallelises work inside graph nodes. Zero uses the runtime default.
	IntraOpThreads int `json:"intra_op_threads" yaml:"intra_op_threads" validate:"gte=0"`
	// InterOpThreads parallelises independent graph nodes. Zero uses the runtime default.
	InterOpThreads int `json:"inter_op_threads" yaml:"inter_op_threads" validate:"gte=0"`
	// DeviceID selects the GPU for CUDA or the device for OpenVINO.
	DeviceID int `json:"device_id" yaml:"device_id" validate:"gte=0"`
	// DeviceType is the OpenVINO device type (CPU, GPU, NPU).
	DeviceType string `json:"device_type" yaml:"device_type"`
}

// DefaultConfig returns the session layout of the upper-body pose landmark network: one
// [1, 256, 256, 3] image input, a 31 x 4 landmark output and a single presence flag.
//
// Arguments:
//   - modelPath: The path to the ONNX model file.
//
// Returns:
//   - Config: The session configuration.
func DefaultConfig(modelPath string) Config {
	return Config{
		Backend:      CPUProviderBackend,
		ModelPath:    modelPath,
		InputName:    "input_1",
		InputShape:   []int64{1, 256, 256, 3},
		OutputNames:  []string{"ld_3d", "output_poseflag"},
		OutputShapes: [][]int64{{1, 124}, {1, 1}},
	}
}

// Check performs the cross-field checks that struct tags cannot express.
func (c Config) Check() error {
	if len(c.OutputNames) != len(c.OutputShapes) {
		return fmt.Errorf("output_names has %d entries but output_shapes has %d",
			len(c.OutputNames), len(c.OutputShapes))
	}
	for i, shape := range c.OutputShapes {
		if shapeSize(shape) <= 0 {
			return fmt.Errorf("output %q has invalid shape %v", c.OutputNames[i], shape)
		}
	}
	if shapeSize(c.InputShape) <= 0 {
		return fmt.Errorf("input %q has invalid shape %v", c.InputName, c.InputShape)
	}
	return nil
}

// OutputSize returns the total number of values across all outputs.
func (c Config) OutputSize() int {
	total := 0
	for _, shape := range c.OutputShapes {
		total += int(shapeSize(shape))
	}
	return total
}

func shapeSize(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	size := int64(1)
	for _, d := range shape {
		if d <= 0 {
			return 0
		}
		size *= d
	}
	return size
}
