package providers

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

var envMu sync.Mutex

// initEnvironment loads the native library once per process.
func initEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if _, err := os.Stat(libPath); err != nil {
		return fmt.Errorf("ONNX Runtime library not found at %s: %w", libPath, err)
	}
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("error initializing ORT environment: %w", err)
	}
	return nil
}

// Session is an onnxruntime session with preallocated input and output tensors.
//
// Runs are serialised because the session binds fixed buffers.
type Session struct {
	mu         sync.Mutex
	session    *ort.AdvancedSession
	input      *ort.Tensor[float32]
	outputs    []*ort.Tensor[float32]
	outputSize int
}

// NewSession creates an onnxruntime session for the configured model.
//
// Order of operations:
//  1. Config checks and native library initialisation.
//  2. Tensor allocation: fixed-shape buffers for the input and every output.
//  3. Session options and the execution provider for the backend.
//  4. Session creation, binding the buffers to the model's nodes.
//
// Arguments:
//   - cfg: The session configuration.
//
// Returns:
//   - *Session: The session, to be released with Close.
//   - error: An error if any step fails; partially created resources are released.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	libPath := cfg.SharedLibraryPath
	if libPath == "" {
		libPath = GetSharedLibPath()
	}
	if err := initEnvironment(libPath); err != nil {
		return nil, err
	}

	s := &Session{outputSize: cfg.OutputSize()}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(cfg.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}
	s.input = input

	for i, shape := range cfg.OutputShapes {
		output, err := ort.NewEmptyTensor[float32](ort.NewShape(shape...))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("error creating output tensor %q: %w", cfg.OutputNames[i], err)
		}
		s.outputs = append(s.outputs, output)
	}

	options, err := sessionOptions(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	defer options.Destroy()

	outputs := make([]ort.Value, len(s.outputs))
	for i, o := range s.outputs {
		outputs[i] = o
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		cfg.OutputNames,
		[]ort.Value{s.input},
		outputs,
		options,
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("error creating ORT session: %w", err)
	}
	s.session = session

	return s, nil
}

func sessionOptions(cfg Config) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating ORT session options: %w", err)
	}
	fail := func(err error) (*ort.SessionOptions, error) {
		options.Destroy()
		return nil, err
	}

	if err := options.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
		return fail(fmt.Errorf("error setting intra-op threads: %w", err))
	}
	if err := options.SetInterOpNumThreads(cfg.InterOpThreads); err != nil {
		return fail(fmt.Errorf("error setting inter-op threads: %w", err))
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		return fail(fmt.Errorf("error setting graph optimization level: %w", err))
	}

	switch cfg.Backend {
	case "", CPUProviderBackend:
	case CoreMLProviderBackend:
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			return fail(fmt.Errorf("error enabling CoreML: %w", err))
		}
	case CUDAProviderBackend:
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return fail(fmt.Errorf("error creating CUDA options: %w", err))
		}
		defer cuda.Destroy()
		if err := cuda.Update(map[string]string{"device_id": strconv.Itoa(cfg.DeviceID)}); err != nil {
			return fail(fmt.Errorf("error converting CUDA options: %w", err))
		}
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return fail(fmt.Errorf("error enabling CUDA: %w", err))
		}
	case OpenVINOProviderBackend:
		deviceType := cfg.DeviceType
		if deviceType == "" {
			deviceType = "CPU"
		}
		// See:
		// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
		if err := options.AppendExecutionProviderOpenVINO(map[string]string{
			"device_id":   strconv.Itoa(cfg.DeviceID),
			"device_type": deviceType,
		}); err != nil {
			return fail(fmt.Errorf("error enabling OpenVINO: %w", err))
		}
	default:
		return fail(fmt.Errorf("unsupported provider backend: %q", cfg.Backend))
	}

	return options, nil
}

// Infer copies input into the session, runs the network and concatenates every output, in
// configured order, into one [1, 1, 1, n] tensor.
func (s *Session) Infer(ctx context.Context, input *tensor.Dense) (*tensor.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, fmt.Errorf("input tensor is nil")
	}
	data, ok := input.Data().([]float32)
	if !ok {
		return nil, fmt.Errorf("input tensor dtype %v is not float32", input.Dtype())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, fmt.Errorf("session is closed")
	}
	dst := s.input.GetData()
	if len(dst) != len(data) {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(data), len(dst))
	}
	copy(dst, data)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("failed to run inference: %w", err)
	}

	combined := make([]float32, 0, s.outputSize)
	for _, o := range s.outputs {
		combined = append(combined, o.GetData()...)
	}
	return tensor.New(tensor.WithShape(1, 1, 1, len(combined)), tensor.WithBacking(combined)), nil
}

// Close releases the session and its tensors.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if s.session != nil {
		if err := s.session.Destroy(); err != nil {
			firstErr = fmt.Errorf("error destroying ORT session: %w", err)
		}
		s.session = nil
	}
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	for _, o := range s.outputs {
		o.Destroy()
	}
	s.outputs = nil
	return firstErr
}
