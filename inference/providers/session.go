package providers

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// Session represents a classification model session from the onnxruntime
// with one preallocated input and one preallocated output tensor.
type Session struct {
	Session *ort.AdvancedSession
	Input   *ort.Tensor[float32]
	Output  *ort.Tensor[float32]
}

// Run executes the model over the current input tensor.
func (s *Session) Run() error {
	if s.Session == nil {
		return fmt.Errorf("session is closed")
	}
	return s.Session.Run()
}

// Close releases the resources associated with the Session.
func (s *Session) Close() error {
	if s.Input != nil {
		s.Input.Destroy()
		s.Input = nil
	}
	if s.Output != nil {
		s.Output.Destroy()
		s.Output = nil
	}
	if s.Session != nil {
		err := s.Session.Destroy()
		s.Session = nil
		if err != nil {
			return fmt.Errorf("error destroying ORT session: %w", err)
		}
	}
	return nil
}

// NewSessionArgs represents the arguments for creating a new classification session.
type NewSessionArgs struct {
	// The path to the ONNX model file.
	ModelPath string
	// Input node name. Empty selects the model's first input.
	InputName string
	// Output node name. Empty selects the model's first output.
	OutputName string
	// Input tensor shape, e.g. [1, 3, 224, 224].
	InputShape []int64
	// Output tensor shape, e.g. [1, 1000].
	OutputShape []int64
	// Session tuning; the zero value uses DefaultOptimizationConfig.
	Optimization *OptimizationConfig
}

// NewSession creates a new ONNX classification session.
//
// Order of operations:
//  1. Name discovery: reads node names from the model when not given.
//  2. Tensor allocation: prepares fixed-shape buffers for input/output data.
//  3. Session options: graph optimization, threading and the execution provider.
//  4. Session creation: loads the model and binds the tensors.
//
// The runtime environment must already be initialized with InitializeEnvironment.
//
// Arguments:
//   - provider: The provider for the session.
//   - args: The arguments for the session.
//
// Returns:
//   - *Session: The session holding the native session and its tensors.
//   - error: An error if the session creation fails.
func NewSession(provider ExecutionProvider, args NewSessionArgs) (*Session, error) {
	if !ort.IsInitialized() {
		return nil, fmt.Errorf("ONNX Runtime environment is not initialized")
	}
	if len(args.InputShape) == 0 || len(args.OutputShape) == 0 {
		return nil, fmt.Errorf("input and output shapes are required")
	}

	inputName, outputName := args.InputName, args.OutputName
	if inputName == "" || outputName == "" {
		inputs, outputs, err := ort.GetInputOutputInfo(args.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("error reading model inputs and outputs: %w", err)
		}
		if len(inputs) == 0 || len(outputs) == 0 {
			return nil, fmt.Errorf("model %s declares no inputs or outputs", args.ModelPath)
		}
		if inputName == "" {
			inputName = inputs[0].Name
		}
		if outputName == "" {
			outputName = outputs[0].Name
		}
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(args.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(args.OutputShape...))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	opt := DefaultOptimizationConfig()
	if args.Optimization != nil {
		opt = *args.Optimization
	}
	options, err := OptimizedSessionOptions(opt, provider)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(
		args.ModelPath,
		[]string{inputName},
		[]string{outputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("error creating ORT session: %w", err)
	}

	return &Session{
		Session: session,
		Input:   input,
		Output:  output,
	}, nil
}
