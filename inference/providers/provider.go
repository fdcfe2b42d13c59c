// Package providers - ONNX Runtime execution providers and session creation.
package providers

import (
	"fmt"
	"strings"

	ort "github.com/yalue/onnxruntime_go"
)

// ProviderBackend represents different ONNX Runtime execution providers.
type ProviderBackend string

const (
	// CPUProviderBackend runs inference on the default CPU provider.
	CPUProviderBackend ProviderBackend = "cpu"
)

// Backends lists every supported backend.
var Backends = []ProviderBackend{
	CPUProviderBackend,
	CoreMLProviderBackend,
	CUDAProviderBackend,
	OpenVINOProviderBackend,
}

// ProviderOptions is a marker interface for provider-specific config.
type ProviderOptions interface {
	isProviderOptions()
}

// ExecutionProvider represents the contract that all execution providers must implement.
type ExecutionProvider interface {
	// Backend returns the provider's backend identifier.
	Backend() ProviderBackend
	// Options returns the provider-specific options.
	Options() ProviderOptions
	// Apply registers the provider on the session options.
	Apply(options *ort.SessionOptions) error
}

// Config selects and configures an execution provider.
type Config struct {
	// Backend specifies the backend to use.
	Backend ProviderBackend `json:"backend" yaml:"backend"`
	// LibraryPath overrides the onnxruntime shared library location.
	LibraryPath string `json:"libraryPath" yaml:"libraryPath"`
	// IntraOpNumThreads sets threads for parallelizing ops; zero lets the runtime decide.
	IntraOpNumThreads int `json:"intraOpNumThreads" yaml:"intraOpNumThreads"`
	// InterOpNumThreads sets threads for parallelizing independent ops.
	InterOpNumThreads int `json:"interOpNumThreads" yaml:"interOpNumThreads"`

	CoreML   CoreMLOptions   `json:"coreml" yaml:"coreml"`
	CUDA     CUDAOptions     `json:"cuda" yaml:"cuda"`
	OpenVINO OpenVINOOptions `json:"openvino" yaml:"openvino"`
}

// DefaultConfig returns a CPU configuration.
func DefaultConfig() Config {
	return Config{Backend: CPUProviderBackend}
}

// Options returns the provider options matching the configured backend.
//
// Returns:
//   - ProviderOptions: The options for the configured backend.
//   - error: An error if the backend is unknown.
func (c Config) Options() (ProviderOptions, error) {
	backend, err := ParseBackend(string(c.Backend))
	if err != nil {
		return nil, err
	}

	switch backend {
	case CoreMLProviderBackend:
		return c.CoreML, nil
	case CUDAProviderBackend:
		return c.CUDA, nil
	case OpenVINOProviderBackend:
		return c.OpenVINO, nil
	default:
		return CPUOptions{}, nil
	}
}

// ParseBackend parses a backend name, case-insensitively. An empty name
// yields the CPU backend.
func ParseBackend(name string) (ProviderBackend, error) {
	n := ProviderBackend(strings.ToLower(strings.TrimSpace(name)))
	if n == "" {
		return CPUProviderBackend, nil
	}
	for _, b := range Backends {
		if b == n {
			return b, nil
		}
	}
	return "", fmt.Errorf("no matching provider backend registered: %s", name)
}

// NewProvider creates a new provider based on the options type.
//
// Arguments:
//   - options: The options for the provider. Nil selects the CPU provider.
//
// Returns:
//   - ExecutionProvider: The new provider.
//   - error: An error if the options type is not supported.
func NewProvider(options ProviderOptions) (ExecutionProvider, error) {
	switch opts := options.(type) {
	case nil:
		return NewCPUProvider(CPUOptions{}), nil
	case CPUOptions:
		return NewCPUProvider(opts), nil
	case CoreMLOptions:
		return NewCoreMLProvider(opts), nil
	case OpenVINOOptions:
		return NewOpenVINOProvider(opts), nil
	case CUDAOptions:
		return NewCUDAProvider(opts), nil
	default:
		return nil, fmt.Errorf("unsupported provider options type: %T", opts)
	}
}
