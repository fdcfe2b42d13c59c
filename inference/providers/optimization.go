package providers

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// OptimizationConfig contains ONNX Runtime session tuning.
type OptimizationConfig struct {
	// GraphOptimizationLevel controls the level of graph optimization.
	GraphOptimizationLevel ort.GraphOptimizationLevel
	// IntraOpNumThreads sets threads for parallelizing ops.
	IntraOpNumThreads int
	// InterOpNumThreads sets threads for parallelizing independent ops.
	InterOpNumThreads int
}

// DefaultOptimizationConfig enables extended graph rewrites and lets the
// runtime pick thread counts.
func DefaultOptimizationConfig() OptimizationConfig {
	return OptimizationConfig{
		GraphOptimizationLevel: ort.GraphOptimizationLevelEnableExtended,
	}
}

// OptimizedSessionOptions creates session options with the given tuning and
// the provider registered.
//
// Arguments:
//   - config: Optimization configuration to apply.
//   - provider: The execution provider to enable.
//
// Returns:
//   - *ort.SessionOptions: Configured session options; the caller must destroy them.
//   - error: Configuration error if any.
//
// @example
// options, err := OptimizedSessionOptions(DefaultOptimizationConfig(), NewCPUProvider(CPUOptions{}))
//
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// defer options.Destroy()
func OptimizedSessionOptions(config OptimizationConfig, provider ExecutionProvider) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}

	if err := configure(options, config); err != nil {
		options.Destroy()
		return nil, err
	}

	if provider != nil {
		if err := provider.Apply(options); err != nil {
			options.Destroy()
			return nil, fmt.Errorf("failed to configure %s execution provider: %w", provider.Backend(), err)
		}
	}

	return options, nil
}

func configure(options *ort.SessionOptions, config OptimizationConfig) error {
	if err := options.SetGraphOptimizationLevel(config.GraphOptimizationLevel); err != nil {
		return fmt.Errorf("failed to set graph optimization level: %w", err)
	}
	if config.IntraOpNumThreads > 0 {
		if err := options.SetIntraOpNumThreads(config.IntraOpNumThreads); err != nil {
			return fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}
	if config.InterOpNumThreads > 0 {
		if err := options.SetInterOpNumThreads(config.InterOpNumThreads); err != nil {
			return fmt.Errorf("failed to set inter-op threads: %w", err)
		}
	}
	return nil
}
