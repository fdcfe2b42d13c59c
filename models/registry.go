package models

import (
	"fmt"
	"os"
	"strings"
)

// DefaultTopK is the number of ranked predictions kept when none is configured.
const DefaultTopK = 5

// registry holds the base configuration of every supported model.
var registry = map[Name]Config{
	ModelNameResNet50: {
		Name:          ModelNameResNet50,
		Family:        ModelFamilyImageNet,
		Precision:     PrecisionFP32,
		Input:         "data",
		Output:        "resnetv24_dense0_fwd",
		InputWidth:    224,
		InputHeight:   224,
		Classes:       1000,
		Normalization: NormalizeStandardize,
		Mean:          ImageNetMean,
		Std:           ImageNetStd,
		ChannelOrder:  ChannelOrderCHW,
		ColorMode:     ColorModeRGB,
		ApplySoftmax:  true,
	},
	ModelNameMobileNetV2: {
		Name:          ModelNameMobileNetV2,
		Family:        ModelFamilyImageNet,
		Precision:     PrecisionFP32,
		Input:         "input",
		Output:        "output",
		InputWidth:    224,
		InputHeight:   224,
		Classes:       1000,
		Normalization: NormalizeStandardize,
		Mean:          ImageNetMean,
		Std:           ImageNetStd,
		ChannelOrder:  ChannelOrderCHW,
		ColorMode:     ColorModeRGB,
		ApplySoftmax:  true,
	},
	ModelNameSqueezeNet: {
		Name:          ModelNameSqueezeNet,
		Family:        ModelFamilyImageNet,
		Precision:     PrecisionFP32,
		Input:         "data",
		Output:        "squeezenet0_flatten0_reshape0",
		InputWidth:    224,
		InputHeight:   224,
		Classes:       1000,
		Normalization: NormalizeStandardize,
		Mean:          ImageNetMean,
		Std:           ImageNetStd,
		ChannelOrder:  ChannelOrderCHW,
		ColorMode:     ColorModeRGB,
		ApplySoftmax:  true,
	},
}

// Names returns the registered model names.
func Names() []Name {
	return []Name{ModelNameResNet50, ModelNameMobileNetV2, ModelNameSqueezeNet}
}

// Lookup returns the base configuration of a registered model.
func Lookup(name Name) (Config, bool) {
	cfg, ok := registry[Name(strings.ToLower(strings.TrimSpace(string(name))))]
	return cfg, ok
}

// Model is a loaded classification model: its configuration and labels.
type Model struct {
	config Config
	labels *Labels
}

// NewModel creates a new classification model based on the specified name.
//
// Arguments:
//   - args: The model name, file locations and overrides.
//
// Returns:
//   - *Model: The configured model.
//   - error: An error if the name is unknown or the labels cannot be loaded.
//
// @example
// m, err := NewModel(NewModelArgs{Name: ModelNameResNet50, Path: "models/resnet50-v2-7.onnx"})
func NewModel(args NewModelArgs) (*Model, error) {
	cfg, ok := Lookup(args.Name)
	if !ok {
		return nil, fmt.Errorf("unsupported model name: %s", args.Name)
	}
	if args.Path == "" {
		return nil, fmt.Errorf("model %s: path is required", cfg.Name)
	}

	cfg.Path = args.Path
	if args.Input != "" {
		cfg.Input = args.Input
	}
	if args.Output != "" {
		cfg.Output = args.Output
	}
	cfg.TopK = args.TopK
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}

	labels := NewIndexLabels(cfg.Classes)
	if args.LabelsPath != "" {
		f, err := os.Open(args.LabelsPath)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", cfg.Name, err)
		}
		defer f.Close()

		labels, err = ParseLabels(f)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", cfg.Name, err)
		}
		if labels.Len() != cfg.Classes {
			return nil, fmt.Errorf("model %s: %d labels, want %d", cfg.Name, labels.Len(), cfg.Classes)
		}
	}

	return &Model{config: cfg, labels: labels}, nil
}

// NewModelFromConfig creates a model from an explicit configuration.
func NewModelFromConfig(cfg Config, labels *Labels) (*Model, error) {
	if cfg.InputWidth <= 0 || cfg.InputHeight <= 0 || cfg.Classes <= 0 {
		return nil, fmt.Errorf("model %s: invalid shape %dx%d with %d classes",
			cfg.Name, cfg.InputWidth, cfg.InputHeight, cfg.Classes)
	}
	if labels == nil {
		labels = NewIndexLabels(cfg.Classes)
	}
	if labels.Len() != cfg.Classes {
		return nil, fmt.Errorf("model %s: %d labels, want %d", cfg.Name, labels.Len(), cfg.Classes)
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &Model{config: cfg, labels: labels}, nil
}

// Options returns the model configuration.
func (m *Model) Options() Config {
	return m.config
}

// Labels returns the model's class labels.
func (m *Model) Labels() *Labels {
	return m.labels
}

// PostProcess turns a raw output vector into a ranked classification.
func (m *Model) PostProcess(output []float32) (*Classification, error) {
	if len(output) != m.config.Classes {
		return nil, fmt.Errorf("model %s: output has %d values, want %d", m.config.Name, len(output), m.config.Classes)
	}
	scores := output
	if m.config.ApplySoftmax {
		scores = Softmax(output)
	}
	return Classify(scores, m.labels, m.config.TopK)
}
