// Package models - Classification model definitions, labels and output post-processing.
package models

// Name is the unique identifier of a model.
type Name string

const (
	// ModelNameResNet50 is ResNet-50 v2 trained on ImageNet.
	ModelNameResNet50 Name = "resnet50"
	// ModelNameMobileNetV2 is MobileNet v2 trained on ImageNet.
	ModelNameMobileNetV2 Name = "mobilenetv2"
	// ModelNameSqueezeNet is SqueezeNet 1.1 trained on ImageNet.
	ModelNameSqueezeNet Name = "squeezenet"
)

// Family is the dataset a model's classes come from.
type Family string

const (
	// ModelFamilyImageNet is the 1000-class ILSVRC-2012 label set.
	ModelFamilyImageNet Family = "imagenet"
)

// Precision represents the numeric precision of the model weights.
type Precision string

const (
	// PrecisionFP32 represents 32-bit floating point precision.
	PrecisionFP32 Precision = "FP32"
	// PrecisionFP16 represents 16-bit floating point precision.
	PrecisionFP16 Precision = "FP16"
	// PrecisionINT8 represents 8-bit integer precision.
	PrecisionINT8 Precision = "INT8"
)

// NormalizationType defines how pixel values are normalized.
type NormalizationType int

const (
	// NormalizeNone keeps pixel values as 0-255.
	NormalizeNone NormalizationType = iota
	// NormalizeZeroToOne scales pixel values to [0, 1].
	NormalizeZeroToOne
	// NormalizeMinusOneToOne scales pixel values to [-1, 1].
	NormalizeMinusOneToOne
	// NormalizeStandardize scales to [0, 1] then applies mean and std per channel.
	NormalizeStandardize
)

// ChannelOrder defines the ordering of image channels.
type ChannelOrder int

const (
	// ChannelOrderCHW is Channel-Height-Width ordering (common for ONNX).
	ChannelOrderCHW ChannelOrder = iota
	// ChannelOrderHWC is Height-Width-Channel ordering.
	ChannelOrderHWC
)

// ColorMode defines the channel order of colour data.
type ColorMode int

const (
	// ColorModeRGB is standard RGB color mode.
	ColorModeRGB ColorMode = iota
	// ColorModeBGR is BGR color mode (common for OpenCV-trained models).
	ColorModeBGR
)

// ImageNetMean and ImageNetStd are the standard ImageNet normalization constants.
var (
	ImageNetMean = []float32{0.485, 0.456, 0.406}
	ImageNetStd  = []float32{0.229, 0.224, 0.225}
)

// Config describes a classification model and how to feed it.
type Config struct {
	Name      Name
	Family    Family
	Path      string
	Precision Precision

	// Input and output node names; empty names are read from the model.
	Input  string
	Output string

	InputWidth  int
	InputHeight int
	Classes     int

	Normalization NormalizationType
	Mean          []float32
	Std           []float32
	ChannelOrder  ChannelOrder
	ColorMode     ColorMode

	// ApplySoftmax converts raw logits to probabilities.
	ApplySoftmax bool
	// TopK is the number of ranked predictions kept.
	TopK int
}

// InputShape returns the model's input tensor shape.
func (c Config) InputShape() []int64 {
	if c.ChannelOrder == ChannelOrderHWC {
		return []int64{1, int64(c.InputHeight), int64(c.InputWidth), 3}
	}
	return []int64{1, 3, int64(c.InputHeight), int64(c.InputWidth)}
}

// OutputShape returns the model's output tensor shape.
func (c Config) OutputShape() []int64 {
	return []int64{1, int64(c.Classes)}
}

// NewModelArgs is the arguments for creating a new model.
type NewModelArgs struct {
	Name       Name   `json:"name" yaml:"name"`
	Path       string `json:"path" yaml:"path"`
	LabelsPath string `json:"labels" yaml:"labels"`
	Input      string `json:"input" yaml:"input"`
	Output     string `json:"output" yaml:"output"`
	TopK       int    `json:"topK" yaml:"topK"`
}
