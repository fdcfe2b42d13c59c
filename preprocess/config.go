package preprocess

import (
	"math"

	"github.com/nvr-ai/go-snapclass/images"
	"github.com/nvr-ai/go-snapclass/pixelbuf"
	"github.com/pkg/errors"
)

const (
	// DefaultWidth is the model input width.
	DefaultWidth = 224
	// DefaultHeight is the model input height.
	DefaultHeight = 224
	// DefaultMaxPixels caps the rendering surface when MaxPixels is zero.
	DefaultMaxPixels = math.MaxInt32 / 4
)

// Config controls the size and pixel content of produced buffers.
type Config struct {
	// Width of the resized image and pixel buffer.
	Width int `yaml:"width" json:"width"`
	// Height of the resized image and pixel buffer.
	Height int `yaml:"height" json:"height"`
	// Filter is the resampling filter used for stretching.
	Filter images.ResampleFilter `yaml:"filter" json:"filter"`
	// Padding is written to the leading byte of every pixel.
	Padding uint8 `yaml:"padding" json:"padding"`
	// MaxPixels caps the rendering surface; zero means DefaultMaxPixels.
	MaxPixels int `yaml:"maxPixels" json:"maxPixels"`
}

// DefaultConfig returns the 224x224 ARGB configuration.
func DefaultConfig() Config {
	return Config{
		Width:   DefaultWidth,
		Height:  DefaultHeight,
		Filter:  images.DefaultResampleFilter,
		Padding: pixelbuf.DefaultPadding,
	}
}

// Validate checks that the configuration can produce buffers.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("invalid target dimensions %dx%d", c.Width, c.Height)
	}
	if c.MaxPixels < 0 {
		return errors.Errorf("invalid max pixels %d", c.MaxPixels)
	}
	if !c.SurfaceFits(c.Width, c.Height) {
		return errors.Errorf("target %dx%d exceeds max pixels %d", c.Width, c.Height, c.surfaceLimit())
	}
	if _, err := images.ParseResampleFilter(string(c.Filter)); err != nil {
		return err
	}
	return nil
}

// SurfaceFits reports whether a width x height rendering surface stays within
// the pixel limit. Both dimensions must be positive.
func (c Config) SurfaceFits(width, height int) bool {
	return width <= c.surfaceLimit()/height
}

func (c Config) surfaceLimit() int {
	if c.MaxPixels > 0 {
		return c.MaxPixels
	}
	return DefaultMaxPixels
}
