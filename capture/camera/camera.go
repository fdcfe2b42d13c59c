// Package camera - Capture source backed by an OpenCV video device.
package camera

import (
	"context"
	"fmt"
	"sync"

	"github.com/nvr-ai/go-snapclass/capture"
	"github.com/nvr-ai/go-snapclass/images"
	"github.com/nvr-ai/go-snapclass/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// DefaultMaxEmptyFrames bounds how many empty frames are skipped before a
// capture gives up.
const DefaultMaxEmptyFrames = 30

// Config holds camera settings.
type Config struct {
	// Device is a device index ("0") or a file/stream URL.
	Device string `json:"device" yaml:"device"`
	// Resolution is a capture preset alias, e.g. "vga" or "1080p". Empty keeps
	// the device default.
	Resolution images.ResolutionAlias `json:"resolution" yaml:"resolution"`
	// MaxEmptyFrames bounds skipped empty frames per capture.
	MaxEmptyFrames int `json:"maxEmptyFrames" yaml:"maxEmptyFrames"`
}

// DefaultConfig returns the default camera configuration.
func DefaultConfig() Config {
	return Config{
		Device:         "0",
		Resolution:     images.ResolutionAliasVGA,
		MaxEmptyFrames: DefaultMaxEmptyFrames,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Device == "" {
		return errors.New("camera device is required")
	}
	if c.Resolution != "" {
		if _, ok := images.GetResolutionByAlias(string(c.Resolution)); !ok {
			return fmt.Errorf("unknown camera resolution %q", c.Resolution)
		}
	}
	if c.MaxEmptyFrames < 0 {
		return fmt.Errorf("maxEmptyFrames must not be negative, got %d", c.MaxEmptyFrames)
	}
	return nil
}

// Camera is a capture.Source reading frames from a video device and
// delivering them as JPEG photos.
type Camera struct {
	mu     sync.Mutex
	cfg    Config
	webcam *gocv.VideoCapture
	frame  gocv.Mat
	log    *zap.SugaredLogger
}

var _ capture.Source = (*Camera)(nil)

// Open opens the video device.
//
// Arguments:
//   - cfg: The camera configuration.
//
// Returns:
//   - *Camera: The opened camera.
//   - error: An error if the device cannot be opened.
func Open(cfg Config) (*Camera, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxEmptyFrames == 0 {
		cfg.MaxEmptyFrames = DefaultMaxEmptyFrames
	}

	webcam, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open camera %s", cfg.Device)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return nil, fmt.Errorf("camera %s is not available", cfg.Device)
	}

	log := logger.For(logger.ComponentCamera)
	if res, ok := images.GetResolutionByAlias(string(cfg.Resolution)); ok {
		webcam.Set(gocv.VideoCaptureFrameWidth, float64(res.Pixels.Width))
		webcam.Set(gocv.VideoCaptureFrameHeight, float64(res.Pixels.Height))
		log.Infow("camera resolution requested", "device", cfg.Device, "resolution", res.String())
	}

	return &Camera{
		cfg:    cfg,
		webcam: webcam,
		frame:  gocv.NewMat(),
		log:    log,
	}, nil
}

// Capture reads the next non-empty frame and encodes it as JPEG.
func (c *Camera) Capture(ctx context.Context) (*images.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webcam == nil {
		return nil, capture.ErrClosed
	}

	for skipped := 0; ; skipped++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if skipped > c.cfg.MaxEmptyFrames {
			return nil, fmt.Errorf("camera %s returned %d empty frames", c.cfg.Device, skipped)
		}
		if ok := c.webcam.Read(&c.frame); !ok {
			return nil, fmt.Errorf("cannot read device %s", c.cfg.Device)
		}
		if !c.frame.Empty() {
			break
		}
	}

	photo, err := EncodeFrame(c.frame)
	if err != nil {
		return nil, err
	}
	c.log.Debugw("frame captured", "width", photo.Width, "height", photo.Height, "bytes", len(photo.Data))
	return photo, nil
}

// Close releases the device.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webcam == nil {
		return nil
	}
	err := c.webcam.Close()
	c.webcam = nil
	if cerr := c.frame.Close(); err == nil {
		err = cerr
	}
	return err
}

// EncodeFrame encodes a BGR frame as a JPEG photo.
//
// Arguments:
//   - frame: The frame to encode.
//
// Returns:
//   - *images.Image: The JPEG photo.
//   - error: An error if the frame is empty or encoding fails.
func EncodeFrame(frame gocv.Mat) (*images.Image, error) {
	if frame.Empty() {
		return nil, images.ErrEmptyImage
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode frame")
	}
	defer buf.Close()

	data := append([]byte(nil), buf.GetBytes()...)
	return &images.Image{
		Format: images.FormatJPEG,
		Data:   data,
		Width:  frame.Cols(),
		Height: frame.Rows(),
	}, nil
}
