// Package config - Application configuration from YAML, .env and environment.
//
// Values are resolved in order: defaults, the YAML file, then SNAPCLASS_*
// environment variables (a .env file is loaded into the environment first
// without overriding variables that are already set).
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/nvr-ai/go-snapclass/capture/camera"
	"github.com/nvr-ai/go-snapclass/images"
	"github.com/nvr-ai/go-snapclass/inference/providers"
	"github.com/nvr-ai/go-snapclass/models"
	"github.com/nvr-ai/go-snapclass/preprocess"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SNAPCLASS_"

// Environment variables.
const (
	EnvLogLevel       = EnvPrefix + "LOG_LEVEL"
	EnvLogFormat      = EnvPrefix + "LOG_FORMAT"
	EnvSource         = EnvPrefix + "SOURCE"
	EnvImagePath      = EnvPrefix + "IMAGE_PATH"
	EnvCameraDevice   = EnvPrefix + "CAMERA_DEVICE"
	EnvResolution     = EnvPrefix + "CAMERA_RESOLUTION"
	EnvFilter         = EnvPrefix + "RESAMPLE_FILTER"
	EnvModelName      = EnvPrefix + "MODEL_NAME"
	EnvModelPath      = EnvPrefix + "MODEL_PATH"
	EnvLabelsPath     = EnvPrefix + "LABELS_PATH"
	EnvTopK           = EnvPrefix + "TOP_K"
	EnvProvider       = EnvPrefix + "PROVIDER"
	EnvLibraryPath    = EnvPrefix + "ORT_LIBRARY_PATH"
	EnvIntraOpThreads = EnvPrefix + "INTRA_OP_THREADS"
	EnvMetricsAddr    = EnvPrefix + "METRICS_ADDR"
)

// SourceKind selects the capture collaborator.
type SourceKind string

const (
	// SourceCamera captures from a video device.
	SourceCamera SourceKind = "camera"
	// SourceFile captures from an image file or a directory of images.
	SourceFile SourceKind = "file"
)

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CaptureConfig configures the capture collaborator.
type CaptureConfig struct {
	Source  SourceKind    `yaml:"source"`
	Path    string        `yaml:"path"`
	Camera  camera.Config `yaml:"camera"`
	Timeout time.Duration `yaml:"timeout"`
}

// InferenceConfig configures the classifier.
type InferenceConfig struct {
	Model    models.NewModelArgs `yaml:"model"`
	Provider providers.Config    `yaml:"provider"`
	Timeout  time.Duration       `yaml:"timeout"`
}

// MetricsConfig configures the metrics endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the application configuration.
type Config struct {
	Log        LogConfig         `yaml:"log"`
	Capture    CaptureConfig     `yaml:"capture"`
	Preprocess preprocess.Config `yaml:"preprocess"`
	Inference  InferenceConfig   `yaml:"inference"`
	Metrics    MetricsConfig     `yaml:"metrics"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "INFO", Format: "CONSOLE"},
		Capture: CaptureConfig{
			Source:  SourceCamera,
			Camera:  camera.DefaultConfig(),
			Timeout: 10 * time.Second,
		},
		Preprocess: preprocess.DefaultConfig(),
		Inference: InferenceConfig{
			Model:    models.NewModelArgs{Name: models.ModelNameResNet50, TopK: models.DefaultTopK},
			Provider: providers.DefaultConfig(),
			Timeout:  30 * time.Second,
		},
	}
}

// Load resolves and validates the configuration.
//
// Arguments:
//   - path: The YAML file; empty uses defaults only.
//   - envFiles: .env files to load; missing files are skipped.
//
// Returns:
//   - Config: The resolved configuration.
//   - error: An error if a file is unreadable or the result is invalid.
func Load(path string, envFiles ...string) (Config, error) {
	cfg, err := Read(path, envFiles...)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read resolves the configuration without validating it, so callers can
// apply further overrides first.
func Read(path string, envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "failed to parse config file %s", path)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "failed to load %s", f)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Log.Level = getEnv(EnvLogLevel, c.Log.Level)
	c.Log.Format = getEnv(EnvLogFormat, c.Log.Format)

	c.Capture.Source = SourceKind(getEnv(EnvSource, string(c.Capture.Source)))
	c.Capture.Path = getEnv(EnvImagePath, c.Capture.Path)
	c.Capture.Camera.Device = getEnv(EnvCameraDevice, c.Capture.Camera.Device)
	c.Capture.Camera.Resolution = images.ResolutionAlias(getEnv(EnvResolution, string(c.Capture.Camera.Resolution)))

	c.Preprocess.Filter = images.ResampleFilter(getEnv(EnvFilter, string(c.Preprocess.Filter)))

	c.Inference.Model.Name = models.Name(getEnv(EnvModelName, string(c.Inference.Model.Name)))
	c.Inference.Model.Path = getEnv(EnvModelPath, c.Inference.Model.Path)
	c.Inference.Model.LabelsPath = getEnv(EnvLabelsPath, c.Inference.Model.LabelsPath)
	c.Inference.Provider.Backend = providers.ProviderBackend(getEnv(EnvProvider, string(c.Inference.Provider.Backend)))
	c.Inference.Provider.LibraryPath = getEnv(EnvLibraryPath, c.Inference.Provider.LibraryPath)

	var err error
	if c.Inference.Model.TopK, err = getEnvAsInt(EnvTopK, c.Inference.Model.TopK); err != nil {
		return err
	}
	if c.Inference.Provider.IntraOpNumThreads, err = getEnvAsInt(EnvIntraOpThreads, c.Inference.Provider.IntraOpNumThreads); err != nil {
		return err
	}

	c.Metrics.Addr = getEnv(EnvMetricsAddr, c.Metrics.Addr)
	return nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	switch c.Capture.Source {
	case SourceCamera:
		if err := c.Capture.Camera.Validate(); err != nil {
			return errors.Wrap(err, "capture")
		}
	case SourceFile:
		if c.Capture.Path == "" {
			return errors.New("capture: path is required for the file source")
		}
	default:
		return errors.Errorf("capture: unknown source %q", c.Capture.Source)
	}
	if c.Capture.Timeout < 0 || c.Inference.Timeout < 0 {
		return errors.New("timeouts must not be negative")
	}

	if err := c.Preprocess.Validate(); err != nil {
		return errors.Wrap(err, "preprocess")
	}

	model, ok := models.Lookup(c.Inference.Model.Name)
	if !ok {
		return errors.Errorf("inference: unsupported model %q", c.Inference.Model.Name)
	}
	if c.Inference.Model.Path == "" {
		return errors.New("inference: model path is required")
	}
	if c.Preprocess.Width != model.InputWidth || c.Preprocess.Height != model.InputHeight {
		return errors.Errorf("preprocess target %dx%d does not match %s input %dx%d",
			c.Preprocess.Width, c.Preprocess.Height, model.Name, model.InputWidth, model.InputHeight)
	}
	if c.Inference.Model.TopK < 0 {
		return errors.Errorf("inference: topK must not be negative, got %d", c.Inference.Model.TopK)
	}
	if _, err := providers.ParseBackend(string(c.Inference.Provider.Backend)); err != nil {
		return errors.Wrap(err, "inference")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return n, nil
}
