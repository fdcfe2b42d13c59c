// Package logger - zap logger construction and named component loggers.
package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the logging level.
type LogLevel string

// LogFormat represents the logging format.
type LogFormat string

const (
	// DebugLevel logs debug level messages.
	DebugLevel LogLevel = "DEBUG"
	// InfoLevel logs informational messages.
	InfoLevel LogLevel = "INFO"
	// WarnLevel logs warning messages.
	WarnLevel LogLevel = "WARN"
	// ErrorLevel logs error messages.
	ErrorLevel LogLevel = "ERROR"

	// FormatConsole indicates human-readable console format.
	FormatConsole LogFormat = "CONSOLE"
	// FormatJSON indicates structured JSON format.
	FormatJSON LogFormat = "JSON"
)

// Component names used with For.
const (
	ComponentCLI        = "cli"
	ComponentPipeline   = "pipeline"
	ComponentPreprocess = "preprocess"
	ComponentInference  = "inference"
	ComponentCapture    = "capture"
	ComponentCamera     = "camera"
	ComponentMetrics    = "metrics"
)

var (
	mu     sync.Mutex
	global *zap.Logger
)

// ParseLevel converts a level name to a zapcore.Level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(level))) {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseFormat converts a format name to a LogFormat, defaulting to console.
func ParseFormat(format string) LogFormat {
	if LogFormat(strings.ToUpper(strings.TrimSpace(format))) == FormatJSON {
		return FormatJSON
	}
	return FormatConsole
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05 MST"))
}

// New creates a zap logger writing to stderr. Stdout is left to the display.
//
// Arguments:
//   - level: The minimum level name, e.g. "debug".
//   - format: The output encoding.
//
// Returns:
//   - *zap.Logger: The configured logger.
func New(level string, format LogFormat) *zap.Logger {
	return NewWithSink(level, format, zapcore.Lock(os.Stderr))
}

// NewWithSink creates a zap logger writing to the given sink.
func NewWithSink(level string, format LogFormat, sink zapcore.WriteSyncer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if format == FormatJSON {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = timeEncoder
		encoderConfig.ConsoleSeparator = " | "
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(ParseLevel(level)))

	return zap.New(core, zap.AddCaller())
}

// Initialize installs l as the global logger returned by For.
func Initialize(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()

	global = l
	zap.ReplaceGlobals(l)
}

// For creates a named logger for a specific component. Before Initialize is
// called it returns a no-op logger.
func For(component string) *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()

	if global == nil {
		return zap.NewNop().Sugar().Named(component)
	}
	return global.Sugar().Named(component)
}

// Sync flushes any buffered log entries.
func Sync() error {
	mu.Lock()
	defer mu.Unlock()

	if global == nil {
		return nil
	}
	return global.Sync()
}
