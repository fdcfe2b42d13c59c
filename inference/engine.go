// Package inference - Classification engine over ONNX Runtime.
package inference

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nvr-ai/go-snapclass/failure"
	"github.com/nvr-ai/go-snapclass/inference/providers"
	"github.com/nvr-ai/go-snapclass/logger"
	"github.com/nvr-ai/go-snapclass/models"
	"github.com/nvr-ai/go-snapclass/pixelbuf"
	"go.uber.org/zap"
)

// Engine defines the interface for classification engines.
type Engine interface {
	// Classify labels the image held in buf.
	Classify(ctx context.Context, buf *pixelbuf.Buffer) (*models.Classification, error)
	// Close releases the engine's native resources.
	Close() error
}

// EngineBuilder builds an Engine with a fluent API. The first error sticks
// and is returned by Build.
type EngineBuilder struct {
	providerCfg providers.Config
	provider    providers.ExecutionProvider
	model       *models.Model
	log         *zap.SugaredLogger
	err         error
}

// NewEngineBuilder creates a new engine builder.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{log: logger.For(logger.ComponentInference)}
}

// WithProvider sets the execution provider for the engine.
//
// Arguments:
//   - cfg: The provider configuration.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func (b *EngineBuilder) WithProvider(cfg providers.Config) *EngineBuilder {
	if b.HasError() {
		return b
	}

	opts, err := cfg.Options()
	if err != nil {
		b.err = err
		return b
	}
	provider, err := providers.NewProvider(opts)
	if err != nil {
		b.err = err
		return b
	}
	b.providerCfg = cfg
	b.provider = provider
	return b
}

// WithModel sets the model for the engine.
//
// Arguments:
//   - args: The model arguments.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func (b *EngineBuilder) WithModel(args models.NewModelArgs) *EngineBuilder {
	if b.HasError() {
		return b
	}

	m, err := models.NewModel(args)
	if err != nil {
		b.err = err
		return b
	}
	b.model = m
	return b
}

// WithLogger sets the logger for the engine.
func (b *EngineBuilder) WithLogger(l *zap.SugaredLogger) *EngineBuilder {
	if l != nil {
		b.log = l
	}
	return b
}

// HasError checks if the engine builder has errors.
//
// Returns:
//   - bool: True if there are errors, false otherwise.
func (b *EngineBuilder) HasError() bool {
	return b.err != nil
}

// Build initializes the runtime and creates the session.
//
// Returns:
//   - Engine: The engine.
//   - error: The first configuration error, or a session creation error.
func (b *EngineBuilder) Build() (Engine, error) {
	if b.HasError() {
		return nil, b.err
	}
	if b.provider == nil {
		return nil, errors.New("provider not configured")
	}
	if b.model == nil {
		return nil, errors.New("model not configured")
	}

	if err := providers.InitializeEnvironment(b.providerCfg.LibraryPath); err != nil {
		return nil, err
	}

	cfg := b.model.Options()
	opt := providers.DefaultOptimizationConfig()
	opt.IntraOpNumThreads = b.providerCfg.IntraOpNumThreads
	opt.InterOpNumThreads = b.providerCfg.InterOpNumThreads

	session, err := providers.NewSession(b.provider, providers.NewSessionArgs{
		ModelPath:    cfg.Path,
		InputName:    cfg.Input,
		OutputName:   cfg.Output,
		InputShape:   cfg.InputShape(),
		OutputShape:  cfg.OutputShape(),
		Optimization: &opt,
	})
	if err != nil {
		return nil, err
	}

	b.log.Infow("inference engine ready",
		"model", cfg.Name,
		"backend", b.provider.Backend(),
		"input", cfg.InputShape(),
		"classes", cfg.Classes)

	return &engine{
		provider: b.provider,
		model:    b.model,
		session:  session,
		log:      b.log,
	}, nil
}

// MustBuild builds the engine and panics if there is an error.
//
// Returns:
//   - Engine: The engine.
func (b *EngineBuilder) MustBuild() Engine {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}

// engine implements the Engine interface. Session tensors are preallocated,
// so calls are serialized.
type engine struct {
	mu       sync.Mutex
	provider providers.ExecutionProvider
	model    *models.Model
	session  *providers.Session
	log      *zap.SugaredLogger
}

// Classify runs the model on buf.
//
// Arguments:
//   - ctx: Bounds the wait; a running model invocation is not interrupted.
//   - buf: The rendered pixel buffer.
//
// Returns:
//   - *models.Classification: The ranked result.
//   - error: An InferenceFailure.
func (e *engine) Classify(ctx context.Context, buf *pixelbuf.Buffer) (*models.Classification, error) {
	const op = "inference.Classify"

	if err := ctx.Err(); err != nil {
		return nil, failure.New(failure.KindInference, op, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil || e.session.Input == nil || e.session.Output == nil {
		return nil, failure.New(failure.KindInference, op, errors.New("engine is closed"))
	}

	start := time.Now()
	cfg := e.model.Options()

	if _, err := BufferToTensor(buf, cfg, e.session.Input.GetData()); err != nil {
		return nil, failure.New(failure.KindInference, op, err)
	}
	if err := e.session.Run(); err != nil {
		return nil, failure.New(failure.KindInference, op, err)
	}

	out := append([]float32(nil), e.session.Output.GetData()...)
	c, err := e.model.PostProcess(out)
	if err != nil {
		return nil, failure.New(failure.KindInference, op, err)
	}

	e.log.Debugw("classified",
		"label", c.Label,
		"confidence", c.Confidence,
		"elapsed", time.Since(start))

	return c, nil
}

// Close releases the session.
func (e *engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil
	}
	err := e.session.Close()
	e.session = nil
	return err
}
