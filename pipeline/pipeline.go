// Package pipeline - Per-capture orchestration from shutter press to label.
//
// A capture event runs capture, decode, resize, pixel buffer rendering and
// classification in order. All state lives in the invocation; the pipeline
// only tracks whether a capture is in flight.
package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nvr-ai/go-snapclass/capture"
	"github.com/nvr-ai/go-snapclass/failure"
	"github.com/nvr-ai/go-snapclass/images"
	"github.com/nvr-ai/go-snapclass/logger"
	"github.com/nvr-ai/go-snapclass/metrics"
	"github.com/nvr-ai/go-snapclass/models"
	"github.com/nvr-ai/go-snapclass/pixelbuf"
	"github.com/nvr-ai/go-snapclass/preprocess"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrCaptureInFlight is returned when a capture is requested while another
// one is still running.
var ErrCaptureInFlight = errors.New("a capture is already in flight")

// Classifier labels a rendered pixel buffer.
type Classifier interface {
	Classify(ctx context.Context, buf *pixelbuf.Buffer) (*models.Classification, error)
}

// Result is the outcome of one capture event. Exactly one of Label or Err is
// meaningful: Err is set whenever the capture failed.
type Result struct {
	// ID identifies the capture event.
	ID uuid.UUID
	// Label is the top-1 class name.
	Label string
	// Confidence is the top-1 score.
	Confidence float32
	// TopK holds the ranked predictions.
	TopK []models.Prediction
	// Kind is the failure class. It is failure.KindNone on success and for a
	// rejected shutter press, which carries ErrCaptureInFlight in Err.
	Kind failure.Kind
	// Err is the failure, if any.
	Err error
	// Duration is the wall time of the whole capture event.
	Duration time.Duration
}

// OK reports whether the capture produced a label.
func (r Result) OK() bool {
	return r.Err == nil
}

// Rejected reports whether the shutter press was refused because another
// capture was in flight. A rejected Result never ran any stage.
func (r Result) Rejected() bool {
	return errors.Is(r.Err, ErrCaptureInFlight)
}

// Pipeline runs capture events.
type Pipeline struct {
	source     capture.Source
	pre        *preprocess.Preprocessor
	classifier Classifier
	metrics    *metrics.Recorder
	log        *zap.SugaredLogger

	captureTimeout   time.Duration
	inferenceTimeout time.Duration

	inFlight atomic.Bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics records stage timings and failures.
func WithMetrics(r *metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = r }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithTimeouts bounds waiting on capture and inference. Zero means unbounded.
func WithTimeouts(captureTimeout, inferenceTimeout time.Duration) Option {
	return func(p *Pipeline) {
		p.captureTimeout = captureTimeout
		p.inferenceTimeout = inferenceTimeout
	}
}

// New creates a pipeline.
//
// Arguments:
//   - source: The capture collaborator.
//   - pre: The image preprocessor.
//   - classifier: The inference collaborator.
//   - opts: Optional settings.
//
// Returns:
//   - *Pipeline: The pipeline.
//   - error: An error if a collaborator is missing.
func New(source capture.Source, pre *preprocess.Preprocessor, classifier Classifier, opts ...Option) (*Pipeline, error) {
	if source == nil {
		return nil, errors.New("capture source is required")
	}
	if pre == nil {
		return nil, errors.New("preprocessor is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}

	p := &Pipeline{
		source:     source,
		pre:        pre,
		classifier: classifier,
		log:        logger.For(logger.ComponentPipeline),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Busy reports whether a capture is in flight.
func (p *Pipeline) Busy() bool {
	return p.inFlight.Load()
}

// Run performs one capture event synchronously.
//
// Arguments:
//   - ctx: Bounds waiting on capture and inference.
//
// Returns:
//   - Result: The tagged outcome. A concurrent capture yields ErrCaptureInFlight.
func (p *Pipeline) Run(ctx context.Context) Result {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.metrics.Rejected()
		return Result{ID: uuid.New(), Err: ErrCaptureInFlight}
	}
	defer p.inFlight.Store(false)

	return p.run(ctx)
}

// Trigger starts a capture event on a background goroutine and delivers its
// Result on results. The in-flight guard is released before delivery.
//
// Arguments:
//   - ctx: Bounds the capture; a cancelled ctx also abandons delivery.
//   - results: The channel owned by the display side.
//
// Returns:
//   - error: ErrCaptureInFlight if a capture is already running.
func (p *Pipeline) Trigger(ctx context.Context, results chan<- Result) error {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.metrics.Rejected()
		return ErrCaptureInFlight
	}

	go func() {
		r := p.run(ctx)
		p.inFlight.Store(false)

		select {
		case results <- r:
		case <-ctx.Done():
			p.log.Warnw("result dropped", "id", r.ID.String(), "error", ctx.Err())
		}
	}()
	return nil
}

func (p *Pipeline) run(ctx context.Context) Result {
	start := time.Now()
	r := Result{ID: uuid.New()}
	log := p.log.With("id", r.ID.String())

	c, err := p.stages(ctx, log)
	r.Duration = time.Since(start)
	p.metrics.ObserveStage(metrics.StageTotal, r.Duration)

	if err != nil {
		r.Err = err
		r.Kind = failure.KindOf(err)
		p.metrics.CaptureDone(r.Kind)
		log.Errorw("capture failed", "kind", r.Kind, "error", err, "elapsed", r.Duration)
		return r
	}

	r.Label = c.Label
	r.Confidence = c.Confidence
	r.TopK = c.TopK
	p.metrics.CaptureDone(failure.KindNone)
	log.Infow("capture classified", "label", r.Label, "confidence", r.Confidence, "elapsed", r.Duration)
	return r
}

func (p *Pipeline) stages(ctx context.Context, log *zap.SugaredLogger) (*models.Classification, error) {
	const op = "pipeline.Run"

	t := time.Now()
	shot, err := p.shoot(ctx)
	p.metrics.ObserveStage(metrics.StageCapture, time.Since(t))
	if err != nil {
		return nil, err
	}

	t = time.Now()
	img, err := p.pre.Decode(shot.Photo)
	p.metrics.ObserveStage(metrics.StageDecode, time.Since(t))
	if err != nil {
		return nil, err
	}
	log.Debugw("photo decoded", "bounds", img.Bounds(), "format", shot.Photo.Format)

	cfg := p.pre.Config()

	t = time.Now()
	resized, err := p.pre.Resize(img, cfg.Width, cfg.Height)
	p.metrics.ObserveStage(metrics.StageResize, time.Since(t))
	if err != nil {
		return nil, err
	}

	t = time.Now()
	buf, err := p.pre.ToPixelBuffer(resized)
	p.metrics.ObserveStage(metrics.StagePixelBuffer, time.Since(t))
	if err != nil {
		return nil, err
	}
	if p.log.Level().Enabled(zapcore.DebugLevel) {
		log.Debugw("pixel buffer rendered", "format", buf.Format(), "checksum", images.ComputeChecksum(buf.Bytes()))
	}

	t = time.Now()
	inferCtx, cancel := withTimeout(ctx, p.inferenceTimeout)
	defer cancel()
	c, err := p.classifier.Classify(inferCtx, buf)
	p.metrics.ObserveStage(metrics.StageInference, time.Since(t))
	if err != nil {
		return nil, failure.Tag(failure.KindInference, op, err)
	}
	if c == nil {
		return nil, failure.Newf(failure.KindInference, op, "classifier returned no result")
	}
	return c, nil
}

// shoot waits for one photo. A source that ignores cancellation is abandoned
// once the capture timeout expires; its late shot lands in the buffered
// channel and is discarded.
func (p *Pipeline) shoot(ctx context.Context) (capture.Shot, error) {
	const op = "pipeline.shoot"

	captureCtx, cancel := withTimeout(ctx, p.captureTimeout)
	defer cancel()

	select {
	case shot := <-capture.Shoot(captureCtx, p.source):
		return shot, shot.Err
	case <-captureCtx.Done():
		return capture.Shot{}, failure.New(failure.KindCapture, op, captureCtx.Err())
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
