// Package preprocess - Turns captured photos into model-ready pixel buffers.
//
// A Preprocessor is stateless between calls: every invocation owns the images
// and buffers it creates, so one instance can serve any number of captures.
package preprocess

import (
	"image"

	"github.com/nvr-ai/go-snapclass/failure"
	"github.com/nvr-ai/go-snapclass/images"
	"github.com/nvr-ai/go-snapclass/logger"
	"github.com/nvr-ai/go-snapclass/pixelbuf"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// Preprocessor resizes images and converts them into ARGB pixel buffers.
type Preprocessor struct {
	cfg        Config
	filter     images.ResampleFilter
	alloc      pixelbuf.Allocator
	newContext pixelbuf.ContextFactory
	log        *zap.SugaredLogger
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithAllocator sets the allocator used for pixel buffers.
func WithAllocator(a pixelbuf.Allocator) Option {
	return func(p *Preprocessor) { p.alloc = a }
}

// WithContextFactory sets the function that binds drawing contexts to buffers.
func WithContextFactory(f pixelbuf.ContextFactory) Option {
	return func(p *Preprocessor) { p.newContext = f }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(p *Preprocessor) { p.log = l }
}

// New creates a Preprocessor.
//
// Arguments:
//   - cfg: The target size and pixel configuration.
//   - opts: Optional overrides for allocation, context binding and logging.
//
// Returns:
//   - *Preprocessor: The preprocessor.
//   - error: An error if the configuration is invalid.
func New(cfg Config, opts ...Option) (*Preprocessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	filter, _ := images.ParseResampleFilter(string(cfg.Filter))

	p := &Preprocessor{
		cfg:        cfg,
		filter:     filter,
		alloc:      pixelbuf.HeapAllocator{},
		newContext: pixelbuf.NewContext,
		log:        logger.For(logger.ComponentPreprocess),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Config returns the preprocessor's configuration.
func (p *Preprocessor) Config() Config {
	return p.cfg
}

// Decode decodes an encoded photo.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: A RenderingFailure if the photo is undecodable.
func (p *Preprocessor) Decode(photo *images.Image) (image.Image, error) {
	img, err := photo.Decode()
	if err != nil {
		return nil, failure.New(failure.KindRendering, "preprocess.Decode", err)
	}
	return img, nil
}

// Resize stretches img onto a canvas of exactly width x height. The aspect
// ratio is not preserved and no letterboxing is applied.
//
// Arguments:
//   - img: The source image, of any positive size and colour model.
//   - width: The target width.
//   - height: The target height.
//
// Returns:
//   - image.Image: An *image.RGBA of exactly width x height.
//   - error: A RenderingFailure if the source or the rendering surface is unusable.
//
// @example
// resized, err := p.Resize(photo, 224, 224)
func (p *Preprocessor) Resize(img image.Image, width, height int) (image.Image, error) {
	const op = "preprocess.Resize"

	if img == nil {
		return nil, failure.Newf(failure.KindRendering, op, "nil source image")
	}
	src := img.Bounds()
	if src.Empty() {
		return nil, failure.Newf(failure.KindRendering, op, "empty source bounds %v", src)
	}
	if width <= 0 || height <= 0 {
		return nil, failure.Newf(failure.KindRendering, op, "invalid target dimensions %dx%d", width, height)
	}
	if !p.cfg.SurfaceFits(width, height) {
		return nil, failure.Newf(failure.KindRendering, op,
			"rendering surface %dx%d exceeds %d pixels", width, height, p.cfg.surfaceLimit())
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	scaled := images.Scale(img, width, height, p.filter)
	draw.Draw(canvas, canvas.Bounds(), scaled, scaled.Bounds().Min, draw.Src)

	p.log.Debugw("resized image",
		"src", src.Size(),
		"dst", canvas.Bounds().Size(),
		"filter", p.filter)

	return canvas, nil
}

// ToPixelBuffer renders img into a newly allocated ARGB buffer of the same
// size. The image must already be at the configured target dimensions.
//
// The buffer is locked only while drawing and is always unlocked before
// returning, panics included. On failure no buffer is returned.
//
// Returns:
//   - *pixelbuf.Buffer: The rendered, unlocked buffer.
//   - error: A BufferAllocationFailure, ContextCreationFailure or RenderingFailure.
func (p *Preprocessor) ToPixelBuffer(img image.Image) (*pixelbuf.Buffer, error) {
	const op = "preprocess.ToPixelBuffer"

	if img == nil {
		return nil, failure.Newf(failure.KindRendering, op, "nil source image")
	}
	size := img.Bounds().Size()
	if size.X != p.cfg.Width || size.Y != p.cfg.Height {
		return nil, failure.Newf(failure.KindRendering, op,
			"image is %dx%d, want %dx%d", size.X, size.Y, p.cfg.Width, p.cfg.Height)
	}

	buf, err := pixelbuf.NewBuffer(p.alloc, size.X, size.Y, pixelbuf.FormatARGB32)
	if err != nil {
		return nil, failure.Tag(failure.KindBufferAllocation, op, err)
	}

	if err := p.render(buf, img); err != nil {
		return nil, err
	}

	p.log.Debugw("rendered pixel buffer",
		"format", buf.Format(),
		"size", size,
		"bytes", buf.Len())

	return buf, nil
}

func (p *Preprocessor) render(buf *pixelbuf.Buffer, img image.Image) error {
	const op = "preprocess.render"

	buf.Lock()
	defer func() {
		if err := buf.Unlock(); err != nil {
			p.log.Errorw("failed to unlock pixel buffer", "error", err)
		}
	}()

	ctx, err := p.newContext(buf, p.cfg.Padding)
	if err != nil {
		return failure.Tag(failure.KindContextCreation, op, err)
	}
	if ctx == nil {
		return failure.Newf(failure.KindContextCreation, op, "no drawing context")
	}

	ctx.Clear()

	// Flip the bottom-left device space so rows land top-to-bottom.
	ctx.TranslateBy(0, float64(buf.Height()))
	ctx.ScaleBy(1, -1)

	if err := ctx.DrawImage(img, image.Rect(0, 0, buf.Width(), buf.Height())); err != nil {
		return failure.Tag(failure.KindRendering, op, err)
	}

	return nil
}

// Process resizes img to the configured target and renders it into a buffer.
func (p *Preprocessor) Process(img image.Image) (*pixelbuf.Buffer, error) {
	resized, err := p.Resize(img, p.cfg.Width, p.cfg.Height)
	if err != nil {
		return nil, err
	}
	return p.ToPixelBuffer(resized)
}
