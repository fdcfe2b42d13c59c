// Package capture - Photo sources and the single-shot capture task.
package capture

import (
	"context"
	"os"
	"sync"

	"github.com/nvr-ai/go-snapclass/failure"
	"github.com/nvr-ai/go-snapclass/images"
	"github.com/nvr-ai/go-snapclass/util"
	"github.com/pkg/errors"
)

// Source delivers encoded photos, one per Capture call.
type Source interface {
	// Capture takes one photo.
	Capture(ctx context.Context) (*images.Image, error)
	// Close releases the source.
	Close() error
}

// ErrNoPhotos is returned by sources that have nothing to deliver.
var ErrNoPhotos = errors.New("no photos available")

// ErrClosed is returned by a closed source.
var ErrClosed = errors.New("capture source is closed")

// StaticSource cycles through a fixed set of in-memory photos.
type StaticSource struct {
	mu     sync.Mutex
	photos []*images.Image
	next   int
	closed bool
}

// NewStaticSource creates a source over photos.
func NewStaticSource(photos ...*images.Image) *StaticSource {
	return &StaticSource{photos: photos}
}

// Capture implements Source.
func (s *StaticSource) Capture(ctx context.Context) (*images.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if len(s.photos) == 0 {
		return nil, ErrNoPhotos
	}
	p := s.photos[s.next%len(s.photos)]
	s.next++
	return p, nil
}

// Close implements Source.
func (s *StaticSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// NewFileSource creates a source from a single image file or a directory of
// images. Directory contents are read once, in path order.
//
// Arguments:
//   - path: A file or directory path.
//
// Returns:
//   - *StaticSource: The source.
//   - error: An error if the path cannot be read or holds no images.
func NewFileSource(path string) (*StaticSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open capture path")
	}

	var files []util.ImageFile
	if info.IsDir() {
		files, err = util.LoadDirectoryImageFiles(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load images from %s", path)
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		files = []util.ImageFile{{Path: path, Data: data}}
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrNoPhotos, "%s", path)
	}

	photos := make([]*images.Image, 0, len(files))
	for _, f := range files {
		photos = append(photos, &images.Image{
			Format: images.DetectFormat(f.Data),
			Data:   f.Data,
		})
	}
	return NewStaticSource(photos...), nil
}

// Shot is the outcome of one capture.
type Shot struct {
	Photo *images.Image
	Err   error
}

// Shoot captures one photo on a background goroutine. The returned channel
// yields exactly one Shot and is then closed. Errors are CaptureFailures.
//
// Arguments:
//   - ctx: Bounds the capture.
//   - src: The photo source.
//
// Returns:
//   - <-chan Shot: The single-value result channel.
func Shoot(ctx context.Context, src Source) <-chan Shot {
	const op = "capture.Shoot"

	out := make(chan Shot, 1)
	go func() {
		defer close(out)

		if src == nil {
			out <- Shot{Err: failure.Newf(failure.KindCapture, op, "nil source")}
			return
		}
		photo, err := src.Capture(ctx)
		switch {
		case err != nil:
			out <- Shot{Err: failure.Tag(failure.KindCapture, op, err)}
		case photo == nil || len(photo.Data) == 0:
			out <- Shot{Err: failure.New(failure.KindCapture, op, images.ErrEmptyImage)}
		default:
			out <- Shot{Photo: photo}
		}
	}()
	return out
}
