// Package pixelbuf - Fixed-format raw bitmaps handed to classification models.
//
// A Buffer owns a block of backing memory laid out row-major, top-to-bottom,
// four bytes per pixel. Writers must hold the buffer's lock for the whole
// duration of a write; the lock is the only synchronization the buffer has.
package pixelbuf

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/nvr-ai/go-snapclass/failure"
	"github.com/pkg/errors"
)

// Format identifies the byte layout of a pixel.
type Format uint32

const (
	// FormatARGB32 is 8 bits per channel, one leading alpha/padding byte
	// followed by red, green and blue. The alpha byte is skipped on draw and
	// always holds the buffer's padding value.
	FormatARGB32 Format = 0x20
)

// DefaultPadding is the value written to the leading byte of every pixel.
const DefaultPadding byte = 0xFF

// String returns the conventional name of the format.
func (f Format) String() string {
	switch f {
	case FormatARGB32:
		return "32ARGB"
	default:
		return fmt.Sprintf("Format(%#x)", uint32(f))
	}
}

// BytesPerPixel returns the pixel size of the format, or 0 if unknown.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatARGB32:
		return 4
	default:
		return 0
	}
}

var (
	// ErrNotLocked is returned when backing memory is accessed without holding the lock.
	ErrNotLocked = errors.New("pixel buffer base address is not locked")
	// ErrAllocationLimit is returned by a HeapAllocator asked for more than its limit.
	ErrAllocationLimit = errors.New("allocation exceeds limit")
)

// Allocator provides backing memory for pixel buffers.
type Allocator interface {
	// Allocate returns a zeroed slice of exactly n bytes.
	Allocate(n int) ([]byte, error)
}

// HeapAllocator allocates from the Go heap. A positive Limit caps the size of
// a single allocation, which is how memory pressure is modelled.
type HeapAllocator struct {
	Limit int
}

// Allocate implements Allocator.
func (a HeapAllocator) Allocate(n int) ([]byte, error) {
	if n <= 0 {
		return nil, errors.Errorf("invalid allocation size %d", n)
	}
	if a.Limit > 0 && n > a.Limit {
		return nil, errors.Wrapf(ErrAllocationLimit, "requested %d bytes, limit %d", n, a.Limit)
	}
	return make([]byte, n), nil
}

// Buffer is a fixed-layout raw bitmap.
type Buffer struct {
	width       int
	height      int
	bytesPerRow int
	format      Format
	mem         []byte

	mu     sync.Mutex
	locked atomic.Bool
}

// NewBuffer allocates a buffer of the given dimensions and format.
//
// Arguments:
//   - alloc: The allocator supplying backing memory. Nil uses an unlimited HeapAllocator.
//   - width: The width in pixels.
//   - height: The height in pixels.
//   - format: The pixel format.
//
// Returns:
//   - *Buffer: The allocated buffer.
//   - error: A BufferAllocationFailure if the memory cannot be provided.
func NewBuffer(alloc Allocator, width, height int, format Format) (*Buffer, error) {
	const op = "pixelbuf.NewBuffer"

	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return nil, failure.Newf(failure.KindBufferAllocation, op, "unsupported pixel format %s", format)
	}
	if width <= 0 || height <= 0 {
		return nil, failure.Newf(failure.KindBufferAllocation, op, "invalid dimensions %dx%d", width, height)
	}
	if width > math.MaxInt32/bpp || height > math.MaxInt32/(width*bpp) {
		return nil, failure.Newf(failure.KindBufferAllocation, op, "dimensions %dx%d overflow", width, height)
	}

	if alloc == nil {
		alloc = HeapAllocator{}
	}

	bytesPerRow := width * bpp
	size := bytesPerRow * height

	mem, err := alloc.Allocate(size)
	if err != nil {
		return nil, failure.New(failure.KindBufferAllocation, op, err)
	}
	if len(mem) != size {
		return nil, failure.Newf(failure.KindBufferAllocation, op, "allocator returned %d bytes, want %d", len(mem), size)
	}

	return &Buffer{
		width:       width,
		height:      height,
		bytesPerRow: bytesPerRow,
		format:      format,
		mem:         mem,
	}, nil
}

// Width returns the width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the height in pixels.
func (b *Buffer) Height() int { return b.height }

// BytesPerRow returns the row stride in bytes.
func (b *Buffer) BytesPerRow() int { return b.bytesPerRow }

// Format returns the pixel format.
func (b *Buffer) Format() Format { return b.format }

// Len returns the size of the backing memory in bytes.
func (b *Buffer) Len() int { return len(b.mem) }

// Lock acquires exclusive access to the backing memory. It blocks while
// another holder has the buffer locked.
func (b *Buffer) Lock() {
	b.mu.Lock()
	b.locked.Store(true)
}

// Unlock releases the backing memory.
//
// Returns:
//   - error: ErrNotLocked if the buffer was not locked.
func (b *Buffer) Unlock() error {
	if !b.locked.CompareAndSwap(true, false) {
		return ErrNotLocked
	}
	b.mu.Unlock()
	return nil
}

// IsLocked reports whether the backing memory is currently locked.
func (b *Buffer) IsLocked() bool {
	return b.locked.Load()
}

// BaseAddress returns the backing memory. It is only valid while locked.
func (b *Buffer) BaseAddress() ([]byte, error) {
	if !b.locked.Load() {
		return nil, ErrNotLocked
	}
	return b.mem, nil
}

// Bytes returns a copy of the backing memory, locking for the duration of the copy.
func (b *Buffer) Bytes() []byte {
	b.Lock()
	defer b.Unlock()

	out := make([]byte, len(b.mem))
	copy(out, b.mem)
	return out
}

// PixelAt returns the four bytes of the pixel at (x, y), top-left origin.
func (b *Buffer) PixelAt(x, y int) ([4]byte, error) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return [4]byte{}, errors.Errorf("pixel (%d,%d) out of bounds %dx%d", x, y, b.width, b.height)
	}

	b.Lock()
	defer b.Unlock()

	off := y*b.bytesPerRow + x*4
	return [4]byte{b.mem[off], b.mem[off+1], b.mem[off+2], b.mem[off+3]}, nil
}
