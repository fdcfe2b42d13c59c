package pixelbuf

import (
	"image"
	"image/color"
	"testing"

	"github.com/nvr-ai/go-snapclass/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f64"
)

// rowImage returns an image whose pixel (x, y) is {y, x, 7}.
func rowImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(y), G: uint8(x), B: 7, A: 255})
		}
	}
	return img
}

func lockedBuffer(t *testing.T, w, h int) *Buffer {
	t.Helper()
	buf, err := NewBuffer(nil, w, h, FormatARGB32)
	require.NoError(t, err)
	buf.Lock()
	t.Cleanup(func() { _ = buf.Unlock() })
	return buf
}

func TestNewContextRequiresLock(t *testing.T) {
	buf, err := NewBuffer(nil, 4, 4, FormatARGB32)
	require.NoError(t, err)

	ctx, err := NewContext(buf, DefaultPadding)
	assert.Nil(t, ctx)
	assert.ErrorIs(t, err, failure.ErrContextCreation)

	_, err = NewContext(nil, DefaultPadding)
	assert.ErrorIs(t, err, failure.ErrContextCreation)
}

func TestContextTransforms(t *testing.T) {
	ctx, err := NewContext(lockedBuffer(t, 10, 20), DefaultPadding)
	require.NoError(t, err)
	assert.Equal(t, f64.Aff3{1, 0, 0, 0, 1, 0}, ctx.CTM())

	ctx.TranslateBy(0, 20)
	ctx.ScaleBy(1, -1)
	assert.Equal(t, f64.Aff3{1, 0, 0, 0, -1, 20}, ctx.CTM())

	ctx.TranslateBy(3, 4)
	assert.Equal(t, f64.Aff3{1, 0, 3, 0, -1, 16}, ctx.CTM())
}

func TestDrawImageFlippedIsUpright(t *testing.T) {
	const w, h = 8, 6
	buf := lockedBuffer(t, w, h)
	ctx, err := NewContext(buf, DefaultPadding)
	require.NoError(t, err)

	ctx.TranslateBy(0, h)
	ctx.ScaleBy(1, -1)
	require.NoError(t, ctx.DrawImage(rowImage(w, h), image.Rect(0, 0, w, h)))

	mem, err := buf.BaseAddress()
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*buf.BytesPerRow() + x*4
			assert.Equal(t, []byte{0xFF, byte(y), byte(x), 7}, mem[off:off+4], "pixel (%d,%d)", x, y)
		}
	}
}

func TestDrawImageUnflippedIsMirrored(t *testing.T) {
	const w, h = 5, 4
	buf := lockedBuffer(t, w, h)
	ctx, err := NewContext(buf, DefaultPadding)
	require.NoError(t, err)

	require.NoError(t, ctx.DrawImage(rowImage(w, h), image.Rect(0, 0, w, h)))

	mem, err := buf.BaseAddress()
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		off := y * buf.BytesPerRow()
		assert.Equal(t, byte(h-1-y), mem[off+1], "row %d", y)
	}
}

func TestDrawImageScalesIntoRect(t *testing.T) {
	buf := lockedBuffer(t, 4, 4)
	ctx, err := NewContext(buf, 0x00)
	require.NoError(t, err)
	ctx.Clear()
	ctx.TranslateBy(0, 4)
	ctx.ScaleBy(1, -1)

	solid := image.NewRGBA(image.Rect(0, 0, 1, 1))
	solid.SetRGBA(0, 0, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	require.NoError(t, ctx.DrawImage(solid, image.Rect(2, 0, 4, 2)))

	mem, _ := buf.BaseAddress()
	pixel := func(x, y int) []byte {
		off := y*buf.BytesPerRow() + x*4
		return mem[off : off+4]
	}
	assert.Equal(t, []byte{0x00, 200, 100, 50}, pixel(2, 0))
	assert.Equal(t, []byte{0x00, 200, 100, 50}, pixel(3, 1))
	assert.Equal(t, []byte{0x00, 0, 0, 0}, pixel(0, 0))
	assert.Equal(t, []byte{0x00, 0, 0, 0}, pixel(3, 3))
}

func TestSetCompositesOverBlack(t *testing.T) {
	buf := lockedBuffer(t, 1, 1)
	ctx, err := NewContext(buf, 0xAB)
	require.NoError(t, err)

	ctx.Set(0, 0, color.NRGBA{R: 255, G: 128, B: 0, A: 128})
	mem, _ := buf.BaseAddress()
	assert.Equal(t, byte(0xAB), mem[0])
	assert.Equal(t, byte(128), mem[1])
	assert.Equal(t, byte(64), mem[2])
	assert.Equal(t, byte(0), mem[3])

	assert.Equal(t, color.RGBA{R: 128, G: 64, B: 0, A: 255}, ctx.At(0, 0))

	ctx.Set(5, 5, color.White)
	assert.Equal(t, color.RGBA{}, ctx.At(5, 5))
}

func TestDrawImageErrors(t *testing.T) {
	buf := lockedBuffer(t, 4, 4)
	ctx, err := NewContext(buf, DefaultPadding)
	require.NoError(t, err)

	err = ctx.DrawImage(nil, image.Rect(0, 0, 4, 4))
	assert.ErrorIs(t, err, failure.ErrRendering)

	err = ctx.DrawImage(image.NewRGBA(image.Rectangle{}), image.Rect(0, 0, 4, 4))
	assert.ErrorIs(t, err, failure.ErrRendering)

	err = ctx.DrawImage(rowImage(2, 2), image.Rectangle{})
	assert.ErrorIs(t, err, failure.ErrRendering)

	require.NoError(t, buf.Unlock())
	err = ctx.DrawImage(rowImage(2, 2), image.Rect(0, 0, 4, 4))
	assert.ErrorIs(t, err, failure.ErrRendering)
	buf.Lock()
}
