package pixelbuf

import (
	"image"
	"image/color"

	"github.com/nvr-ai/go-snapclass/failure"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Context is a bitmap drawing context bound to the locked memory of a Buffer.
//
// Its coordinate system follows the usual bitmap-context convention: the
// origin is at the bottom-left of the buffer and y grows upward. DrawImage on
// the other hand lays images out top-down, so an image drawn under the
// identity transform lands vertically mirrored in memory. Callers that want
// upright rows flip the context first:
//
//	ctx.TranslateBy(0, float64(h))
//	ctx.ScaleBy(1, -1)
type Context struct {
	buf     *Buffer
	mem     []byte
	width   int
	height  int
	stride  int
	padding byte
	ctm     f64.Aff3
}

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// NewContext binds a drawing context to the buffer's memory. The buffer must
// be locked by the caller and stay locked for as long as the context is used.
//
// Arguments:
//   - buf: The locked destination buffer.
//   - padding: The value written to the leading byte of every pixel.
//
// Returns:
//   - *Context: The drawing context.
//   - error: A ContextCreationFailure if the context cannot be bound.
func NewContext(buf *Buffer, padding byte) (*Context, error) {
	const op = "pixelbuf.NewContext"

	if buf == nil {
		return nil, failure.Newf(failure.KindContextCreation, op, "nil buffer")
	}
	if buf.Format() != FormatARGB32 {
		return nil, failure.Newf(failure.KindContextCreation, op, "unsupported pixel format %s", buf.Format())
	}

	mem, err := buf.BaseAddress()
	if err != nil {
		return nil, failure.New(failure.KindContextCreation, op, err)
	}
	if len(mem) < buf.BytesPerRow()*buf.Height() {
		return nil, failure.Newf(failure.KindContextCreation, op, "backing memory too small: %d bytes", len(mem))
	}

	return &Context{
		buf:     buf,
		mem:     mem,
		width:   buf.Width(),
		height:  buf.Height(),
		stride:  buf.BytesPerRow(),
		padding: padding,
		ctm:     identity,
	}, nil
}

// ContextFactory creates drawing contexts. It exists so callers can substitute
// the binding step.
type ContextFactory func(buf *Buffer, padding byte) (*Context, error)

// TranslateBy moves the user-space origin by (tx, ty).
func (c *Context) TranslateBy(tx, ty float64) {
	c.ctm = concat(c.ctm, f64.Aff3{1, 0, tx, 0, 1, ty})
}

// ScaleBy scales user-space axes by (sx, sy).
func (c *Context) ScaleBy(sx, sy float64) {
	c.ctm = concat(c.ctm, f64.Aff3{sx, 0, 0, 0, sy, 0})
}

// CTM returns the current transformation matrix.
func (c *Context) CTM() f64.Aff3 {
	return c.ctm
}

// Clear fills every pixel with black and the context's padding byte.
func (c *Context) Clear() {
	for y := 0; y < c.height; y++ {
		row := c.mem[y*c.stride : y*c.stride+c.width*4]
		for i := 0; i < len(row); i += 4 {
			row[i] = c.padding
			row[i+1] = 0
			row[i+2] = 0
			row[i+3] = 0
		}
	}
}

// DrawImage draws img scaled into rect. The rectangle is expressed in user
// space with the image's first row at rect.Min.Y.
//
// Arguments:
//   - img: The source image.
//   - rect: The destination rectangle.
//
// Returns:
//   - error: A RenderingFailure if the image cannot be drawn.
func (c *Context) DrawImage(img image.Image, rect image.Rectangle) error {
	const op = "pixelbuf.Context.DrawImage"

	if !c.buf.IsLocked() {
		return failure.New(failure.KindRendering, op, ErrNotLocked)
	}
	if img == nil {
		return failure.Newf(failure.KindRendering, op, "nil image")
	}
	sb := img.Bounds()
	if sb.Empty() {
		return failure.Newf(failure.KindRendering, op, "empty source bounds %v", sb)
	}
	if rect.Empty() {
		return failure.Newf(failure.KindRendering, op, "empty destination rect %v", rect)
	}

	kx := float64(rect.Dx()) / float64(sb.Dx())
	ky := float64(rect.Dy()) / float64(sb.Dy())

	// source pixels -> user space
	s := f64.Aff3{
		kx, 0, float64(rect.Min.X) - float64(sb.Min.X)*kx,
		0, ky, float64(rect.Min.Y) - float64(sb.Min.Y)*ky,
	}
	// bottom-left device space -> top-down memory rows
	d := f64.Aff3{1, 0, 0, 0, -1, float64(c.height)}

	m := concat(concat(d, c.ctm), s)
	draw.NearestNeighbor.Transform(c, m, img, sb, draw.Src, nil)

	return nil
}

// ColorModel implements draw.Image.
func (c *Context) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements draw.Image. Bounds are in memory coordinates.
func (c *Context) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.width, c.height)
}

// At implements draw.Image.
func (c *Context) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(c.Bounds()) {
		return color.RGBA{}
	}
	off := y*c.stride + x*4
	return color.RGBA{R: c.mem[off+1], G: c.mem[off+2], B: c.mem[off+3], A: 0xFF}
}

// Set implements draw.Image. Colours are composited over black and the alpha
// channel is replaced by the padding byte.
func (c *Context) Set(x, y int, col color.Color) {
	if !(image.Point{X: x, Y: y}).In(c.Bounds()) {
		return
	}
	px := color.RGBAModel.Convert(col).(color.RGBA)
	off := y*c.stride + x*4
	c.mem[off] = c.padding
	c.mem[off+1] = px.R
	c.mem[off+2] = px.G
	c.mem[off+3] = px.B
}

// concat returns the transform applying b first, then a.
func concat(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}
