package inference

import (
	"fmt"

	"github.com/nvr-ai/go-snapclass/models"
	"github.com/nvr-ai/go-snapclass/pixelbuf"
	"gorgonia.org/tensor"
)

// BufferToTensor converts an ARGB pixel buffer into the model's float32
// input tensor. The padding byte is ignored.
//
// Arguments:
//   - buf: The rendered pixel buffer; it is locked while read.
//   - cfg: The model configuration supplying shape, layout and normalization.
//   - backing: Destination storage of exactly 3*H*W values, or nil to allocate.
//
// Returns:
//   - *tensor.Dense: The input tensor, backed by backing when given.
//   - error: An error if the buffer does not match the model input.
func BufferToTensor(buf *pixelbuf.Buffer, cfg models.Config, backing []float32) (*tensor.Dense, error) {
	if buf == nil {
		return nil, fmt.Errorf("nil pixel buffer")
	}
	if buf.Format() != pixelbuf.FormatARGB32 {
		return nil, fmt.Errorf("unsupported pixel format %s", buf.Format())
	}
	w, h := buf.Width(), buf.Height()
	if w != cfg.InputWidth || h != cfg.InputHeight {
		return nil, fmt.Errorf("buffer is %dx%d, model %s expects %dx%d", w, h, cfg.Name, cfg.InputWidth, cfg.InputHeight)
	}

	n := 3 * w * h
	if backing == nil {
		backing = make([]float32, n)
	}
	if len(backing) != n {
		return nil, fmt.Errorf("destination holds %d floats, needs %d", len(backing), n)
	}

	if err := fill(buf, cfg, backing); err != nil {
		return nil, err
	}
	if err := normalize(backing, cfg); err != nil {
		return nil, err
	}

	shape := make([]int, 0, 4)
	for _, d := range cfg.InputShape() {
		shape = append(shape, int(d))
	}
	t := tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing))
	if !t.Shape().Eq(tensor.Shape(shape)) {
		return nil, fmt.Errorf("tensor shape %v, want %v", t.Shape(), shape)
	}
	return t, nil
}

func fill(buf *pixelbuf.Buffer, cfg models.Config, dst []float32) error {
	buf.Lock()
	defer buf.Unlock()

	mem, err := buf.BaseAddress()
	if err != nil {
		return err
	}

	w, h, stride := buf.Width(), buf.Height(), buf.BytesPerRow()
	plane := w * h

	i := 0
	for y := 0; y < h; y++ {
		row := mem[y*stride:]
		for x := 0; x < w; x++ {
			px := row[x*4 : x*4+4]
			c0, c1, c2 := float32(px[1]), float32(px[2]), float32(px[3])
			if cfg.ColorMode == models.ColorModeBGR {
				c0, c2 = c2, c0
			}

			if cfg.ChannelOrder == models.ChannelOrderHWC {
				dst[i*3] = c0
				dst[i*3+1] = c1
				dst[i*3+2] = c2
			} else {
				dst[i] = c0
				dst[plane+i] = c1
				dst[2*plane+i] = c2
			}
			i++
		}
	}
	return nil
}

func normalize(t []float32, cfg models.Config) error {
	switch cfg.Normalization {
	case models.NormalizeNone:
	case models.NormalizeZeroToOne:
		for i := range t {
			t[i] /= 255.0
		}
	case models.NormalizeMinusOneToOne:
		for i := range t {
			t[i] = t[i]/127.5 - 1.0
		}
	case models.NormalizeStandardize:
		if len(cfg.Mean) != 3 || len(cfg.Std) != 3 {
			return fmt.Errorf("standardization needs 3 mean and std values, got %d and %d", len(cfg.Mean), len(cfg.Std))
		}
		plane := len(t) / 3
		for i := range t {
			c := i / plane
			if cfg.ChannelOrder == models.ChannelOrderHWC {
				c = i % 3
			}
			t[i] = (t[i]/255.0 - cfg.Mean[c]) / cfg.Std[c]
		}
	default:
		return fmt.Errorf("unknown normalization %d", cfg.Normalization)
	}
	return nil
}
