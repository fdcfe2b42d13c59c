package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResampleFilter(t *testing.T) {
	tests := []struct {
		in       string
		expected ResampleFilter
		fail     bool
	}{
		{in: "", expected: DefaultResampleFilter},
		{in: "nearest", expected: NearestNeighborFilter},
		{in: "Bilinear", expected: BilinearFilter},
		{in: " lanczos2 ", expected: Lanczos2Filter},
		{in: "mitchell", expected: MitchellNetravaliFilter},
		{in: "box", fail: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := ParseResampleFilter(tt.in)
			if tt.fail {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestScaleStretchesToExactSize(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 37, 91))
	for _, filter := range []ResampleFilter{
		NearestNeighborFilter, BilinearFilter, BicubicFilter,
		MitchellNetravaliFilter, Lanczos2Filter, LanczosFilter,
	} {
		t.Run(string(filter), func(t *testing.T) {
			out := Scale(src, 224, 224, filter)
			assert.Equal(t, 224, out.Bounds().Dx())
			assert.Equal(t, 224, out.Bounds().Dy())
		})
	}
}

func TestScaleUnknownFilterFallsBack(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	out := Scale(src, 5, 7, ResampleFilter("box"))
	assert.Equal(t, image.Rect(0, 0, 5, 7), out.Bounds())
}

func TestScaleKeepsSolidColor(t *testing.T) {
	c := color.RGBA{R: 12, G: 200, B: 99, A: 255}
	src := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			src.SetRGBA(x, y, c)
		}
	}

	out := Scale(src, 16, 16, BilinearFilter)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			got := color.RGBAModel.Convert(out.At(x, y)).(color.RGBA)
			require.Equal(t, c, got, "pixel (%d,%d)", x, y)
		}
	}
}
