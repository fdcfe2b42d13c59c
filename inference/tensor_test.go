package inference

import (
	"testing"

	"github.com/nvr-ai/go-snapclass/models"
	"github.com/nvr-ai/go-snapclass/pixelbuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

// gradientBuffer returns a 2x2 buffer whose pixel i (row-major) holds
// R=10+i, G=20+i, B=30+i.
func gradientBuffer(t *testing.T) *pixelbuf.Buffer {
	t.Helper()
	buf, err := pixelbuf.NewBuffer(nil, 2, 2, pixelbuf.FormatARGB32)
	require.NoError(t, err)

	buf.Lock()
	mem, err := buf.BaseAddress()
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		copy(mem[i*4:], []byte{0xFF, byte(10 + i), byte(20 + i), byte(30 + i)})
	}
	require.NoError(t, buf.Unlock())
	return buf
}

func tinyConfig() models.Config {
	return models.Config{
		Name:        "tiny",
		InputWidth:  2,
		InputHeight: 2,
		Classes:     2,
	}
}

func TestBufferToTensorLayouts(t *testing.T) {
	tests := []struct {
		name  string
		order models.ChannelOrder
		mode  models.ColorMode
		shape tensor.Shape
		want  []float32
	}{
		{
			name:  "chw rgb",
			order: models.ChannelOrderCHW,
			mode:  models.ColorModeRGB,
			shape: tensor.Shape{1, 3, 2, 2},
			want:  []float32{10, 11, 12, 13, 20, 21, 22, 23, 30, 31, 32, 33},
		},
		{
			name:  "chw bgr",
			order: models.ChannelOrderCHW,
			mode:  models.ColorModeBGR,
			shape: tensor.Shape{1, 3, 2, 2},
			want:  []float32{30, 31, 32, 33, 20, 21, 22, 23, 10, 11, 12, 13},
		},
		{
			name:  "hwc rgb",
			order: models.ChannelOrderHWC,
			mode:  models.ColorModeRGB,
			shape: tensor.Shape{1, 2, 2, 3},
			want:  []float32{10, 20, 30, 11, 21, 31, 12, 22, 32, 13, 23, 33},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tinyConfig()
			cfg.ChannelOrder = tt.order
			cfg.ColorMode = tt.mode

			out, err := BufferToTensor(gradientBuffer(t), cfg, nil)
			require.NoError(t, err)
			assert.True(t, out.Shape().Eq(tt.shape), "shape %v", out.Shape())
			assert.Equal(t, tt.want, out.Data())
		})
	}
}

func TestBufferToTensorNormalization(t *testing.T) {
	buf, err := pixelbuf.NewBuffer(nil, 1, 1, pixelbuf.FormatARGB32)
	require.NoError(t, err)
	buf.Lock()
	mem, _ := buf.BaseAddress()
	copy(mem, []byte{0xFF, 255, 0, 51})
	require.NoError(t, buf.Unlock())

	tests := []struct {
		name string
		norm models.NormalizationType
		mean []float32
		std  []float32
		want []float32
	}{
		{name: "none", norm: models.NormalizeNone, want: []float32{255, 0, 51}},
		{name: "zero to one", norm: models.NormalizeZeroToOne, want: []float32{1, 0, 0.2}},
		{name: "minus one to one", norm: models.NormalizeMinusOneToOne, want: []float32{1, -1, -0.6}},
		{
			name: "standardize",
			norm: models.NormalizeStandardize,
			mean: []float32{0.5, 0.5, 0.5},
			std:  []float32{0.5, 0.25, 0.1},
			want: []float32{1, -2, -3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := models.Config{Name: "one", InputWidth: 1, InputHeight: 1, Normalization: tt.norm, Mean: tt.mean, Std: tt.std}
			out, err := BufferToTensor(buf, cfg, nil)
			require.NoError(t, err)
			got := out.Data().([]float32)
			require.Len(t, got, 3)
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-5, "channel %d", i)
			}
		})
	}
}

func TestBufferToTensorUsesBacking(t *testing.T) {
	backing := make([]float32, 12)
	out, err := BufferToTensor(gradientBuffer(t), tinyConfig(), backing)
	require.NoError(t, err)
	assert.Equal(t, float32(10), backing[0])
	assert.Equal(t, backing, out.Data())
}

func TestBufferToTensorFailures(t *testing.T) {
	buf := gradientBuffer(t)

	_, err := BufferToTensor(nil, tinyConfig(), nil)
	assert.Error(t, err)

	wrongSize := tinyConfig()
	wrongSize.InputWidth = 224
	_, err = BufferToTensor(buf, wrongSize, nil)
	assert.Error(t, err)

	_, err = BufferToTensor(buf, tinyConfig(), make([]float32, 5))
	assert.Error(t, err)

	badStats := tinyConfig()
	badStats.Normalization = models.NormalizeStandardize
	badStats.Mean = []float32{0.5}
	_, err = BufferToTensor(buf, badStats, nil)
	assert.Error(t, err)

	assert.False(t, buf.IsLocked())
}

func BenchmarkBufferToTensor(b *testing.B) {
	cfg, ok := models.Lookup(models.ModelNameResNet50)
	if !ok {
		b.Fatal("resnet50 not registered")
	}
	buf, err := pixelbuf.NewBuffer(nil, cfg.InputWidth, cfg.InputHeight, pixelbuf.FormatARGB32)
	if err != nil {
		b.Fatal(err)
	}
	backing := make([]float32, 3*cfg.InputWidth*cfg.InputHeight)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := BufferToTensor(buf, cfg, backing); err != nil {
			b.Fatal(err)
		}
	}
}
