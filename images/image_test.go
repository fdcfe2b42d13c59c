package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestImage() image.Image {
	// Create a simple 100x60 red image.
	img := image.NewRGBA(image.Rect(0, 0, 100, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}

	return img
}

func getJPEGBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	err := jpeg.Encode(&buf, getTestImage(), nil)
	require.NoError(t, err)
	return buf.Bytes()
}

func getPNGBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	err := png.Encode(&buf, getTestImage())
	require.NoError(t, err)
	return buf.Bytes()
}

func getWebPBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	err := webp.Encode(&buf, getTestImage(), &webp.Options{Quality: 80})
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected ImageFormat
	}{
		{name: "jpeg", data: getJPEGBytes(t), expected: FormatJPEG},
		{name: "png", data: getPNGBytes(t), expected: FormatPNG},
		{name: "webp", data: getWebPBytes(t), expected: FormatWebP},
		{name: "bmp magic", data: []byte("BM0000"), expected: FormatBMP},
		{name: "gif magic", data: []byte("GIF89a...."), expected: FormatGIF},
		{name: "garbage", data: []byte("not an image"), expected: FormatUnknown},
		{name: "empty", data: nil, expected: FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectFormat(tt.data))
		})
	}
}

func TestImageDecode(t *testing.T) {
	tests := []struct {
		name       string
		img        *Image
		shouldFail bool
	}{
		{name: "JPEG", img: &Image{Format: FormatJPEG, Data: getJPEGBytes(t)}},
		{name: "PNG", img: &Image{Format: FormatPNG, Data: getPNGBytes(t)}},
		{name: "WebP", img: &Image{Format: FormatWebP, Data: getWebPBytes(t)}},
		{name: "declared format is wrong", img: &Image{Format: FormatPNG, Data: getJPEGBytes(t)}},
		{name: "no declared format", img: &Image{Data: getPNGBytes(t)}},
		{name: "corrupt JPEG", img: &Image{Format: FormatJPEG, Data: []byte("not a jpeg")}, shouldFail: true},
		{name: "truncated PNG", img: &Image{Format: FormatPNG, Data: getPNGBytes(t)[:20]}, shouldFail: true},
		{name: "empty", img: &Image{Format: FormatJPEG}, shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := tt.img.Decode()
			if tt.shouldFail {
				assert.Error(t, err)
				assert.Nil(t, decoded)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 100, decoded.Bounds().Dx())
			assert.Equal(t, 60, decoded.Bounds().Dy())
		})
	}
}

func TestImageDecodeNil(t *testing.T) {
	var img *Image
	_, err := img.Decode()
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, format := range []ImageFormat{FormatPNG, FormatWebP, FormatBMP} {
		t.Run(string(format), func(t *testing.T) {
			encoded, err := Encode(getTestImage(), format)
			require.NoError(t, err)
			assert.Equal(t, format, encoded.Format)
			assert.Equal(t, format, DetectFormat(encoded.Data))
			assert.Equal(t, 100, encoded.Width)
			assert.Equal(t, 60, encoded.Height)

			decoded, err := encoded.Decode()
			require.NoError(t, err)
			r, g, b, _ := decoded.At(10, 10).RGBA()
			assert.Equal(t, uint32(0xffff), r)
			assert.Equal(t, uint32(0), g)
			assert.Equal(t, uint32(0), b)
		})
	}

	_, err := Encode(getTestImage(), FormatGIF)
	assert.Error(t, err)
}

func TestComputeChecksum(t *testing.T) {
	assert.Equal(t, "empty", ComputeChecksum(nil))
	a := ComputeChecksum([]byte{1, 2, 3})
	assert.Equal(t, a, ComputeChecksum([]byte{1, 2, 3}))
	assert.NotEqual(t, a, ComputeChecksum([]byte{1, 2, 4}))
	assert.Len(t, a, 32)
}
