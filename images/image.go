// Package images - Captured photos, decoding and resampling helpers.
package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // registers GIF decoding
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

// ImageFormat represents supported image formats
type ImageFormat string

// ImageFormat constants
const (
	// FormatUnknown is used when the format could not be detected.
	FormatUnknown ImageFormat = ""
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatBMP is the BMP image format.
	FormatBMP ImageFormat = "bmp"
	// FormatGIF is the GIF image format.
	FormatGIF ImageFormat = "gif"
)

// Image represents a captured photo with a format, data, width, and height.
//
// The Data field holds the encoded bytes as the capture source delivered them.
// Width and Height are what the source reported and may be zero when unknown.
type Image struct {
	// The format of the image.
	Format ImageFormat `json:"format" yaml:"format"`
	// The data of the image.
	Data []byte `json:"data" yaml:"data"`
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
}

// ErrEmptyImage is returned when a photo carries no bytes.
var ErrEmptyImage = errors.New("empty image data")

// DetectFormat sniffs the encoded format from the leading magic bytes.
//
// Arguments:
//   - data: The encoded image bytes.
//
// Returns:
//   - ImageFormat: The detected format, or FormatUnknown.
func DetectFormat(data []byte) ImageFormat {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return FormatJPEG
	case len(data) >= 8 && bytes.Equal(data[:8], []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWebP
	case len(data) >= 2 && data[0] == 'B' && data[1] == 'M':
		return FormatBMP
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return FormatGIF
	default:
		return FormatUnknown
	}
}

// Decode decodes the photo into an in-memory raster.
//
// The declared Format is used when set; otherwise the format is sniffed from
// the data. A declared format that disagrees with the data is not trusted and
// the sniffed format wins.
//
// Returns:
//   - image.Image: The decoded raster, in whatever color model the codec produced.
//   - error: An error if the data is empty or undecodable.
func (i *Image) Decode() (image.Image, error) {
	if i == nil || len(i.Data) == 0 {
		return nil, ErrEmptyImage
	}

	format := DetectFormat(i.Data)
	if format == FormatUnknown {
		format = i.Format
	}

	reader := bytes.NewReader(i.Data)

	var (
		img image.Image
		err error
	)
	switch format {
	case FormatJPEG:
		img, err = jpeg.Decode(reader)
	case FormatPNG:
		img, err = png.Decode(reader)
	case FormatWebP:
		img, err = webp.Decode(reader)
	case FormatBMP:
		img, err = bmp.Decode(reader)
	default:
		img, _, err = image.Decode(reader)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s image", formatName(format))
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("decoded image has empty bounds %v", bounds)
	}

	return img, nil
}

// Encode encodes img into the given format. It is the inverse of Decode and is
// used by capture sources that hold raw frames.
//
// Arguments:
//   - img: The raster to encode.
//   - format: The target format (JPEG, PNG or WebP).
//
// Returns:
//   - *Image: The encoded photo.
//   - error: An error if the format is unsupported or encoding fails.
func Encode(img image.Image, format ImageFormat) (*Image, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95})
	case FormatPNG:
		err = png.Encode(&buf, img)
	case FormatWebP:
		err = webp.Encode(&buf, img, &webp.Options{Lossless: true})
	case FormatBMP:
		err = bmp.Encode(&buf, img)
	default:
		return nil, fmt.Errorf("unsupported image format: %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s image", format)
	}

	bounds := img.Bounds()
	return &Image{
		Format: format,
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

func formatName(f ImageFormat) string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}
