package images

import (
	"fmt"
	"math"
	"strings"
)

// AspectRatio represents a sensor aspect ratio by name (e.g., "16:9").
type AspectRatio string

// Defines standard and common aspect ratios for camera sensors.
const (
	AspectRatio169 AspectRatio = "16:9"
	AspectRatio43  AspectRatio = "4:3"
	AspectRatio32  AspectRatio = "3:2"
)

// ResolutionAlias is the short configuration name of a capture resolution.
type ResolutionAlias string

// Supported capture resolutions. A "medium" quality session maps to ResolutionAliasVGA.
const (
	ResolutionAliasVGA   ResolutionAlias = "vga"
	ResolutionAlias720p  ResolutionAlias = "720p"
	ResolutionAlias1080p ResolutionAlias = "1080p"
	ResolutionAlias1440p ResolutionAlias = "1440p"
	ResolutionAlias4K    ResolutionAlias = "4k"
	ResolutionAlias12MP  ResolutionAlias = "12mp"
)

// Pixels describes the exact dimensions of a resolution.
type Pixels struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Resolution describes a capture resolution preset.
type Resolution struct {
	Alias       ResolutionAlias `json:"alias" yaml:"alias"`
	Name        string          `json:"name" yaml:"name"`
	AspectRatio AspectRatio     `json:"aspectRatio" yaml:"aspectRatio"`
	Pixels      Pixels          `json:"pixels" yaml:"pixels"`
}

// GetMegaPixels returns the megapixel value rounded to two decimal places
// (e.g., 2.07 for 1080p).
func (r Resolution) GetMegaPixels() float64 {
	if r.Pixels.Width <= 0 || r.Pixels.Height <= 0 {
		return 0.0
	}
	mp := float64(r.Pixels.Width*r.Pixels.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Pixels.Width, r.Pixels.Height, r.GetMegaPixels())
}

// Resolutions holds every capture preset keyed by alias.
var Resolutions = map[ResolutionAlias]Resolution{
	ResolutionAliasVGA: {
		Alias:       ResolutionAliasVGA,
		Name:        "VGA",
		AspectRatio: AspectRatio43,
		Pixels:      Pixels{Width: 640, Height: 480},
	},
	ResolutionAlias720p: {
		Alias:       ResolutionAlias720p,
		Name:        "HD 720p",
		AspectRatio: AspectRatio169,
		Pixels:      Pixels{Width: 1280, Height: 720},
	},
	ResolutionAlias1080p: {
		Alias:       ResolutionAlias1080p,
		Name:        "Full HD 1080p",
		AspectRatio: AspectRatio169,
		Pixels:      Pixels{Width: 1920, Height: 1080},
	},
	ResolutionAlias1440p: {
		Alias:       ResolutionAlias1440p,
		Name:        "QHD 1440p",
		AspectRatio: AspectRatio169,
		Pixels:      Pixels{Width: 2560, Height: 1440},
	},
	ResolutionAlias4K: {
		Alias:       ResolutionAlias4K,
		Name:        "4K UHD",
		AspectRatio: AspectRatio169,
		Pixels:      Pixels{Width: 3840, Height: 2160},
	},
	ResolutionAlias12MP: {
		Alias:       ResolutionAlias12MP,
		Name:        "12MP (4:3)",
		AspectRatio: AspectRatio43,
		Pixels:      Pixels{Width: 4000, Height: 3000},
	},
}

// GetResolutionByAlias retrieves a resolution preset, case-insensitively.
// It returns the Resolution and true if found, otherwise an empty Resolution and false.
func GetResolutionByAlias(alias string) (Resolution, bool) {
	res, ok := Resolutions[ResolutionAlias(strings.ToLower(strings.TrimSpace(alias)))]
	return res, ok
}
