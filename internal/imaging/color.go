package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/color-contrast-mcp/internal/contrast"
	"github.com/ironsheep/color-contrast-mcp/internal/suggest"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in multiple representations.
//
//   - Hex: canonical "#RRGGBB", directly usable as a check_contrast input
//   - OKLCH: CSS oklch() string, the space suggestions are searched in
//   - Luminance: WCAG relative luminance (0-1)
type ColorResult struct {
	Hex       string   `json:"hex"`
	RGB       RGBColor `json:"rgb"`
	Alpha     uint8    `json:"alpha"`
	HSL       HSLColor `json:"hsl"`
	OKLCH     string   `json:"oklch"`
	Luminance float64  `json:"luminance"`
}

// NewColorResult describes c in every supported representation.
func NewColorResult(c contrast.Color, alpha uint8) ColorResult {
	h, s, l := c.Colorful().Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return ColorResult{
		Hex:       c.Hex(),
		RGB:       RGBColor{R: c.R, G: c.G, B: c.B},
		Alpha:     alpha,
		HSL:       HSLColor{H: int(h), S: int(s * 100), L: int(l * 100)},
		OKLCH:     suggest.OKLCH(c),
		Luminance: math.Round(contrast.Luminance(c)*10000) / 10000,
	}
}

// SampleColor extracts the color value at a specific pixel coordinate.
//
// Parameters:
//   - img: The source image to sample from.
//   - x, y: Pixel coordinate in img's coordinate space.
//   - radius: When > 0, the color is the mean of the (2*radius+1) square
//     centered on (x, y), clipped to the image. Anti-aliased text is easier
//     to sample this way.
//
// Returns:
//   - *ColorResult: The color at (x, y) in multiple formats.
//   - error: Non-nil if coordinates are outside the image bounds.
//
// Partially transparent pixels are composited over white before conversion.
func SampleColor(img image.Image, x, y, radius int) (*ColorResult, error) {
	bounds := img.Bounds()
	if !image.Pt(x, y).In(bounds) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds %v", x, y, bounds)
	}

	if radius > 0 {
		rect := image.Rect(x-radius, y-radius, x+radius+1, y+radius+1)
		c, err := AverageColor(img, rect)
		if err != nil {
			return nil, err
		}
		result := NewColorResult(c, 255)
		return &result, nil
	}

	r, g, b, a := img.At(x, y).RGBA()
	c := flatten(r, g, b, a)
	result := NewColorResult(c, uint8(a>>8))
	return &result, nil
}

// AverageColor returns the mean color of rect, clipped to the image, by
// box-resampling the crop down to a single pixel.
func AverageColor(img image.Image, rect image.Rectangle) (contrast.Color, error) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return contrast.Color{}, fmt.Errorf("region %v outside image bounds %v", rect, img.Bounds())
	}
	px := imaging.Resize(imaging.Crop(img, rect), 1, 1, imaging.Box)
	return flattenNRGBA(px.Pix[0], px.Pix[1], px.Pix[2], px.Pix[3]), nil
}

// LabeledPoint represents a pixel coordinate with an optional descriptive label.
type LabeledPoint struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Label  string `json:"label,omitempty"`
	Radius int    `json:"radius,omitempty"`
}

// LabeledColorResult combines a color sample with its location and optional label.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`
}

// MultiColorResult contains color samples from multiple points, in input order.
type MultiColorResult struct {
	Samples []LabeledColorResult `json:"samples"`
}

// SampleColorsMulti extracts colors at multiple pixel coordinates in a single call.
//
// Returns an error if any coordinate is outside the image bounds. On error, no
// partial results are returned.
//
//	points := []imaging.LabeledPoint{
//	    {X: 10, Y: 20, Label: "background"},
//	    {X: 50, Y: 100, Label: "text", Radius: 1},
//	}
//	result, err := imaging.SampleColorsMulti(img, points)
func SampleColorsMulti(img image.Image, points []LabeledPoint) (*MultiColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))

	for _, p := range points {
		color, err := SampleColor(img, p.X, p.Y, p.Radius)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		results = append(results, LabeledColorResult{
			Label: p.Label,
			X:     p.X,
			Y:     p.Y,
			Color: *color,
		})
	}

	return &MultiColorResult{Samples: results}, nil
}

// flatten composites an alpha-premultiplied 16-bit color over white.
func flatten(r, g, b, a uint32) contrast.Color {
	// Premultiplied: out = c + white*(1-a).
	inv := 0xffff - a
	return contrast.Color{
		R: uint8((r + inv) >> 8),
		G: uint8((g + inv) >> 8),
		B: uint8((b + inv) >> 8),
	}
}

// flattenNRGBA composites a non-premultiplied 8-bit color over white.
func flattenNRGBA(r, g, b, a uint8) contrast.Color {
	if a == 0xff {
		return contrast.Color{R: r, G: g, B: b}
	}
	blend := func(v uint8) uint8 {
		return uint8((uint32(v)*uint32(a) + 255*(255-uint32(a)) + 127) / 255)
	}
	return contrast.Color{R: blend(r), G: blend(g), B: blend(b)}
}
