package contrast

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColorFormat is the sentinel wrapped by every hex parsing failure.
// Use errors.Is to detect it.
var ErrInvalidColorFormat = errors.New("invalid color format")

// ColorFormatError describes why a hex color string was rejected.
type ColorFormatError struct {
	Input  string
	Reason string
}

func (e *ColorFormatError) Error() string {
	return fmt.Sprintf("invalid color %q: %s", e.Input, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidColorFormat.
func (e *ColorFormatError) Unwrap() error {
	return ErrInvalidColorFormat
}

// Color is an 8-bit sRGB color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ParseHex parses "#RGB", "#RRGGBB", "RGB" or "RRGGBB" (case-insensitive).
//
// Any other length after stripping the optional '#', or a non-hex digit,
// yields a *ColorFormatError wrapping ErrInvalidColorFormat.
func ParseHex(s string) (Color, error) {
	raw := strings.TrimSpace(s)
	digits := strings.TrimPrefix(raw, "#")

	switch len(digits) {
	case 3:
		var out [3]uint8
		for i := 0; i < 3; i++ {
			v, ok := hexNibble(digits[i])
			if !ok {
				return Color{}, &ColorFormatError{Input: s, Reason: fmt.Sprintf("non-hex character %q", digits[i])}
			}
			out[i] = v<<4 | v
		}
		return Color{R: out[0], G: out[1], B: out[2]}, nil
	case 6:
		var out [3]uint8
		for i := 0; i < 3; i++ {
			hi, ok1 := hexNibble(digits[2*i])
			lo, ok2 := hexNibble(digits[2*i+1])
			if !ok1 || !ok2 {
				return Color{}, &ColorFormatError{Input: s, Reason: "non-hex character"}
			}
			out[i] = hi<<4 | lo
		}
		return Color{R: out[0], G: out[1], B: out[2]}, nil
	default:
		return Color{}, &ColorFormatError{
			Input:  s,
			Reason: fmt.Sprintf("expected 3 or 6 hex digits, got %d", len(digits)),
		}
	}
}

// MustParseHex is ParseHex for literals known to be valid. It panics on error.
func MustParseHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// NormalizeHex parses s and returns its canonical "#RRGGBB" uppercase form.
func NormalizeHex(s string) (string, error) {
	c, err := ParseHex(s)
	if err != nil {
		return "", err
	}
	return c.Hex(), nil
}

func hexNibble(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// Hex returns the canonical "#RRGGBB" uppercase representation.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}

// RGBA implements image/color.Color (always opaque).
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	a = 0xFFFF
	return
}

// Colorful converts to a go-colorful value for color-space math.
func (c Color) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// FromColorful converts back to 8-bit sRGB, clamping out-of-gamut values.
func FromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}
