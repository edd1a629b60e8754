// Package contrast implements the WCAG 2.x contrast evaluator.
//
// It parses hex colors, computes relative luminance and contrast ratios, and
// classifies a ratio against the four WCAG thresholds:
//
//	AA normal text   4.5:1
//	AA large text    3.0:1
//	AAA normal text  7.0:1
//	AAA large text   4.5:1
//
// Everything here is a pure function of its inputs and safe for concurrent use.
//
// # Hex Colors
//
// ParseHex accepts "#RGB", "#RRGGBB" and the same forms without the leading
// '#', in any case. Anything else fails with an error wrapping
// ErrInvalidColorFormat, so callers can skip the offending pair:
//
//	c, err := contrast.ParseHex("#77f")
//	if errors.Is(err, contrast.ErrInvalidColorFormat) {
//	    // skip
//	}
package contrast
