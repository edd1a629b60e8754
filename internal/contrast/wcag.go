package contrast

import (
	"fmt"
	"math"
	"strings"
)

// WCAG 2.x minimum contrast ratios.
const (
	ThresholdAANormal  = 4.5
	ThresholdAALarge   = 3.0
	ThresholdAAANormal = 7.0
	ThresholdAAALarge  = 4.5

	// MinRatio and MaxRatio bound every contrast ratio (same color, black on white).
	MinRatio = 1.0
	MaxRatio = 21.0
)

// Flags holds the four WCAG pass/fail outcomes for a ratio.
type Flags struct {
	PassesAANormal  bool `json:"passes_aa_normal"`
	PassesAALarge   bool `json:"passes_aa_large"`
	PassesAAANormal bool `json:"passes_aaa_normal"`
	PassesAAALarge  bool `json:"passes_aaa_large"`
}

// Result is a contrast ratio together with its WCAG classification.
type Result struct {
	Ratio float64 `json:"ratio"`
	Flags
}

// Luminance returns the WCAG relative luminance of c in [0, 1].
// https://www.w3.org/TR/WCAG20/#relativeluminancedef
func Luminance(c Color) float64 {
	r := linearize(float64(c.R) / 255.0)
	g := linearize(float64(c.G) / 255.0)
	b := linearize(float64(c.B) / 255.0)

	l := 0.2126*r + 0.7152*g + 0.0722*b
	return math.Max(0, math.Min(1, l))
}

func linearize(v float64) float64 {
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// Ratio returns the WCAG contrast ratio between a and b.
// The result is symmetric and always within [MinRatio, MaxRatio].
func Ratio(a, b Color) float64 {
	l1 := Luminance(a)
	l2 := Luminance(b)
	if l1 < l2 {
		l1, l2 = l2, l1
	}

	ratio := (l1 + 0.05) / (l2 + 0.05)
	return math.Max(MinRatio, math.Min(MaxRatio, ratio))
}

// Classify compares ratio against the four WCAG thresholds.
func Classify(ratio float64) Flags {
	return Flags{
		PassesAANormal:  ratio >= ThresholdAANormal,
		PassesAALarge:   ratio >= ThresholdAALarge,
		PassesAAANormal: ratio >= ThresholdAAANormal,
		PassesAAALarge:  ratio >= ThresholdAAALarge,
	}
}

// Evaluate computes the ratio of a foreground/background pair and classifies it.
func Evaluate(fg, bg Color) Result {
	ratio := Ratio(fg, bg)
	return Result{Ratio: ratio, Flags: Classify(ratio)}
}

// Level is a WCAG conformance level.
type Level string

const (
	LevelAA  Level = "AA"
	LevelAAA Level = "AAA"
)

// ParseLevel accepts "AA" or "AAA" in any case. An empty string means AA.
// "both" is accepted as AA: it reports every flag and searches at the AA target.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AA", "BOTH":
		return LevelAA, nil
	case "AAA":
		return LevelAAA, nil
	default:
		return "", fmt.Errorf("unknown WCAG level %q (want AA or AAA)", s)
	}
}

// TargetRatio is the normal-text ratio required by the level.
func (l Level) TargetRatio() float64 {
	if l == LevelAAA {
		return ThresholdAAANormal
	}
	return ThresholdAANormal
}

// Round2 rounds a ratio to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
