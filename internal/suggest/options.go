package suggest

import "fmt"

// Options tunes the lightness search. All lightness values are OKLCH L in [0, 1].
type Options struct {
	// LightenDeltas are tried in order when lightening the background. Must be positive.
	LightenDeltas []float64 `json:"lighten_deltas"`

	// DarkenDeltas are tried in order when darkening the background. Must be negative.
	DarkenDeltas []float64 `json:"darken_deltas"`

	// LightenBelow skips the lighten strategy unless background L is below it.
	LightenBelow float64 `json:"lighten_below"`

	// DarkenAbove skips the darken strategy unless background L is above it.
	DarkenAbove float64 `json:"darken_above"`

	// ForegroundPivot decides the direction of the foreground adjustment:
	// lighter foregrounds are darkened, darker ones lightened.
	ForegroundPivot float64 `json:"foreground_pivot"`

	// ForegroundStep is the magnitude of the single foreground adjustment.
	ForegroundStep float64 `json:"foreground_step"`

	// MinLightness and MaxLightness clamp every adjusted lightness.
	MinLightness float64 `json:"min_lightness"`
	MaxLightness float64 `json:"max_lightness"`
}

// DefaultOptions returns the canonical search configuration.
func DefaultOptions() Options {
	return Options{
		LightenDeltas:   []float64{0.15, 0.25, 0.35, 0.45, 0.55},
		DarkenDeltas:    []float64{-0.15, -0.25, -0.35, -0.45, -0.55},
		LightenBelow:    0.7,
		DarkenAbove:     0.3,
		ForegroundPivot: 0.5,
		ForegroundStep:  0.4,
		MinLightness:    0.05,
		MaxLightness:    0.95,
	}
}

// Validate checks the option invariants.
func (o Options) Validate() error {
	if len(o.LightenDeltas) == 0 {
		return fmt.Errorf("lighten deltas must not be empty")
	}
	for _, d := range o.LightenDeltas {
		if d <= 0 {
			return fmt.Errorf("lighten delta %v must be positive", d)
		}
	}
	if len(o.DarkenDeltas) == 0 {
		return fmt.Errorf("darken deltas must not be empty")
	}
	for _, d := range o.DarkenDeltas {
		if d >= 0 {
			return fmt.Errorf("darken delta %v must be negative", d)
		}
	}
	if o.MinLightness < 0 || o.MaxLightness > 1 || o.MinLightness >= o.MaxLightness {
		return fmt.Errorf("lightness bounds [%v, %v] must satisfy 0 <= min < max <= 1", o.MinLightness, o.MaxLightness)
	}
	if o.ForegroundStep <= 0 {
		return fmt.Errorf("foreground step %v must be positive", o.ForegroundStep)
	}
	return nil
}
