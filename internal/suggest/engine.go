package suggest

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/color-contrast-mcp/internal/contrast"
)

// Strategy names one way of repairing a failing pair.
type Strategy string

const (
	LightenBackground Strategy = "lighten_background"
	DarkenBackground  Strategy = "darken_background"
	AdjustForeground  Strategy = "adjust_foreground"
)

// Suggestion is one candidate repair for a failing pair.
type Suggestion struct {
	Strategy        Strategy       `json:"strategy"`
	Background      contrast.Color `json:"-"`
	Foreground      contrast.Color `json:"-"`
	BackgroundHex   string         `json:"background"`
	ForegroundHex   string         `json:"foreground"`
	BackgroundOKLCH string         `json:"background_oklch"`
	ForegroundOKLCH string         `json:"foreground_oklch"`
	Ratio           float64        `json:"ratio"`
	MeetsTarget     bool           `json:"meets_target"`
}

// MarshalJSON renders Ratio rounded to two decimals. The stored ratio is exact.
func (s Suggestion) MarshalJSON() ([]byte, error) {
	type plain Suggestion
	p := plain(s)
	p.Ratio = contrast.Round2(s.Ratio)
	return json.Marshal(p)
}

// Engine searches OKLCH lightness for colors that reach a target contrast.
//
// The search is greedy: each strategy returns the first candidate, in the
// configured delta order, whose ratio clears the target. It is not a search
// for the smallest perceptual change. Engine holds no mutable state.
type Engine struct {
	opts Options
}

// New returns an Engine using opts. Use DefaultOptions for the canonical search.
func New(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid suggestion options: %w", err)
	}
	// Copy the slices so later caller mutation cannot change the search.
	opts.LightenDeltas = append([]float64(nil), opts.LightenDeltas...)
	opts.DarkenDeltas = append([]float64(nil), opts.DarkenDeltas...)
	return &Engine{opts: opts}, nil
}

// Default returns an Engine with DefaultOptions.
func Default() *Engine {
	e, err := New(DefaultOptions())
	if err != nil {
		panic(err)
	}
	return e
}

// Options returns a copy of the engine configuration.
func (e *Engine) Options() Options {
	o := e.opts
	o.LightenDeltas = append([]float64(nil), o.LightenDeltas...)
	o.DarkenDeltas = append([]float64(nil), o.DarkenDeltas...)
	return o
}

// Suggest runs the three strategies for a pair and returns the accepted
// candidates in strategy order. An empty result means no tried adjustment
// reaches target.
func (e *Engine) Suggest(bg, fg contrast.Color, target float64) []Suggestion {
	bgL, bgC, bgH := bg.Colorful().OkLch()
	fgL, fgC, fgH := fg.Colorful().OkLch()

	bgOKLCH := FormatOKLCH(bgL, bgC, bgH)
	fgOKLCH := FormatOKLCH(fgL, fgC, fgH)

	suggestions := make([]Suggestion, 0, 3)

	if bgL < e.opts.LightenBelow {
		if s, ok := e.searchBackground(LightenBackground, e.opts.LightenDeltas, bgL, bgC, bgH, fg, fgOKLCH, target); ok {
			suggestions = append(suggestions, s)
		}
	}

	if bgL > e.opts.DarkenAbove {
		if s, ok := e.searchBackground(DarkenBackground, e.opts.DarkenDeltas, bgL, bgC, bgH, fg, fgOKLCH, target); ok {
			suggestions = append(suggestions, s)
		}
	}

	step := e.opts.ForegroundStep
	if fgL > e.opts.ForegroundPivot {
		step = -step
	}
	newL := e.clamp(fgL + step)
	newFg := contrast.FromColorful(colorful.OkLch(newL, fgC, fgH))
	if ratio := contrast.Ratio(newFg, bg); ratio >= target {
		suggestions = append(suggestions, Suggestion{
			Strategy:        AdjustForeground,
			Background:      bg,
			Foreground:      newFg,
			BackgroundHex:   bg.Hex(),
			ForegroundHex:   newFg.Hex(),
			BackgroundOKLCH: bgOKLCH,
			ForegroundOKLCH: FormatOKLCH(newL, fgC, fgH),
			Ratio:           ratio,
			MeetsTarget:     true,
		})
	}

	return suggestions
}

func (e *Engine) searchBackground(strategy Strategy, deltas []float64, l, c, h float64, fg contrast.Color, fgOKLCH string, target float64) (Suggestion, bool) {
	for _, d := range deltas {
		newL := e.clamp(l + d)
		newBg := contrast.FromColorful(colorful.OkLch(newL, c, h))

		ratio := contrast.Ratio(fg, newBg)
		if ratio < target {
			continue
		}
		return Suggestion{
			Strategy:        strategy,
			Background:      newBg,
			Foreground:      fg,
			BackgroundHex:   newBg.Hex(),
			ForegroundHex:   fg.Hex(),
			BackgroundOKLCH: FormatOKLCH(newL, c, h),
			ForegroundOKLCH: fgOKLCH,
			Ratio:           ratio,
			MeetsTarget:     true,
		}, true
	}
	return Suggestion{}, false
}

func (e *Engine) clamp(l float64) float64 {
	return math.Max(e.opts.MinLightness, math.Min(e.opts.MaxLightness, l))
}

// FormatOKLCH renders a CSS Color 4 oklch() string.
// Hue is reported as 0 for near-achromatic colors, where it is undefined.
func FormatOKLCH(l, c, h float64) string {
	if c < 0.0005 {
		c, h = 0, 0
	}
	return fmt.Sprintf("oklch(%.3f %.3f %.1f)", l, c, h)
}

// OKLCH returns the oklch() string of an sRGB color.
func OKLCH(c contrast.Color) string {
	return FormatOKLCH(c.Colorful().OkLch())
}
