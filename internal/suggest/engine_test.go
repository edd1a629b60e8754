package suggest

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/color-contrast-mcp/internal/contrast"
)

func hex(s string) contrast.Color {
	return contrast.MustParseHex(s)
}

func strategies(ss []Suggestion) []Strategy {
	out := make([]Strategy, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.Strategy)
	}
	return out
}

func TestDefaultOptions_Valid(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"empty lighten", func(o *Options) { o.LightenDeltas = nil }},
		{"negative lighten", func(o *Options) { o.LightenDeltas = []float64{0.1, -0.1} }},
		{"empty darken", func(o *Options) { o.DarkenDeltas = []float64{} }},
		{"positive darken", func(o *Options) { o.DarkenDeltas = []float64{0.2} }},
		{"inverted bounds", func(o *Options) { o.MinLightness, o.MaxLightness = 0.9, 0.1 }},
		{"max above one", func(o *Options) { o.MaxLightness = 1.2 }},
		{"zero foreground step", func(o *Options) { o.ForegroundStep = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			assert.Error(t, o.Validate())

			_, err := New(o)
			assert.Error(t, err)
		})
	}
}

func TestSuggest_GrayOnWhite(t *testing.T) {
	e := Default()
	got := e.Suggest(hex("#FFFFFF"), hex("#777777"), 4.5)

	require.NotEmpty(t, got)
	assert.NotContains(t, strategies(got), LightenBackground, "white background is already near-white")

	var found bool
	for _, s := range got {
		if s.Strategy == DarkenBackground || s.Strategy == AdjustForeground {
			found = true
		}
		assert.GreaterOrEqual(t, s.Ratio, 4.5)
		assert.True(t, s.MeetsTarget)
	}
	assert.True(t, found, "expected a darken_background or adjust_foreground candidate, got %v", strategies(got))
}

func TestSuggest_AdjustForegroundDirection(t *testing.T) {
	e := Default()

	// Light text on a light background: foreground is darkened.
	got := e.Suggest(hex("#FFFFFF"), hex("#777777"), 4.5)
	var fg *Suggestion
	for i := range got {
		if got[i].Strategy == AdjustForeground {
			fg = &got[i]
		}
	}
	require.NotNil(t, fg)
	assert.Less(t, contrast.Luminance(fg.Foreground), contrast.Luminance(hex("#777777")))
	assert.Equal(t, "#FFFFFF", fg.BackgroundHex)
	assert.Equal(t, fg.Foreground.Hex(), fg.ForegroundHex)

	// Dark text on a dark background: foreground is lightened.
	got = e.Suggest(hex("#000000"), hex("#333333"), 4.5)
	fg = nil
	for i := range got {
		if got[i].Strategy == AdjustForeground {
			fg = &got[i]
		}
	}
	require.NotNil(t, fg)
	assert.Greater(t, contrast.Luminance(fg.Foreground), contrast.Luminance(hex("#333333")))
}

func TestSuggest_StrategyGating(t *testing.T) {
	e := Default()

	// Black background: L below DarkenAbove, so no darkening is attempted.
	got := e.Suggest(hex("#000000"), hex("#222222"), 4.5)
	assert.NotContains(t, strategies(got), DarkenBackground)

	// White background: L above LightenBelow, so no lightening is attempted.
	got = e.Suggest(hex("#FFFFFF"), hex("#DDDDDD"), 4.5)
	assert.NotContains(t, strategies(got), LightenBackground)
}

func TestSuggest_LightenBackground(t *testing.T) {
	e := Default()

	// Dark text on a mid-dark blue: lightening the background must help.
	got := e.Suggest(hex("#334466"), hex("#000000"), 4.5)
	require.Contains(t, strategies(got), LightenBackground)

	for _, s := range got {
		if s.Strategy != LightenBackground {
			continue
		}
		assert.Equal(t, "#000000", s.ForegroundHex)
		assert.Greater(t, contrast.Luminance(s.Background), contrast.Luminance(hex("#334466")))
		assert.GreaterOrEqual(t, contrast.Ratio(s.Foreground, s.Background), 4.5)
	}
}

func TestSuggest_FirstQualifyingDelta(t *testing.T) {
	// With a single large delta the result must equal that delta's candidate,
	// and adding a smaller failing delta in front must not change it.
	bg, fg := hex("#334466"), hex("#000000")

	only := DefaultOptions()
	only.LightenDeltas = []float64{0.55}
	eOnly, err := New(only)
	require.NoError(t, err)

	prefixed := DefaultOptions()
	prefixed.LightenDeltas = []float64{0.001, 0.55}
	ePrefixed, err := New(prefixed)
	require.NoError(t, err)

	pick := func(ss []Suggestion) Suggestion {
		for _, s := range ss {
			if s.Strategy == LightenBackground {
				return s
			}
		}
		t.Fatalf("no lighten suggestion in %v", strategies(ss))
		return Suggestion{}
	}

	a := pick(eOnly.Suggest(bg, fg, 4.5))
	b := pick(ePrefixed.Suggest(bg, fg, 4.5))
	assert.Equal(t, a, b)
}

func TestSuggest_ValidityProperty(t *testing.T) {
	e := Default()
	samples := []string{"#000000", "#FFFFFF", "#777777", "#FF0000", "#FFFF00", "#0000FF", "#336699", "#CCCCCC", "#808000", "#1E90FF"}

	for _, target := range []float64{4.5, 7.0} {
		for _, b := range samples {
			for _, f := range samples {
				for _, s := range e.Suggest(hex(b), hex(f), target) {
					if s.Ratio < target {
						t.Errorf("bg=%s fg=%s target=%v: %s ratio %v below target", b, f, target, s.Strategy, s.Ratio)
					}
					if got := contrast.Ratio(s.Foreground, s.Background); got < target {
						t.Errorf("bg=%s fg=%s: recomputed ratio %v below target", b, f, got)
					}
				}
			}
		}
	}
}

func TestSuggest_AtMostOnePerStrategy(t *testing.T) {
	e := Default()
	got := e.Suggest(hex("#808080"), hex("#777777"), 4.5)

	seen := map[Strategy]bool{}
	for _, s := range got {
		assert.False(t, seen[s.Strategy], "duplicate %s", s.Strategy)
		seen[s.Strategy] = true
	}
}

func TestSuggest_Exhaustion(t *testing.T) {
	// Nothing can reach 21:1 except pure black on pure white, which the
	// clamped lightness range never produces.
	got := Default().Suggest(hex("#808080"), hex("#7F7F7F"), 21)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestSuggest_Deterministic(t *testing.T) {
	e := Default()
	a := e.Suggest(hex("#FFFF00"), hex("#FF0000"), 7.0)
	b := e.Suggest(hex("#FFFF00"), hex("#FF0000"), 7.0)
	assert.Equal(t, a, b)
}

func TestSuggestion_RatioPrecision(t *testing.T) {
	got := Default().Suggest(hex("#FFFFFF"), hex("#777777"), 4.5)
	require.NotEmpty(t, got)

	for _, s := range got {
		assert.Equal(t, contrast.Ratio(s.Foreground, s.Background), s.Ratio, "%s keeps the exact ratio", s.Strategy)

		data, err := json.Marshal(s)
		require.NoError(t, err)
		var decoded struct {
			Strategy   string  `json:"strategy"`
			Background string  `json:"background"`
			Ratio      float64 `json:"ratio"`
		}
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, contrast.Round2(s.Ratio), decoded.Ratio)
		assert.Equal(t, string(s.Strategy), decoded.Strategy)
		assert.Equal(t, s.BackgroundHex, decoded.Background)
		assert.NotContains(t, string(data), "Foreground\"", "colors are rendered as hex only")
	}
}

func TestFormatOKLCH(t *testing.T) {
	s := OKLCH(hex("#FFFFFF"))
	assert.True(t, strings.HasPrefix(s, "oklch(1.000 0.000 0.0"), s)

	s = OKLCH(hex("#000000"))
	assert.Equal(t, "oklch(0.000 0.000 0.0)", s)

	assert.Equal(t, "oklch(0.500 0.100 120.0)", FormatOKLCH(0.5, 0.1, 120))
}

func TestEngine_OptionsCopy(t *testing.T) {
	opts := DefaultOptions()
	e, err := New(opts)
	require.NoError(t, err)

	opts.LightenDeltas[0] = 0.99
	assert.Equal(t, 0.15, e.Options().LightenDeltas[0])

	got := e.Options()
	got.DarkenDeltas[0] = -0.99
	assert.Equal(t, -0.15, e.Options().DarkenDeltas[0])
}
