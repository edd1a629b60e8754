package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ironsheep/color-contrast-mcp/internal/contrast"
	"github.com/ironsheep/color-contrast-mcp/internal/suggest"
)

// PairInput is one foreground/background pair to analyze. Colors are hex
// strings in any of the forms contrast.ParseHex accepts.
type PairInput struct {
	Foreground string `json:"foreground"`
	Background string `json:"background"`
	Label      string `json:"label,omitempty"`
}

// PairAnalysis is the evaluated result for one input pair.
type PairAnalysis struct {
	Label       string
	Foreground  contrast.Color
	Background  contrast.Color
	Contrast    contrast.Result
	Suggestions []suggest.Suggestion
}

type pairJSON struct {
	Label      string  `json:"label"`
	Foreground string  `json:"foreground"`
	Background string  `json:"background"`
	Ratio      float64 `json:"ratio"`
	contrast.Flags
	Suggestions []suggest.Suggestion `json:"suggestions"`
}

// MarshalJSON renders colors as canonical hex and the ratio rounded to two
// decimals. The flags were computed from the unrounded ratio.
func (p PairAnalysis) MarshalJSON() ([]byte, error) {
	suggestions := p.Suggestions
	if suggestions == nil {
		suggestions = []suggest.Suggestion{}
	}
	return json.Marshal(pairJSON{
		Label:       p.Label,
		Foreground:  p.Foreground.Hex(),
		Background:  p.Background.Hex(),
		Ratio:       contrast.Round2(p.Contrast.Ratio),
		Flags:       p.Contrast.Flags,
		Suggestions: suggestions,
	})
}

// DisplayRatio is the ratio rounded for presentation.
func (p PairAnalysis) DisplayRatio() float64 {
	return contrast.Round2(p.Contrast.Ratio)
}

// SkippedPair records an input pair that could not be parsed.
type SkippedPair struct {
	Index      int    `json:"index"`
	Label      string `json:"label,omitempty"`
	Foreground string `json:"foreground"`
	Background string `json:"background"`
	Error      string `json:"error"`
}

// Report aggregates the analysis of a batch of pairs.
//
// TotalPairs == PassedPairs + FailedPairs == len(Pairs) always holds.
// A pair passes when it meets AA for normal text, whatever WCAGLevel says;
// WCAGLevel only selects the target used to search for suggestions.
type Report struct {
	WCAGLevel     contrast.Level `json:"wcag_level"`
	TargetRatio   float64        `json:"target_ratio"`
	TotalPairs    int            `json:"total_pairs"`
	PassedPairs   int            `json:"passed_pairs"`
	FailedPairs   int            `json:"failed_pairs"`
	Pairs         []PairAnalysis `json:"color_pairs"`
	Skipped       []SkippedPair  `json:"skipped,omitempty"`
	Diagnostic    string         `json:"diagnostic,omitempty"`
	Source        string         `json:"source,omitempty"`
	DetectedTexts int            `json:"detected_texts"`
}

// EmptyReport returns a valid zero-pair report carrying diagnostic.
// It is what callers return when the image or OCR stage fails.
func EmptyReport(level contrast.Level, diagnostic string) *Report {
	level = normalizeLevel(level)
	return &Report{
		WCAGLevel:   level,
		TargetRatio: level.TargetRatio(),
		Pairs:       []PairAnalysis{},
		Diagnostic:  diagnostic,
	}
}

// Failing returns the pairs that do not meet AA for normal text.
func (r *Report) Failing() []PairAnalysis {
	var out []PairAnalysis
	for _, p := range r.Pairs {
		if !p.Contrast.PassesAANormal {
			out = append(out, p)
		}
	}
	return out
}

// Summary is a one-paragraph plain text description of the report.
func (r *Report) Summary() string {
	var b strings.Builder

	if r.TotalPairs == 0 {
		b.WriteString("No color pairs analyzed.")
	} else {
		fmt.Fprintf(&b, "Analyzed %d color pair(s) against WCAG %s: %d passed, %d failed (AA normal text, %.1f:1).",
			r.TotalPairs, r.WCAGLevel, r.PassedPairs, r.FailedPairs, contrast.ThresholdAANormal)
	}

	if r.DetectedTexts > 0 {
		fmt.Fprintf(&b, " %d text region(s) detected.", r.DetectedTexts)
	}
	if n := len(r.Skipped); n > 0 {
		fmt.Fprintf(&b, " %d pair(s) skipped for malformed colors.", n)
	}
	if r.Diagnostic != "" {
		fmt.Fprintf(&b, " %s", r.Diagnostic)
	}

	for _, p := range r.Failing() {
		label := p.Label
		if label == "" {
			label = "(unlabeled)"
		}
		fmt.Fprintf(&b, "\n- %s: %s on %s = %.2f:1", label, p.Foreground.Hex(), p.Background.Hex(), p.DisplayRatio())
		if len(p.Suggestions) > 0 {
			s := p.Suggestions[0]
			fmt.Fprintf(&b, " (try %s: %s on %s = %.2f:1)", s.Strategy, s.ForegroundHex, s.BackgroundHex, s.Ratio)
		}
	}
	return b.String()
}

func normalizeLevel(l contrast.Level) contrast.Level {
	if l == contrast.LevelAAA {
		return contrast.LevelAAA
	}
	return contrast.LevelAA
}
