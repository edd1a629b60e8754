package widget

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/ironsheep/color-contrast-mcp/internal/analysis"
	"github.com/ironsheep/color-contrast-mcp/internal/contrast"
	"github.com/ironsheep/color-contrast-mcp/internal/suggest"
)

const (
	// ResourceURI identifies the widget as an MCP resource.
	ResourceURI = "ui://widget/color-accessibility.html"
	// MIMEType is the resource MIME type understood by widget-capable hosts.
	MIMEType = "text/html+skybridge"
	// Name is the human-readable resource name.
	Name = "Color Accessibility Widget"
	// Description is shown in resources/list.
	Description = "Interactive widget for color accessibility analysis"
)

//go:embed *.tmpl
var templates embed.FS

var tmpl = template.Must(template.New("widget").Funcs(funcs()).ParseFS(templates, "*.tmpl"))

func funcs() template.FuncMap {
	return template.FuncMap{
		"swatch":   swatchStyle,
		"ratio":    func(r float64) string { return fmt.Sprintf("%.2f", r) },
		"strategy": strategyTitle,
		"mark": func(pass bool) string {
			if pass {
				return "✓"
			}
			return "✗"
		},
	}
}

// swatchStyle builds the inline style for a preview swatch. Colors come
// from contrast.Color.Hex, so the CSS is always a fixed well-formed shape.
func swatchStyle(fg, bg contrast.Color) template.CSS {
	return template.CSS(fmt.Sprintf("background: %s; color: %s;", bg.Hex(), fg.Hex()))
}

func strategyTitle(s suggest.Strategy) string {
	switch s {
	case suggest.LightenBackground:
		return "Lighten background"
	case suggest.DarkenBackground:
		return "Darken background"
	case suggest.AdjustForeground:
		return "Adjust foreground"
	}
	return string(s)
}

type badge struct {
	Name string
	Pass bool
}

func badges(f contrast.Flags) []badge {
	return []badge{
		{"AA Normal", f.PassesAANormal},
		{"AA Large", f.PassesAALarge},
		{"AAA Normal", f.PassesAAANormal},
		{"AAA Large", f.PassesAAALarge},
	}
}

type pairView struct {
	analysis.PairAnalysis
	Title  string
	Badges []badge
}

type reportView struct {
	*analysis.Report
	Views []pairView
}

// Render writes the HTML report for r to w.
func Render(w io.Writer, r *analysis.Report) error {
	view := reportView{Report: r, Views: make([]pairView, len(r.Pairs))}
	for i, p := range r.Pairs {
		title := p.Label
		if title == "" {
			title = fmt.Sprintf("Color pair %d", i+1)
		}
		view.Views[i] = pairView{PairAnalysis: p, Title: title, Badges: badges(p.Contrast.Flags)}
	}
	if err := tmpl.ExecuteTemplate(w, "report.html.tmpl", view); err != nil {
		return fmt.Errorf("failed to render widget: %w", err)
	}
	return nil
}

// HTML renders the report to a string.
func HTML(r *analysis.Report) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Placeholder returns the page served before any analysis has run.
func Placeholder() string {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "placeholder.html.tmpl", nil); err != nil {
		// The placeholder takes no data; failure means the embedded file is broken.
		panic(err)
	}
	return buf.String()
}
