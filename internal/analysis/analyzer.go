package analysis

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/color-contrast-mcp/internal/contrast"
	"github.com/ironsheep/color-contrast-mcp/internal/metrics"
	"github.com/ironsheep/color-contrast-mcp/internal/suggest"
)

// Analyzer evaluates batches of color pairs. It is safe for concurrent use.
type Analyzer struct {
	engine  *suggest.Engine
	workers int
	logger  hclog.Logger
	metrics *metrics.Metrics
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWorkers sets how many pairs are evaluated concurrently.
// Values below 2 evaluate sequentially.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l hclog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics records pair outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// New returns an Analyzer that searches suggestions with engine.
// A nil engine uses suggest.Default().
func New(engine *suggest.Engine, opts ...Option) *Analyzer {
	if engine == nil {
		engine = suggest.Default()
	}
	a := &Analyzer{
		engine:  engine,
		workers: 1,
		logger:  hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type parsedPair struct {
	label  string
	fg, bg contrast.Color
}

// Analyze evaluates pairs in input order and aggregates a report.
//
// Pairs with a malformed color are listed in Report.Skipped and left out of
// the counts. Pairs failing AA normal text get suggestions searched at
// level's target ratio. The only error is ctx cancellation.
func (a *Analyzer) Analyze(ctx context.Context, pairs []PairInput, level contrast.Level) (*Report, error) {
	report := EmptyReport(level, "")
	target := report.TargetRatio

	parsed := make([]parsedPair, 0, len(pairs))
	for i, in := range pairs {
		p, err := parsePair(in)
		if err != nil {
			a.logger.Warn("skipping color pair", "index", i, "label", in.Label, "error", err)
			a.metrics.RecordSkipped()
			report.Skipped = append(report.Skipped, SkippedPair{
				Index:      i,
				Label:      in.Label,
				Foreground: in.Foreground,
				Background: in.Background,
				Error:      err.Error(),
			})
			continue
		}
		parsed = append(parsed, p)
	}

	results := make([]PairAnalysis, len(parsed))
	if a.workers < 2 || len(parsed) < 2 {
		for i, p := range parsed {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = a.analyzePair(p, target)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.workers)
		for i, p := range parsed {
			i, p := i, p
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = a.analyzePair(p, target)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	report.Pairs = results
	report.TotalPairs = len(results)
	for _, r := range results {
		if r.Contrast.PassesAANormal {
			report.PassedPairs++
		}
		a.metrics.RecordPair(r.Contrast.PassesAANormal)
		for _, s := range r.Suggestions {
			a.metrics.RecordSuggestion(string(s.Strategy))
		}
	}
	report.FailedPairs = report.TotalPairs - report.PassedPairs

	a.logger.Debug("analyzed color pairs",
		"pairs", report.TotalPairs,
		"passed", report.PassedPairs,
		"failed", report.FailedPairs,
		"skipped", len(report.Skipped),
		"level", report.WCAGLevel)

	return report, nil
}

// AnalyzePair evaluates a single pair. It fails only on malformed colors.
func (a *Analyzer) AnalyzePair(in PairInput, level contrast.Level) (PairAnalysis, error) {
	p, err := parsePair(in)
	if err != nil {
		return PairAnalysis{}, err
	}
	return a.analyzePair(p, normalizeLevel(level).TargetRatio()), nil
}

func (a *Analyzer) analyzePair(p parsedPair, target float64) PairAnalysis {
	result := contrast.Evaluate(p.fg, p.bg)

	suggestions := []suggest.Suggestion{}
	if !result.PassesAANormal {
		suggestions = a.engine.Suggest(p.bg, p.fg, target)
	}

	return PairAnalysis{
		Label:       p.label,
		Foreground:  p.fg,
		Background:  p.bg,
		Contrast:    result,
		Suggestions: suggestions,
	}
}

func parsePair(in PairInput) (parsedPair, error) {
	fg, err := contrast.ParseHex(in.Foreground)
	if err != nil {
		return parsedPair{}, fmt.Errorf("foreground: %w", err)
	}
	bg, err := contrast.ParseHex(in.Background)
	if err != nil {
		return parsedPair{}, fmt.Errorf("background: %w", err)
	}
	return parsedPair{label: in.Label, fg: fg, bg: bg}, nil
}
