package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/hashicorp/go-hclog"

	"github.com/ironsheep/color-contrast-mcp/internal/analysis"
	"github.com/ironsheep/color-contrast-mcp/internal/contrast"
	"github.com/ironsheep/color-contrast-mcp/internal/detection"
	"github.com/ironsheep/color-contrast-mcp/internal/imaging"
	"github.com/ironsheep/color-contrast-mcp/internal/ocr"
	"github.com/ironsheep/color-contrast-mcp/internal/source"
)

// DiagnosticNoText is reported when neither OCR nor region detection finds
// anything to sample.
const DiagnosticNoText = "no text detected in image"

// Loader resolves an image reference. *source.Loader implements it.
type Loader interface {
	Load(ctx context.Context, ref string) (*source.Image, error)
}

// Recognizer finds words in an image. *ocr.Engine implements it.
type Recognizer interface {
	Words(ctx context.Context, img image.Image) ([]ocr.Word, error)
}

// Pipeline turns an image reference into an analysis report.
type Pipeline struct {
	loader     Loader
	recognizer Recognizer
	analyzer   *analysis.Analyzer
	regions    detection.TextOptions
	padding    int
	logger     hclog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecognizer sets the OCR engine. Without one every image goes
// through region detection.
func WithRecognizer(r Recognizer) Option {
	return func(p *Pipeline) { p.recognizer = r }
}

// WithRegionOptions tunes the detection fallback.
func WithRegionOptions(opts detection.TextOptions) Option {
	return func(p *Pipeline) { p.regions = opts }
}

// WithPadding sets how far around each text box the background is sampled.
func WithPadding(px int) Option {
	return func(p *Pipeline) { p.padding = px }
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a pipeline. A nil analyzer means analysis.New(nil).
func New(loader Loader, analyzer *analysis.Analyzer, opts ...Option) *Pipeline {
	if analyzer == nil {
		analyzer = analysis.New(nil)
	}
	p := &Pipeline{
		loader:   loader,
		analyzer: analyzer,
		regions:  detection.DefaultTextOptions(),
		padding:  imaging.DefaultPadding,
		logger:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// text is a located piece of text awaiting color sampling.
type text struct {
	label string
	box   image.Rectangle
}

// Run loads ref, locates its text, samples each text's colors and analyzes
// the resulting pairs in reading order.
//
// The returned report is never nil. When loading or analysis fails the
// report is empty, carries the failure as its diagnostic, and the error is
// returned alongside it.
func (p *Pipeline) Run(ctx context.Context, ref string, level contrast.Level) (*analysis.Report, error) {
	fail := func(err error) (*analysis.Report, error) {
		report := analysis.EmptyReport(level, err.Error())
		report.Source = source.Describe(ref)
		return report, err
	}

	if ref == "" {
		return fail(errors.New("no image provided"))
	}

	img, err := p.loader.Load(ctx, ref)
	if err != nil {
		return fail(fmt.Errorf("failed to load image: %w", err))
	}

	texts, err := p.locate(ctx, img)
	if err != nil {
		return fail(err)
	}

	pairs := make([]analysis.PairInput, 0, len(texts))
	for _, t := range texts {
		colors, err := imaging.SampleTextColors(img, t.box, p.padding)
		if err != nil {
			p.logger.Debug("text box not sampled", "label", t.label, "error", err)
			continue
		}
		// Nothing distinct from the background: a recognition miss, not a pair.
		if colors.Foreground == colors.Background {
			p.logger.Debug("text box has no foreground", "label", t.label)
			continue
		}
		pairs = append(pairs, analysis.PairInput{
			Foreground: colors.Foreground.Hex(),
			Background: colors.Background.Hex(),
			Label:      t.label,
		})
	}

	report, err := p.analyzer.Analyze(ctx, pairs, level)
	if err != nil {
		return fail(err)
	}
	report.Source = source.Describe(ref)
	report.DetectedTexts = len(texts)
	if len(texts) == 0 {
		report.Diagnostic = DiagnosticNoText
	}

	p.logger.Info("image analyzed",
		"source", report.Source,
		"width", img.Width(), "height", img.Height(),
		"texts", len(texts), "pairs", report.TotalPairs, "failed", report.FailedPairs)
	return report, nil
}

// locate returns OCR words, or detected text regions when OCR is
// unavailable, fails, or reads nothing.
func (p *Pipeline) locate(ctx context.Context, img *source.Image) ([]text, error) {
	if p.recognizer != nil {
		words, err := p.recognizer.Words(ctx, img)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, ocr.ErrUnavailable):
			p.logger.Warn("ocr unavailable, using region detection", "error", err)
		case err != nil:
			p.logger.Warn("ocr failed, using region detection", "error", err)
		case len(words) == 0:
			p.logger.Debug("ocr found no words, using region detection")
		default:
			texts := make([]text, len(words))
			for i, w := range words {
				texts[i] = text{label: w.Text, box: w.Bounds.Rect()}
			}
			return texts, nil
		}
	}

	regions := detection.DetectTextRegions(img, p.regions)
	texts := make([]text, len(regions))
	for i, r := range regions {
		texts[i] = text{label: r.Label, box: r.Rect()}
	}
	return texts, nil
}
