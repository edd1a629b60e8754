package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/color-contrast-mcp/internal/analysis"
	"github.com/ironsheep/color-contrast-mcp/internal/contrast"
	"github.com/ironsheep/color-contrast-mcp/internal/widget"
)

type checkOptions struct {
	pairs  []string
	file   string
	image  string
	level  string
	html   bool
	strict bool
}

func newCheckCmd(a *app) *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check color pairs or an image from the command line",
		Long: `Check color pairs or an image and print the analysis report as JSON, or as
the HTML widget with --html.

Pairs are given as FOREGROUND:BACKGROUND[:LABEL], or in a JSON file holding
either an array of {"foreground","background","label"} objects or an object
with a "pairs" array. Use --file - to read from stdin.`,
		Example: `  contrast-mcp check --pair "#777777:#FFFFFF:Body text"
  contrast-mcp check --file pairs.json --level AAA
  contrast-mcp check --image screenshot.png --html > report.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCheck(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.pairs, "pair", "p", nil, "color pair FG:BG[:LABEL] (repeatable)")
	f.StringVarP(&opts.file, "file", "f", "", "JSON file of pairs (- for stdin)")
	f.StringVarP(&opts.image, "image", "i", "", "image URL, path, data URL or base64 to analyze instead of pairs")
	f.StringVarP(&opts.level, "level", "l", "", "WCAG level suggestions should reach: AA or AAA (default from config)")
	f.BoolVar(&opts.html, "html", false, "print the HTML widget instead of JSON")
	f.BoolVar(&opts.strict, "strict", false, "exit non-zero when any pair fails AA for normal text")
	return cmd
}

func (a *app) runCheck(cmd *cobra.Command, opts checkOptions) error {
	ctx := cmd.Context()

	level, err := a.cfg.Analysis.Level()
	if err != nil {
		return err
	}
	if opts.level != "" {
		if level, err = contrast.ParseLevel(opts.level); err != nil {
			return err
		}
	}

	analyzer, err := a.newAnalyzer(nil)
	if err != nil {
		return err
	}

	var report *analysis.Report
	var runErr error
	if opts.image != "" {
		if len(opts.pairs) > 0 || opts.file != "" {
			return errors.New("--image cannot be combined with --pair or --file")
		}
		_, p := a.newPipeline(analyzer, nil)
		report, runErr = p.Run(ctx, opts.image, level)
	} else {
		pairs, err := collectPairs(opts, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if report, err = analyzer.Analyze(ctx, pairs, level); err != nil {
			return err
		}
	}

	if err := writeReport(cmd.OutOrStdout(), report, opts.html); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if opts.strict && report.FailedPairs > 0 {
		return fmt.Errorf("%d of %d pair(s) fail WCAG AA for normal text", report.FailedPairs, report.TotalPairs)
	}
	return nil
}

func collectPairs(opts checkOptions, stdin io.Reader) ([]analysis.PairInput, error) {
	pairs := make([]analysis.PairInput, 0, len(opts.pairs))
	for _, s := range opts.pairs {
		p, err := parsePairFlag(s)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}

	if opts.file != "" {
		var data []byte
		var err error
		if opts.file == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(opts.file)
		}
		if err != nil {
			return nil, fmt.Errorf("read pairs: %w", err)
		}
		fromFile, err := parsePairsJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", opts.file, err)
		}
		pairs = append(pairs, fromFile...)
	}

	if len(pairs) == 0 {
		return nil, errors.New("no pairs given: use --pair, --file or --image")
	}
	return pairs, nil
}

// parsePairFlag parses FOREGROUND:BACKGROUND[:LABEL]. The label may itself
// contain colons.
func parsePairFlag(s string) (analysis.PairInput, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return analysis.PairInput{}, fmt.Errorf("invalid pair %q: want FOREGROUND:BACKGROUND[:LABEL]", s)
	}
	p := analysis.PairInput{
		Foreground: strings.TrimSpace(parts[0]),
		Background: strings.TrimSpace(parts[1]),
	}
	if len(parts) == 3 {
		p.Label = strings.TrimSpace(parts[2])
	}
	return p, nil
}

// parsePairsJSON accepts a bare array of pairs or {"pairs": [...]}.
func parsePairsJSON(data []byte) ([]analysis.PairInput, error) {
	data = bytes.TrimSpace(data)
	var pairs []analysis.PairInput
	if bytes.HasPrefix(data, []byte("[")) {
		if err := json.Unmarshal(data, &pairs); err != nil {
			return nil, err
		}
		return pairs, nil
	}

	var wrapped struct {
		Pairs []analysis.PairInput `json:"pairs"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Pairs, nil
}

func writeReport(w io.Writer, report *analysis.Report, html bool) error {
	if html {
		return widget.Render(w, report)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
