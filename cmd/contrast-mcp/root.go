package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ironsheep/color-contrast-mcp/internal/analysis"
	"github.com/ironsheep/color-contrast-mcp/internal/config"
	"github.com/ironsheep/color-contrast-mcp/internal/detection"
	"github.com/ironsheep/color-contrast-mcp/internal/metrics"
	"github.com/ironsheep/color-contrast-mcp/internal/ocr"
	"github.com/ironsheep/color-contrast-mcp/internal/pipeline"
	"github.com/ironsheep/color-contrast-mcp/internal/server"
	"github.com/ironsheep/color-contrast-mcp/internal/source"
	"github.com/ironsheep/color-contrast-mcp/internal/suggest"
)

// app carries state shared by every sub-command once the root command's
// PersistentPreRunE has loaded configuration.
type app struct {
	v       *viper.Viper
	cfgPath string
	cfg     *config.Config
	logger  hclog.Logger
	stderr  io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New(), stderr: os.Stderr}

	root := &cobra.Command{
		Use:   "contrast-mcp",
		Short: "MCP server for WCAG color contrast checks",
		Long: `contrast-mcp checks foreground/background color pairs, or the text found in
an image, against WCAG contrast requirements and suggests OKLCH lightness
adjustments for failing pairs.

Without a sub-command it serves MCP over stdin/stdout. Configure it in your
MCP client (e.g., Claude Desktop).

Configuration is read from contrast-mcp.yaml, .env and CONTRAST_MCP_*
environment variables (e.g. CONTRAST_MCP_LOG_LEVEL=debug).`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serveStdio(cmd)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("contrast-mcp %s\n  Build time: %s\n  Git commit: %s\n", Version, BuildTime, GitCommit))

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgPath, "config", "c", "", "config file (default: ./contrast-mcp.yaml if present)")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error, off")
	flags.Bool("log-json", false, "log as JSON")
	a.bindFlags(flags, map[string]string{
		"log-level": "log.level",
		"log-json":  "log.json",
	})

	root.AddCommand(
		newServeCmd(a),
		newHTTPCmd(a),
		newCheckCmd(a),
		newVersionCmd(),
	)
	return root
}

// bindFlags binds flags to config keys so a set flag overrides file and
// environment values.
func (a *app) bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		if f := fs.Lookup(name); f != nil {
			_ = a.v.BindPFlag(key, f)
		}
	}
}

// load reads configuration and builds the root logger. Logs go to stderr:
// stdout is the MCP channel.
func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = hclog.New(&hclog.LoggerOptions{
		Name:       "contrast-mcp",
		Level:      hclog.LevelFromString(cfg.Log.Level),
		Output:     a.stderr,
		JSONFormat: cfg.Log.JSON,
	})
	a.logger.Debug("configuration loaded", "version", Version, "commit", GitCommit, "config", a.v.ConfigFileUsed())
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// newRegistry returns a registry with the Go runtime and process collectors
// alongside the application metrics.
func newRegistry() (*prometheus.Registry, *metrics.Metrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry, metrics.New(registry)
}

// newAnalyzer builds the pair analyzer from the analysis section.
func (a *app) newAnalyzer(m *metrics.Metrics) (*analysis.Analyzer, error) {
	engine, err := suggest.New(a.cfg.Analysis.Suggest.Options())
	if err != nil {
		return nil, err
	}
	return analysis.New(engine,
		analysis.WithWorkers(a.cfg.Analysis.Workers),
		analysis.WithLogger(a.logger.Named("analysis")),
		analysis.WithMetrics(m),
	), nil
}

// newPipeline builds the loader and image pipeline from the image section.
func (a *app) newPipeline(analyzer *analysis.Analyzer, m *metrics.Metrics) (*source.Loader, *pipeline.Pipeline) {
	ic := a.cfg.Image

	var cache *source.Cache
	if ic.CacheSize > 0 {
		cache = source.NewCache(ic.CacheSize, ic.CacheTTL)
	}
	loader := source.NewLoader(source.Options{
		FetchTimeout:    ic.FetchTimeout,
		MaxBytes:        ic.MaxBytes,
		AllowLocalFiles: ic.AllowLocalFiles,
		UserAgent:       source.UserAgentName + "/" + Version,
	}, cache, a.logger.Named("source"), m)

	ocrOpts := ocr.DefaultOptions()
	ocrOpts.Language = ic.OCRLanguage
	ocrOpts.MinConfidence = ic.MinWordConfidence
	ocrOpts.MaxWords = ic.MaxWords
	engine := ocr.New(ocrOpts, a.logger.Named("ocr"))
	if err := engine.Available(); err != nil {
		a.logger.Warn("OCR unavailable, images will use text-region detection", "error", err)
	}

	regions := detection.DefaultTextOptions()
	regions.MaxRegions = ic.MaxWords

	p := pipeline.New(loader, analyzer,
		pipeline.WithRecognizer(engine),
		pipeline.WithRegionOptions(regions),
		pipeline.WithPadding(ic.BackgroundPadding),
		pipeline.WithLogger(a.logger.Named("pipeline")),
	)
	return loader, p
}

// newServer wires a fully configured MCP server.
func (a *app) newServer(m *metrics.Metrics) (*server.Server, error) {
	analyzer, err := a.newAnalyzer(m)
	if err != nil {
		return nil, err
	}
	level, err := a.cfg.Analysis.Level()
	if err != nil {
		return nil, err
	}
	loader, p := a.newPipeline(analyzer, m)

	return server.New(
		server.WithAnalyzer(analyzer),
		server.WithLoader(loader),
		server.WithPipeline(p),
		server.WithDefaultLevel(level),
		server.WithVersion(Version),
		server.WithLogger(a.logger.Named("server")),
		server.WithMetrics(m),
	), nil
}
