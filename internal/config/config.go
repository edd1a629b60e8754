// Package config loads the server configuration from defaults, an optional
// config file, a .env file and CONTRAST_MCP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ironsheep/color-contrast-mcp/internal/contrast"
	"github.com/ironsheep/color-contrast-mcp/internal/suggest"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "CONTRAST_MCP"

// Config holds all configuration for the server.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Image    ImageConfig    `mapstructure:"image"`
}

// LogConfig controls the hclog root logger.
type LogConfig struct {
	Level string `mapstructure:"level"` // trace, debug, info, warn, error
	JSON  bool   `mapstructure:"json"`
}

// HTTPConfig controls the HTTP transport.
type HTTPConfig struct {
	Address         string        `mapstructure:"address"`
	BaseURL         string        `mapstructure:"base_url"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AnalysisConfig controls the batch analyzer and the suggestion search.
type AnalysisConfig struct {
	Workers      int           `mapstructure:"workers"`
	DefaultLevel string        `mapstructure:"default_level"`
	Suggest      SuggestConfig `mapstructure:"suggest"`
}

// SuggestConfig mirrors suggest.Options.
type SuggestConfig struct {
	LightenDeltas   []float64 `mapstructure:"lighten_deltas"`
	DarkenDeltas    []float64 `mapstructure:"darken_deltas"`
	LightenBelow    float64   `mapstructure:"lighten_below"`
	DarkenAbove     float64   `mapstructure:"darken_above"`
	ForegroundPivot float64   `mapstructure:"foreground_pivot"`
	ForegroundStep  float64   `mapstructure:"foreground_step"`
	MinLightness    float64   `mapstructure:"min_lightness"`
	MaxLightness    float64   `mapstructure:"max_lightness"`
}

// ImageConfig controls image loading, OCR and color sampling.
type ImageConfig struct {
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	MaxBytes          int64         `mapstructure:"max_bytes"`
	AllowLocalFiles   bool          `mapstructure:"allow_local_files"`
	OCRLanguage       string        `mapstructure:"ocr_language"`
	MinWordConfidence float64       `mapstructure:"min_word_confidence"`
	MaxWords          int           `mapstructure:"max_words"`
	BackgroundPadding int           `mapstructure:"background_padding"`
	CacheSize         int           `mapstructure:"cache_size"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// Options converts the section into engine options.
func (s SuggestConfig) Options() suggest.Options {
	return suggest.Options{
		LightenDeltas:   append([]float64(nil), s.LightenDeltas...),
		DarkenDeltas:    append([]float64(nil), s.DarkenDeltas...),
		LightenBelow:    s.LightenBelow,
		DarkenAbove:     s.DarkenAbove,
		ForegroundPivot: s.ForegroundPivot,
		ForegroundStep:  s.ForegroundStep,
		MinLightness:    s.MinLightness,
		MaxLightness:    s.MaxLightness,
	}
}

// Level parses DefaultLevel.
func (a AnalysisConfig) Level() (contrast.Level, error) {
	return contrast.ParseLevel(a.DefaultLevel)
}

// Validate checks the analysis section.
func (a AnalysisConfig) Validate() error {
	if a.Workers < 1 {
		return fmt.Errorf("analysis.workers must be >= 1")
	}
	if _, err := a.Level(); err != nil {
		return fmt.Errorf("analysis.default_level: %w", err)
	}
	if err := a.Suggest.Options().Validate(); err != nil {
		return fmt.Errorf("analysis.suggest: %w", err)
	}
	return nil
}

// Validate checks the image section.
func (i ImageConfig) Validate() error {
	if i.FetchTimeout <= 0 {
		return fmt.Errorf("image.fetch_timeout must be > 0")
	}
	if i.MaxBytes <= 0 {
		return fmt.Errorf("image.max_bytes must be > 0")
	}
	if i.MinWordConfidence < 0 || i.MinWordConfidence > 100 {
		return fmt.Errorf("image.min_word_confidence must be within [0, 100]")
	}
	if i.MaxWords < 1 {
		return fmt.Errorf("image.max_words must be >= 1")
	}
	if i.BackgroundPadding < 0 {
		return fmt.Errorf("image.background_padding cannot be negative")
	}
	if strings.TrimSpace(i.OCRLanguage) == "" {
		return fmt.Errorf("image.ocr_language is required")
	}
	if i.CacheTTL < 0 {
		return fmt.Errorf("image.cache_ttl cannot be negative")
	}
	return nil
}

// Validate checks the HTTP section.
func (h HTTPConfig) Validate() error {
	if strings.TrimSpace(h.Address) == "" {
		return fmt.Errorf("http.address is required")
	}
	if h.ShutdownTimeout <= 0 {
		return fmt.Errorf("http.shutdown_timeout must be > 0")
	}
	return nil
}

// Validate checks the log section.
func (l LogConfig) Validate() error {
	switch strings.ToLower(l.Level) {
	case "trace", "debug", "info", "warn", "error", "off":
		return nil
	default:
		return fmt.Errorf("log.level %q is not one of trace, debug, info, warn, error, off", l.Level)
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	return errors.Join(
		c.Log.Validate(),
		c.HTTP.Validate(),
		c.Analysis.Validate(),
		c.Image.Validate(),
	)
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	d := suggest.DefaultOptions()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("http.address", ":8000")
	v.SetDefault("http.base_url", "")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.default_level", "AA")
	v.SetDefault("analysis.suggest.lighten_deltas", d.LightenDeltas)
	v.SetDefault("analysis.suggest.darken_deltas", d.DarkenDeltas)
	v.SetDefault("analysis.suggest.lighten_below", d.LightenBelow)
	v.SetDefault("analysis.suggest.darken_above", d.DarkenAbove)
	v.SetDefault("analysis.suggest.foreground_pivot", d.ForegroundPivot)
	v.SetDefault("analysis.suggest.foreground_step", d.ForegroundStep)
	v.SetDefault("analysis.suggest.min_lightness", d.MinLightness)
	v.SetDefault("analysis.suggest.max_lightness", d.MaxLightness)

	v.SetDefault("image.fetch_timeout", 15*time.Second)
	v.SetDefault("image.max_bytes", int64(20<<20))
	v.SetDefault("image.allow_local_files", true)
	v.SetDefault("image.ocr_language", "eng")
	v.SetDefault("image.min_word_confidence", 60.0)
	v.SetDefault("image.max_words", 50)
	v.SetDefault("image.background_padding", 10)
	v.SetDefault("image.cache_size", 16)
	v.SetDefault("image.cache_ttl", 5*time.Minute)
}

// New returns a viper instance with defaults, the env prefix and key
// replacer installed. Flags may be bound to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration into a validated Config.
//
// A .env file in the working directory is loaded first if present. When path
// is empty, a file named contrast-mcp.{yaml,json,toml} is searched in the
// working directory and ./config; not finding one is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	// Missing .env is the normal case in production.
	_ = godotenv.Load()

	if v == nil {
		v = New()
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("contrast-mcp")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
