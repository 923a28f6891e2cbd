// Package config loads the ambient-layer configuration shared by
// cmd/novelty's subcommands: the engine's tunables (mirroring
// model.Config field for field) plus the settings only the CLI/HTTP
// surface needs — quantiles to track, alert sinks, burn-in, and the
// metrics listen address.
//
// Precedence follows Viper's usual order: explicit flags, then
// NOVELTY_-prefixed environment variables, then a config file
// (YAML/JSON/TOML, located via AddConfigPath/SetConfigName or passed
// with --config), then the defaults below.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/crimson-sun/novelty/internal/model"
)

const envPrefix = "NOVELTY"

// EngineConfig mirrors model.Config one field at a time so flag names
// and config-file keys match the engine's own vocabulary.
type EngineConfig struct {
	Decay            float64 `mapstructure:"decay"`
	LaplaceK         float64 `mapstructure:"laplace_k"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	MaxTemplates     int     `mapstructure:"max_templates"`
	MaxLineLength    int     `mapstructure:"max_line_length"`
	MaxTokensPerLine int     `mapstructure:"max_tokens_per_line"`
	WithBigrams      bool    `mapstructure:"with_bigrams"`
	WeightToken      float64 `mapstructure:"weight_token"`
	WeightTemplate   float64 `mapstructure:"weight_template"`
	WeightLevel      float64 `mapstructure:"weight_level"`
	BurnIn           int     `mapstructure:"burn_in"`
}

// ToModel converts the loaded flags into a model.Config the engine
// accepts directly.
func (e EngineConfig) ToModel() model.Config {
	return model.Config{
		Decay:            e.Decay,
		LaplaceK:         e.LaplaceK,
		MaxTokens:        e.MaxTokens,
		MaxTemplates:     e.MaxTemplates,
		MaxLineLength:    e.MaxLineLength,
		MaxTokensPerLine: e.MaxTokensPerLine,
		WithBigrams:      e.WithBigrams,
		WeightToken:      e.WeightToken,
		WeightTemplate:   e.WeightTemplate,
		WeightLevel:      e.WeightLevel,
		BurnIn:           e.BurnIn,
	}
}

// SinkConfig describes one configured alert destination.
type SinkConfig struct {
	Type      string        `mapstructure:"type"` // "stdout", "file", "webhook"
	Path      string        `mapstructure:"path"`
	URL       string        `mapstructure:"url"`
	Pretty    bool          `mapstructure:"pretty"`
	MaxSizeMB int           `mapstructure:"max_size_mb"`
	Async     bool          `mapstructure:"async"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Config is the full ambient configuration for every cmd/novelty
// subcommand.
type Config struct {
	Engine EngineConfig `mapstructure:"engine"`

	Quantiles   []float64     `mapstructure:"quantiles"`
	Verbosity   string        `mapstructure:"verbosity"` // "minimal", "standard", "full"
	DedupWindow time.Duration `mapstructure:"dedup_window"`
	Sinks       []SinkConfig  `mapstructure:"sinks"`

	HTTPAddr    string `mapstructure:"http_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`

	SnapshotPath string `mapstructure:"snapshot_path"`
	LogLevel     string `mapstructure:"log_level"`
}

// Default returns the spec-default configuration: engine defaults from
// model.DefaultConfig, a single registered quantile at 0.999, standard
// verbosity, a 5s dedup window, and a lone stdout sink.
func Default() Config {
	eng := model.DefaultConfig()
	return Config{
		Engine: EngineConfig{
			Decay:            eng.Decay,
			LaplaceK:         eng.LaplaceK,
			MaxTokens:        eng.MaxTokens,
			MaxTemplates:     eng.MaxTemplates,
			MaxLineLength:    eng.MaxLineLength,
			MaxTokensPerLine: eng.MaxTokensPerLine,
			WithBigrams:      eng.WithBigrams,
			WeightToken:      eng.WeightToken,
			WeightTemplate:   eng.WeightTemplate,
			WeightLevel:      eng.WeightLevel,
			BurnIn:           eng.BurnIn,
		},
		Quantiles:   []float64{0.999},
		Verbosity:   "standard",
		DedupWindow: 5 * time.Second,
		Sinks:       []SinkConfig{{Type: "stdout", Pretty: false}},
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
		LogLevel:    "info",
	}
}

// BindFlags registers every configurable setting as a persistent flag on
// cmd and binds it into v, so flag > env > config-file > default holds
// for each one individually.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	d := Default()
	f := cmd.PersistentFlags()

	f.Float64("engine.decay", d.Engine.Decay, "per-line decay factor, (0,1]")
	f.Float64("engine.laplace_k", d.Engine.LaplaceK, "Laplace smoothing constant")
	f.Int("engine.max_tokens", d.Engine.MaxTokens, "token vocabulary cap")
	f.Int("engine.max_templates", d.Engine.MaxTemplates, "template vocabulary cap")
	f.Int("engine.max_line_length", d.Engine.MaxLineLength, "per-line truncation cap in runes")
	f.Int("engine.max_tokens_per_line", d.Engine.MaxTokensPerLine, "per-line token cap")
	f.Bool("engine.with_bigrams", d.Engine.WithBigrams, "emit adjacent-pair bigrams in addition to unigrams")
	f.Float64("engine.weight_token", d.Engine.WeightToken, "scorer token weight")
	f.Float64("engine.weight_template", d.Engine.WeightTemplate, "scorer template weight")
	f.Float64("engine.weight_level", d.Engine.WeightLevel, "scorer severity-level weight")
	f.Int("engine.burn_in", d.Engine.BurnIn, "lines observed before alerts may fire")

	// A string slice, not Float64Slice: Viper hands a Float64Slice flag to
	// Unmarshal as its bracketed String() form, which cannot decode into
	// []float64; plain strings decode through weakly typed input.
	quantiles := make([]string, len(d.Quantiles))
	for i, q := range d.Quantiles {
		quantiles[i] = strconv.FormatFloat(q, 'g', -1, 64)
	}
	f.StringSlice("quantiles", quantiles, "quantiles to track; the highest is the alert threshold")
	f.String("verbosity", d.Verbosity, "alert truncation level: minimal, standard, full")
	f.Duration("dedup_window", d.DedupWindow, "alert dedup window; 0 disables dedup")

	f.String("http_addr", d.HTTPAddr, "address for the novelty serve HTTP API")
	f.String("metrics_addr", d.MetricsAddr, "address for the Prometheus /metrics endpoint")
	f.String("snapshot_path", d.SnapshotPath, "path to load/save model state")
	f.String("log_level", d.LogLevel, "log level: debug, info, warn, error")

	bindFlags(cmd, v)
}

// bindFlags binds every flag on cmd into v under its own name, and also
// registers an env-var alias (dots become underscores, prefixed with
// NOVELTY_) for flags that address a nested key.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := f.Name
		if strings.Contains(key, ".") {
			envVar := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
			_ = v.BindEnv(key, fmt.Sprintf("%s_%s", envPrefix, envVar))
		}
		_ = v.BindPFlag(key, f)
	})
}

// Load resolves a Config from flags, environment, and config file, in
// that precedence order, then validates it.
func Load(v *viper.Viper, configFile string) (Config, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("novelty")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("config: reading config file: %w", err)
			}
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Engine.ToModel().Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validateAmbient(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validateAmbient checks the settings model.Config.Validate cannot see.
func (c Config) validateAmbient() error {
	var bad []string
	for _, q := range c.Quantiles {
		if q <= 0 || q >= 1 {
			bad = append(bad, fmt.Sprintf("quantiles entries must be in (0,1), got %v", q))
		}
	}
	switch c.Verbosity {
	case "minimal", "standard", "full":
	default:
		bad = append(bad, fmt.Sprintf("verbosity must be one of minimal/standard/full, got %q", c.Verbosity))
	}
	if c.DedupWindow < 0 {
		bad = append(bad, fmt.Sprintf("dedup_window must be non-negative, got %v", c.DedupWindow))
	}
	for _, s := range c.Sinks {
		switch s.Type {
		case "stdout":
		case "file":
			if s.Path == "" {
				bad = append(bad, "file sink requires a path")
			}
		case "webhook":
			if s.URL == "" {
				bad = append(bad, "webhook sink requires a url")
			}
		default:
			bad = append(bad, fmt.Sprintf("unknown sink type %q", s.Type))
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return &model.Error{Kind: model.ConfigError, Field: "config", Message: strings.Join(bad, "; ")}
}
