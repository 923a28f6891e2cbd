package model

import "fmt"

// Config is the engine's immutable configuration, fixed for the lifetime of
// an Engine instance. See spec §3 "Config (immutable per engine)".
type Config struct {
	Decay            float64 // per-line decay factor, (0,1], default 0.9999
	LaplaceK         float64 // Laplace smoothing constant, default 1.0
	MaxTokens        int     // token vocabulary cap, default 30000
	MaxTemplates     int     // template vocabulary cap, default 10000
	MaxLineLength    int     // truncation cap in runes, default 2000
	MaxTokensPerLine int     // per-line token cap, default 400
	WithBigrams      bool    // emit adjacent-pair bigrams in addition to unigrams

	WeightToken    float64 // w_token, default 1.0
	WeightTemplate float64 // w_template, default 1.0
	WeightLevel    float64 // w_level, default 1.0

	BurnIn int // lines before alerts may fire, default 500
}

// DefaultConfig returns the §3-specified defaults.
func DefaultConfig() Config {
	return Config{
		Decay:            0.9999,
		LaplaceK:         1.0,
		MaxTokens:        30000,
		MaxTemplates:     10000,
		MaxLineLength:    2000,
		MaxTokensPerLine: 400,
		WithBigrams:      false,
		WeightToken:      1.0,
		WeightTemplate:   1.0,
		WeightLevel:      1.0,
		BurnIn:           500,
	}
}

// Validate checks the invariants §3 and §7 place on Config, returning a
// CONFIG_ERROR-kind *Error naming every violated field.
func (c Config) Validate() error {
	var bad []string
	if c.Decay <= 0 || c.Decay > 1 {
		bad = append(bad, fmt.Sprintf("decay must be in (0,1], got %v", c.Decay))
	}
	if c.LaplaceK < 0 {
		bad = append(bad, fmt.Sprintf("laplace_k must be >= 0, got %v", c.LaplaceK))
	}
	if c.MaxTokens <= 0 {
		bad = append(bad, fmt.Sprintf("max_tokens must be positive, got %d", c.MaxTokens))
	}
	if c.MaxTemplates <= 0 {
		bad = append(bad, fmt.Sprintf("max_templates must be positive, got %d", c.MaxTemplates))
	}
	if c.MaxLineLength <= 0 {
		bad = append(bad, fmt.Sprintf("max_line_length must be positive, got %d", c.MaxLineLength))
	}
	if c.MaxTokensPerLine <= 0 {
		bad = append(bad, fmt.Sprintf("max_tokens_per_line must be positive, got %d", c.MaxTokensPerLine))
	}
	if c.WeightToken < 0 || c.WeightTemplate < 0 || c.WeightLevel < 0 {
		bad = append(bad, "weights must be non-negative")
	}
	if c.BurnIn < 0 {
		bad = append(bad, fmt.Sprintf("burn_in must be non-negative, got %d", c.BurnIn))
	}
	if len(bad) == 0 {
		return nil
	}
	return &Error{Kind: ConfigError, Field: "config", Message: joinSemicolon(bad)}
}

func joinSemicolon(parts []string) string {
	s := ""
	for i, p := range parts {
		if i > 0 {
			s += "; "
		}
		s += p
	}
	return s
}
