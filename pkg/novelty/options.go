package novelty

import (
	"log/slog"

	"github.com/crimson-sun/novelty/internal/engine"
	"github.com/crimson-sun/novelty/internal/model"
)

type options struct {
	cfg        model.Config
	engineOpts []engine.Option
}

// Option configures a Detector at construction.
type Option func(*options)

// WithDecay sets the per-line decay factor. Default: 0.9999.
func WithDecay(decay float64) Option {
	return func(o *options) { o.cfg.Decay = decay }
}

// WithLaplaceK sets the Laplace smoothing constant. Default: 1.0.
func WithLaplaceK(k float64) Option {
	return func(o *options) { o.cfg.LaplaceK = k }
}

// WithVocabularyCaps sets the token and template vocabulary caps.
// Defaults: 30000 tokens, 10000 templates.
func WithVocabularyCaps(maxTokens, maxTemplates int) Option {
	return func(o *options) {
		o.cfg.MaxTokens = maxTokens
		o.cfg.MaxTemplates = maxTemplates
	}
}

// WithLineGuardrails sets the per-line rune cap and per-line token cap.
// Defaults: 2000 runes, 400 tokens.
func WithLineGuardrails(maxLineLength, maxTokensPerLine int) Option {
	return func(o *options) {
		o.cfg.MaxLineLength = maxLineLength
		o.cfg.MaxTokensPerLine = maxTokensPerLine
	}
}

// WithBigrams enables adjacent-pair bigram tokens in addition to unigrams.
func WithBigrams(enabled bool) Option {
	return func(o *options) { o.cfg.WithBigrams = enabled }
}

// WithWeights sets the scorer's token, template, and severity weights.
// Defaults are all 1.0.
func WithWeights(token, template, level float64) Option {
	return func(o *options) {
		o.cfg.WeightToken = token
		o.cfg.WeightTemplate = template
		o.cfg.WeightLevel = level
	}
}

// WithBurnIn sets how many lines must be observed before AlertEligible can
// return true. Default: 500.
func WithBurnIn(n int) Option {
	return func(o *options) { o.cfg.BurnIn = n }
}

// WithRollingQuantile switches quantile estimation from the default P²
// estimator to a bounded rolling window of the given size.
func WithRollingQuantile(window int) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, engine.WithRollingQuantile(window))
	}
}

// WithNeighborBuffer sets the neighbor ring's capacity and the default
// top-k returned by Neighbors. Defaults: 2048 capacity, k=3.
func WithNeighborBuffer(capacity, k int) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, engine.WithNeighborBuffer(capacity, k))
	}
}

// WithLogger overrides the Detector's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, engine.WithLogger(l))
	}
}

func defaultOptions() options {
	return options{cfg: model.DefaultConfig()}
}
