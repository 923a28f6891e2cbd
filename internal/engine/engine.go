// Package engine wires the canonicalizer, tokenizer, info model, scorer,
// quantile estimators, and neighbor buffer into the single-threaded
// novelty-scoring pipeline described in spec §2.
package engine

import (
	"log/slog"
	"unicode/utf8"

	"github.com/crimson-sun/novelty/internal/engine/canon"
	"github.com/crimson-sun/novelty/internal/engine/infomodel"
	"github.com/crimson-sun/novelty/internal/engine/neighbor"
	"github.com/crimson-sun/novelty/internal/engine/quantile"
	"github.com/crimson-sun/novelty/internal/engine/scorer"
	"github.com/crimson-sun/novelty/internal/engine/snapshot"
	"github.com/crimson-sun/novelty/internal/engine/tokenize"
	"github.com/crimson-sun/novelty/internal/model"
)

type engineOptions struct {
	quantileMode     quantile.Mode
	rollingWindow    int
	neighborCapacity int
	neighborK        int
	logger           *slog.Logger
}

func defaultEngineOptions() engineOptions {
	return engineOptions{
		quantileMode:     quantile.ModeP2,
		rollingWindow:    2048,
		neighborCapacity: 2048,
		neighborK:        3,
		logger:           slog.Default(),
	}
}

// Option configures an Engine at construction.
type Option func(*engineOptions)

// WithRollingQuantile switches every quantile estimator registered after
// construction to the bounded rolling-window alternative instead of P².
func WithRollingQuantile(window int) Option {
	return func(o *engineOptions) {
		o.quantileMode = quantile.ModeRolling
		o.rollingWindow = window
	}
}

// WithNeighborBuffer sets the neighbor ring's capacity and the default
// top-k returned by Neighbors.
func WithNeighborBuffer(capacity, k int) Option {
	return func(o *engineOptions) {
		o.neighborCapacity = capacity
		o.neighborK = k
	}
}

// WithLogger overrides the engine's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = l
	}
}

// Engine is the single-threaded novelty-scoring pipeline. It holds no
// internal lock; a caller exposing it to multiple producers must
// serialize writes itself, per spec §5.
type Engine struct {
	cfg model.Config

	canon *canon.Canonicalizer
	tok   *tokenize.Tokenizer
	info  *infomodel.InfoModel
	quant *quantile.Manager
	nbuf  *neighbor.Buffer

	weights   scorer.Weights
	neighborK int
	log       *slog.Logger

	seenLines       int64
	truncatedLines  int64
	truncatedTokens int64
}

// New builds an Engine from an immutable Config, validating it first.
func New(cfg model.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultEngineOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Engine{
		cfg:   cfg,
		canon: canon.New(cfg.MaxLineLength),
		tok:   tokenize.New(cfg.WithBigrams, cfg.MaxTokensPerLine),
		info:  infomodel.New(cfg.Decay, cfg.LaplaceK, cfg.MaxTokens, cfg.MaxTemplates),
		quant: quantile.NewManager(o.quantileMode, o.rollingWindow),
		nbuf:  neighbor.New(o.neighborCapacity),
		weights: scorer.Weights{
			Token:    cfg.WeightToken,
			Template: cfg.WeightTemplate,
			Level:    cfg.WeightLevel,
		},
		neighborK: o.neighborK,
		log:       o.logger,
	}, nil
}

// buildLine canonicalizes and tokenizes raw into a transient Line. It is
// pure: no model state changes.
func (e *Engine) buildLine(raw string) (model.Line, error) {
	if !utf8.ValidString(raw) {
		return model.Line{}, &model.Error{Kind: model.InvalidInput, Field: "line", Message: "line is not valid UTF-8"}
	}

	canonical, lineTruncated := e.canon.Canonicalize(raw)
	tr := e.tok.Tokenize(canonical)

	return model.Line{
		Raw:             raw,
		Canonical:       canonical,
		Tokens:          tr.Tokens,
		Level:           tr.Level,
		LineTruncated:   lineTruncated,
		TokensTruncated: tr.Truncated,
	}, nil
}

// Observe updates the model with raw without scoring it.
func (e *Engine) Observe(raw string) error {
	line, err := e.buildLine(raw)
	if err != nil {
		return err
	}
	e.observe(line)
	return nil
}

// observe applies the decay-then-increment update for line and advances
// the guardrail counters. Order is significant for snapshot-compatible
// reproduction: decay happens before any count is incremented, per
// spec §9.
func (e *Engine) observe(line model.Line) {
	e.info.Tick()
	e.info.ObserveTemplate(line.Canonical)
	e.info.ObserveTokens(line.Tokens)
	e.nbuf.Add(line.Raw, line.Tokens)

	e.seenLines++
	if line.LineTruncated {
		e.truncatedLines++
	}
	if line.TokensTruncated {
		e.truncatedTokens++
	}
}

// Score computes the novelty payload for raw against the current model
// state without mutating it.
func (e *Engine) Score(raw string) (scorer.Result, error) {
	line, err := e.buildLine(raw)
	if err != nil {
		return scorer.Result{}, err
	}
	return scorer.Score(e.info, line, e.weights), nil
}

// ScoreAndObserve scores raw against the current state, then applies the
// observation, in that order, per spec §6.1.
func (e *Engine) ScoreAndObserve(raw string) (scorer.Result, error) {
	line, err := e.buildLine(raw)
	if err != nil {
		return scorer.Result{}, err
	}
	result := scorer.Score(e.info, line, e.weights)
	e.observe(line)
	e.quant.Observe(result.Novelty)
	return result, nil
}

// RegisterQuantile adds a quantile to track, q in (0,1).
func (e *Engine) RegisterQuantile(q float64) error {
	return e.quant.Register(q)
}

// Quantile returns the current estimate for a previously registered
// quantile.
func (e *Engine) Quantile(q float64) (float64, error) {
	return e.quant.Quantile(q)
}

// Threshold returns the alert threshold: the estimate for the highest
// registered quantile, and that quantile itself.
func (e *Engine) Threshold() (value, quantile float64, ok bool) {
	return e.quant.Threshold()
}

// QuantileEstimates returns every registered quantile's current estimate.
func (e *Engine) QuantileEstimates() map[float64]float64 {
	return e.quant.Estimates()
}

// AlertEligible reports whether the burn-in period has elapsed: at least
// burn_in lines observed and at least 10 samples fed to the quantile
// estimators, per spec §4.5.
func (e *Engine) AlertEligible() bool {
	return e.seenLines >= int64(e.cfg.BurnIn) && e.quant.SamplesFed() >= 10
}

// Neighbors returns up to k cosine-similar recent lines for tokens. k <=
// 0 uses the engine's configured default.
func (e *Engine) Neighbors(tokens []string, k int) []neighbor.Neighbor {
	if k <= 0 {
		k = e.neighborK
	}
	return e.nbuf.Query(tokens, k)
}

// SeenLines returns the number of lines observed so far.
func (e *Engine) SeenLines() int64 { return e.seenLines }

// TruncatedLines returns how many observed lines exceeded max_line_length.
func (e *Engine) TruncatedLines() int64 { return e.truncatedLines }

// TruncatedTokens returns how many observed lines exceeded
// max_tokens_per_line.
func (e *Engine) TruncatedTokens() int64 { return e.truncatedTokens }

// Renormalizations returns how many times the decay scale has underflowed
// and been folded back into stored counts.
func (e *Engine) Renormalizations() int { return e.info.Renormalizations() }

// Config returns the engine's immutable configuration.
func (e *Engine) Config() model.Config { return e.cfg }

// SnapshotSave serializes the current model state to path.
func (e *Engine) SnapshotSave(path string) error {
	state := e.info.Export()
	doc := snapshot.Document{
		Config: snapshot.ConfigDoc{
			Decay:            e.cfg.Decay,
			LaplaceK:         e.cfg.LaplaceK,
			MaxTokens:        e.cfg.MaxTokens,
			MaxTemplates:     e.cfg.MaxTemplates,
			MaxLineLength:    e.cfg.MaxLineLength,
			MaxTokensPerLine: e.cfg.MaxTokensPerLine,
			WithBigrams:      e.cfg.WithBigrams,
			WeightToken:      e.cfg.WeightToken,
			WeightTemplate:   e.cfg.WeightTemplate,
			WeightLevel:      e.cfg.WeightLevel,
			BurnIn:           e.cfg.BurnIn,
		},
		TokenCounts:       state.TokenCounts,
		TemplateCounts:    state.TemplateCounts,
		G:                 1.0,
		SeenLines:         e.seenLines,
		TotalTokenMass:    state.TotalTokenMass,
		TotalTemplateMass: state.TotalTemplateMass,
		TruncatedLines:    e.truncatedLines,
		TruncatedTokens:   e.truncatedTokens,
		Renormalizations:  state.Renormalizations,
		VocabOrder: snapshot.VocabOrder{
			Tokens:    state.TokenOrder,
			Templates: state.TemplateOrder,
		},
	}

	if err := snapshot.Save(path, doc); err != nil {
		return err
	}
	e.log.Info("snapshot saved", "path", path, "seen_lines", e.seenLines)
	return nil
}

// SnapshotLoad replaces the engine's model state with the contents of
// path. The engine's own Config (decay, caps, weights) is left
// unchanged; only InfoModel counts and the guardrail counters are
// restored, matching spec §6.1's load semantics.
func (e *Engine) SnapshotLoad(path string) error {
	doc, err := snapshot.Load(path)
	if err != nil {
		return err
	}

	e.info.Restore(infomodel.State{
		TokenCounts:       doc.TokenCounts,
		TemplateCounts:    doc.TemplateCounts,
		TokenOrder:        doc.VocabOrder.Tokens,
		TemplateOrder:     doc.VocabOrder.Templates,
		TotalTokenMass:    doc.TotalTokenMass,
		TotalTemplateMass: doc.TotalTemplateMass,
		Renormalizations:  doc.Renormalizations,
	})
	e.seenLines = doc.SeenLines
	e.truncatedLines = doc.TruncatedLines
	e.truncatedTokens = doc.TruncatedTokens

	e.log.Info("snapshot loaded", "path", path, "version", doc.Version, "seen_lines", e.seenLines)
	return nil
}
