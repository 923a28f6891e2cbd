// Package alertout defines the alert record shape and the Output interface
// ambient sinks implement, plus a fan-out layer over them.
package alertout

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/novelty/internal/engine/scorer"
)

// Contributor mirrors a scorer.Contributor for JSON emission.
type Contributor struct {
	Token string  `json:"token"`
	Bits  float64 `json:"bits"`
	Prob  float64 `json:"prob"`
	Freq  float64 `json:"freq"`
}

// Neighbor mirrors a neighbor.Neighbor for JSON emission.
type Neighbor struct {
	Similarity float64 `json:"similarity"`
	Line       string  `json:"line"`
}

// AlertRecord is the record a tail/HTTP collaborator emits for a line whose
// novelty crossed the active threshold (or, in -emit-all mode, every scored
// line). The core produces the score payload; the collaborator attaches the
// identifier, timestamp, and threshold context.
type AlertRecord struct {
	ID                  string            `json:"id"`
	Timestamp           time.Time         `json:"timestamp"`
	Level               string            `json:"level"`
	Novelty             float64           `json:"novelty"`
	Score               float64           `json:"score"`
	TokenInfoBits       float64           `json:"token_info_bits"`
	TemplateInfoBits    float64           `json:"template_info_bits"`
	LevelBonus          float64           `json:"level_bonus"`
	Template            string            `json:"template"`
	TemplateProbability float64           `json:"template_probability"`
	Tokens              []string          `json:"tokens"`
	TokenContributors   []Contributor     `json:"token_contributors"`
	Line                string            `json:"line"`
	Threshold           float64           `json:"threshold"`
	Quantile            float64           `json:"quantile"`
	QuantileEstimates   map[float64]float64 `json:"quantile_estimates,omitempty"`
	Neighbors           []Neighbor        `json:"neighbors,omitempty"`
}

// New builds an AlertRecord from a scorer.Result, the raw line, the active
// threshold/quantile pair, and any recalled neighbors. It is the
// collaborator-side counterpart to the core's pure score payload: the core
// never constructs an AlertRecord itself.
func New(result scorer.Result, raw string, threshold, quantile float64, estimates map[float64]float64, neighbors []Neighbor, now time.Time) AlertRecord {
	contributors := make([]Contributor, len(result.TokenContributors))
	for i, c := range result.TokenContributors {
		contributors[i] = Contributor{Token: c.Token, Bits: c.Bits, Prob: c.Probability, Freq: c.EffectiveCount}
	}
	return AlertRecord{
		ID:                  uuid.NewString(),
		Timestamp:           now.UTC(),
		Level:               result.Level.String(),
		Novelty:             result.Novelty,
		Score:               result.RawScore,
		TokenInfoBits:       result.TokenInfoBits,
		TemplateInfoBits:    result.TemplateInfoBits,
		LevelBonus:          result.LevelBonus,
		Template:            result.Template,
		TemplateProbability: result.TemplateProbability,
		Tokens:              result.Tokens,
		TokenContributors:   contributors,
		Line:                raw,
		Threshold:           threshold,
		Quantile:            quantile,
		QuantileEstimates:   estimates,
		Neighbors:           neighbors,
	}
}

// DedupKey groups alerts for the deduplication window: same template, same
// level. Two alerts for the same recurring template within the window
// collapse into one emission; the Deduplicator keeps a running count of
// the suppressed repeats.
func (a AlertRecord) DedupKey() string {
	return a.Level + "\x00" + a.Template
}

// Output defines the interface for alert record destinations.
type Output interface {
	Write(ctx context.Context, record AlertRecord) error
	Close() error
}
