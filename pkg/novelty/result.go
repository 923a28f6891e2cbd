package novelty

import (
	"github.com/crimson-sun/novelty/internal/engine/neighbor"
	"github.com/crimson-sun/novelty/internal/engine/scorer"
)

// Contributor is a single token's contribution to a Result, ordered by
// descending information content.
type Contributor struct {
	Token          string  `json:"token"`
	Bits           float64 `json:"bits"`
	Probability    float64 `json:"probability"`
	EffectiveCount float64 `json:"effective_count"`
}

// Result is the stable public score payload. This is the type returned by
// Score and ScoreAndObserve — internal representations may evolve
// independently without breaking consumers.
type Result struct {
	Novelty             float64       `json:"novelty"`
	RawScore            float64       `json:"raw_score"`
	TokenInfoBits       float64       `json:"token_info_bits"`
	TemplateInfoBits    float64       `json:"template_info_bits"`
	LevelBonus          float64       `json:"level_bonus"`
	Template            string        `json:"template"`
	TemplateProbability float64       `json:"template_probability"`
	Tokens              []string      `json:"tokens"`
	TokenContributors   []Contributor `json:"token_contributors"`
	Level               string        `json:"level"`
}

// Neighbor is a recalled recent line similar to the queried token set.
type Neighbor struct {
	Similarity float64 `json:"similarity"`
	Line       string  `json:"line"`
}

func resultFromScore(r scorer.Result) Result {
	contributors := make([]Contributor, len(r.TokenContributors))
	for i, c := range r.TokenContributors {
		contributors[i] = Contributor{Token: c.Token, Bits: c.Bits, Probability: c.Probability, EffectiveCount: c.EffectiveCount}
	}
	return Result{
		Novelty:             r.Novelty,
		RawScore:            r.RawScore,
		TokenInfoBits:       r.TokenInfoBits,
		TemplateInfoBits:    r.TemplateInfoBits,
		LevelBonus:          r.LevelBonus,
		Template:            r.Template,
		TemplateProbability: r.TemplateProbability,
		Tokens:              r.Tokens,
		TokenContributors:   contributors,
		Level:               r.Level.String(),
	}
}

func neighborsFromInternal(ns []neighbor.Neighbor) []Neighbor {
	out := make([]Neighbor, len(ns))
	for i, n := range ns {
		out[i] = Neighbor{Similarity: n.Similarity, Line: n.Line}
	}
	return out
}
