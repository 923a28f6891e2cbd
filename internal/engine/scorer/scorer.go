// Package scorer combines InfoModel self-information queries into a single
// bounded novelty score for a line, per spec §4.4. It never mutates model
// state.
package scorer

import (
	"math"
	"sort"

	"github.com/crimson-sun/novelty/internal/engine/infomodel"
	"github.com/crimson-sun/novelty/internal/model"
)

// Contributor is one token's contribution to a line's score, for
// explanation output.
type Contributor struct {
	Token          string
	Bits           float64
	Probability    float64
	EffectiveCount float64
}

// Result is the full scoring payload for a line.
type Result struct {
	Novelty             float64
	RawScore            float64
	TokenInfoBits       float64
	TemplateInfoBits    float64
	LevelBonus          float64
	Template            string
	TemplateProbability float64
	Tokens              []string
	TokenContributors   []Contributor
	Level               model.Level
}

// Weights holds the §4.4 linear-combination weights.
type Weights struct {
	Token    float64
	Template float64
	Level    float64
}

// Score computes the novelty payload for a tokenized, canonicalized line
// against the current state of im. It performs no writes.
func Score(im *infomodel.InfoModel, line model.Line, w Weights) Result {
	contributors := make([]Contributor, len(line.Tokens))
	var tokenBitsSum float64
	for i, tok := range line.Tokens {
		bits, prob := im.TokenBits(tok)
		contributors[i] = Contributor{
			Token:          tok,
			Bits:           bits,
			Probability:    prob,
			EffectiveCount: im.TokenEffectiveCount(tok),
		}
		tokenBitsSum += bits
	}
	sort.SliceStable(contributors, func(i, j int) bool {
		return contributors[i].Bits > contributors[j].Bits
	})

	var tokenInfoBits float64
	if len(line.Tokens) > 0 {
		tokenInfoBits = tokenBitsSum / float64(len(line.Tokens))
	}

	templateBits, templateProb := im.TemplateBits(line.Canonical)
	levelBonus := model.LevelBonus(line.Level)

	rawScore := w.Token*tokenInfoBits + w.Template*templateBits + w.Level*levelBonus

	tEff := float64(len(line.Tokens))
	if tEff < 1 {
		tEff = 1
	}
	novelty := 1 - math.Exp(-math.Max(0, rawScore)/tEff)

	return Result{
		Novelty:             novelty,
		RawScore:            rawScore,
		TokenInfoBits:       tokenInfoBits,
		TemplateInfoBits:    templateBits,
		LevelBonus:          levelBonus,
		Template:            line.Canonical,
		TemplateProbability: templateProb,
		Tokens:              line.Tokens,
		TokenContributors:   contributors,
		Level:               line.Level,
	}
}
