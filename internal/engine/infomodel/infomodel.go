// Package infomodel tracks decayed token and template frequencies and
// answers Laplace-smoothed self-information queries against them, per
// spec §4.3.
package infomodel

import "math"

// InfoModel is the engine's frequency memory: one decayed counter for the
// token vocabulary and one for the template vocabulary.
type InfoModel struct {
	laplaceK  float64
	tokens    *counter
	templates *counter
}

// New builds an InfoModel from the engine's config fields.
func New(decay, laplaceK float64, maxTokens, maxTemplates int) *InfoModel {
	return &InfoModel{
		laplaceK:  laplaceK,
		tokens:    newCounter(decay, maxTokens),
		templates: newCounter(decay, maxTemplates),
	}
}

// Tick applies one line's worth of lazy decay to both vocabularies. Must
// be called exactly once per line, before any Observe call for that line,
// per the decay-before-increment ordering in spec §9.
func (m *InfoModel) Tick() {
	m.tokens.tick()
	m.templates.tick()
}

// ObserveTokens increments each token's count by 1, protecting the full
// set from eviction while they're being inserted.
func (m *InfoModel) ObserveTokens(tokens []string) {
	protected := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		protected[t] = true
	}
	for _, t := range tokens {
		m.tokens.increment(t, 1, protected)
	}
}

// ObserveTemplate increments a template's count by 1.
func (m *InfoModel) ObserveTemplate(template string) {
	m.templates.increment(template, 1, map[string]bool{template: true})
}

// selfInfoBits computes -log2 of the Laplace-smoothed probability of key
// within the given counter.
func selfInfoBits(c *counter, laplaceK float64, key string) (bits, prob float64) {
	eff := c.effectiveCount(key)
	mass := c.totalMass()
	vocab := float64(c.vocabSize())
	p := (eff + laplaceK) / (mass + laplaceK*(vocab+1))
	if p <= 0 {
		return math.Inf(1), 0
	}
	return -math.Log2(p), p
}

// TokenBits returns the self-information, in bits, and the smoothed
// probability of a single token.
func (m *InfoModel) TokenBits(token string) (bits, prob float64) {
	return selfInfoBits(m.tokens, m.laplaceK, token)
}

// TemplateBits returns the self-information, in bits, and the smoothed
// probability of a template.
func (m *InfoModel) TemplateBits(template string) (bits, prob float64) {
	return selfInfoBits(m.templates, m.laplaceK, template)
}

// TokenEffectiveCount returns a token's current decayed count.
func (m *InfoModel) TokenEffectiveCount(token string) float64 {
	return m.tokens.effectiveCount(token)
}

// TokenVocabSize returns the number of distinct tokens currently tracked.
func (m *InfoModel) TokenVocabSize() int {
	return m.tokens.vocabSize()
}

// TemplateVocabSize returns the number of distinct templates currently
// tracked.
func (m *InfoModel) TemplateVocabSize() int {
	return m.templates.vocabSize()
}

// TotalTokenMass returns the current sum of effective token counts.
func (m *InfoModel) TotalTokenMass() float64 {
	return m.tokens.totalMass()
}

// TotalTemplateMass returns the current sum of effective template counts.
func (m *InfoModel) TotalTemplateMass() float64 {
	return m.templates.totalMass()
}

// Renormalizations returns how many times g has underflowed and been
// folded back into the stored counts. Both tables share the decay factor
// and tick together, so they renormalize on the same lines; the count is
// taken from the token table.
func (m *InfoModel) Renormalizations() int {
	return m.tokens.renorms
}

// State is the exported snapshot shape for an InfoModel.
type State struct {
	TokenCounts       map[string]float64 `json:"token_counts"`
	TemplateCounts    map[string]float64 `json:"template_counts"`
	TokenOrder        []string           `json:"token_order"`
	TemplateOrder     []string           `json:"template_order"`
	TotalTokenMass    float64            `json:"total_token_mass"`
	TotalTemplateMass float64            `json:"total_template_mass"`
	Renormalizations  int                `json:"renormalizations"`
}

// Export captures the current decayed counts, already g-folded, plus the
// LRU touch order, for snapshotting.
func (m *InfoModel) Export() State {
	return State{
		TokenCounts:       m.tokens.export(),
		TemplateCounts:    m.templates.export(),
		TokenOrder:        m.tokens.order(),
		TemplateOrder:     m.templates.order(),
		TotalTokenMass:    m.tokens.totalMass(),
		TotalTemplateMass: m.templates.totalMass(),
		Renormalizations:  m.tokens.renorms,
	}
}

// Restore replaces the model's contents with a previously exported state.
// Keys absent from order but present in counts (tolerated for older
// snapshot versions) are appended in map-iteration order, since no touch
// history survived for them.
func (m *InfoModel) Restore(s State) {
	m.tokens.restore(completeOrder(s.TokenOrder, s.TokenCounts), s.TokenCounts)
	m.templates.restore(completeOrder(s.TemplateOrder, s.TemplateCounts), s.TemplateCounts)
	m.tokens.renorms = s.Renormalizations
	m.templates.renorms = s.Renormalizations
}

func completeOrder(order []string, counts map[string]float64) []string {
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		seen[k] = true
	}
	out := append([]string{}, order...)
	for k := range counts {
		if !seen[k] {
			out = append(out, k)
		}
	}
	return out
}

// TopTokens returns up to n tokens ranked by effective count, descending,
// for diagnostic and CLI-inspection use.
func (m *InfoModel) TopTokens(n int) []string {
	return m.tokens.topByEffectiveCount(n)
}
