// Package snapshot implements the versioned model-state serialization
// format described in spec §4.7 / §6.2, including backward-compatible
// loading of older versions and schema validation of the file shape.
package snapshot

// CurrentVersion is the version this implementation writes. Loaders
// accept this version and every older one.
const CurrentVersion = 3

// ConfigDoc mirrors model.Config's JSON shape within a snapshot.
type ConfigDoc struct {
	Decay            float64 `json:"decay"`
	LaplaceK         float64 `json:"laplace_k"`
	MaxTokens        int     `json:"max_tokens"`
	MaxTemplates     int     `json:"max_templates"`
	MaxLineLength    int     `json:"max_line_length"`
	MaxTokensPerLine int     `json:"max_tokens_per_line"`
	WithBigrams      bool    `json:"with_bigrams"`
	WeightToken      float64 `json:"w_token"`
	WeightTemplate   float64 `json:"w_template"`
	WeightLevel      float64 `json:"w_level"`
	BurnIn           int     `json:"burn_in"`
}

// VocabOrder is the LRU touch order for each vocabulary, oldest first.
type VocabOrder struct {
	Tokens    []string `json:"tokens"`
	Templates []string `json:"templates"`
}

// Document is the top-level JSON shape written to and read from a
// snapshot file.
type Document struct {
	Version             int                `json:"version"`
	Config              ConfigDoc          `json:"config"`
	TokenCounts         map[string]float64 `json:"token_counts"`
	TemplateCounts      map[string]float64 `json:"template_counts"`
	G                    float64            `json:"g"`
	SeenLines            int64              `json:"seen_lines"`
	TotalTokenMass       float64            `json:"total_token_mass"`
	TotalTemplateMass    float64            `json:"total_template_mass"`
	TruncatedLines       int64              `json:"truncated_lines"`
	TruncatedTokens      int64              `json:"truncated_tokens"`
	Renormalizations     int                `json:"renormalizations"`
	VocabOrder           VocabOrder         `json:"vocab_order"`
}

// applyDefaults fills in the fields that versions 1 and 2 never wrote, per
// spec §4.7 and §8 scenario 6: g defaults to 1.0, every counter defaults
// to 0, and counts are assumed already in effective form.
func (d *Document) applyDefaults() {
	if d.G == 0 {
		d.G = 1.0
	}
	if d.TokenCounts == nil {
		d.TokenCounts = map[string]float64{}
	}
	if d.TemplateCounts == nil {
		d.TemplateCounts = map[string]float64{}
	}
}
