// Package tokenize splits a canonicalized line into lowercased word tokens
// and extracts its severity level, per spec §4.2.
package tokenize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/crimson-sun/novelty/internal/model"
)

// bigramDelim joins adjacent tokens into a bigram. Chosen to be a rune that
// cannot itself occur inside a token (tokens are alphanumeric-only), so it
// never collides with a real word. Must stay fixed for a snapshot's
// lifetime per spec §9.
const bigramDelim = "│"

// Tokenizer converts canonical text into the ordered token sequence the
// InfoModel and Scorer consume.
type Tokenizer struct {
	withBigrams      bool
	maxTokensPerLine int
}

// New creates a Tokenizer. maxTokensPerLine caps the unigram+bigram count
// emitted per line; withBigrams additionally emits adjacent-pair bigrams.
func New(withBigrams bool, maxTokensPerLine int) *Tokenizer {
	return &Tokenizer{withBigrams: withBigrams, maxTokensPerLine: maxTokensPerLine}
}

// Result holds a tokenized line's output.
type Result struct {
	Tokens    []string
	Level     model.Level
	Truncated bool
}

// Tokenize splits canonical text on non-alphanumeric boundaries, lowercases
// and accent-strips each piece, optionally appends bigrams, enforces the
// per-line token cap, and extracts the severity level from the first six
// tokens.
func (t *Tokenizer) Tokenize(canonical string) Result {
	unigrams := splitWords(canonical)

	tokens := unigrams
	if t.withBigrams && len(unigrams) > 1 {
		tokens = make([]string, 0, len(unigrams)+len(unigrams)-1)
		tokens = append(tokens, unigrams...)
		for i := 0; i+1 < len(unigrams); i++ {
			tokens = append(tokens, unigrams[i]+bigramDelim+unigrams[i+1])
		}
	}

	var truncated bool
	if len(tokens) > t.maxTokensPerLine {
		tokens = tokens[:t.maxTokensPerLine]
		truncated = true
	}

	level := extractLevel(unigrams)

	return Result{Tokens: tokens, Level: level, Truncated: truncated}
}

// splitWords splits on non-alphanumeric boundaries, lowercases, strips
// accents, and drops empty pieces.
func splitWords(s string) []string {
	var words []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			words = append(words, b.String())
			b.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	for i, w := range words {
		words[i] = stripAccents(strings.ToLower(w))
	}
	return words
}

// stripAccents removes combining diacritical marks after NFD normalization,
// so "café" and "cafe" tokenize identically.
func stripAccents(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.In(r, unicode.Mn) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// extractLevel scans the first six tokens for a case-insensitive substring
// match against the recognized severity markers; the first match wins.
func extractLevel(tokens []string) model.Level {
	limit := len(tokens)
	if limit > 6 {
		limit = 6
	}
	for _, tok := range tokens[:limit] {
		if lvl := model.LevelFromToken(tok); lvl != model.Unknown {
			return lvl
		}
	}
	return model.Unknown
}
