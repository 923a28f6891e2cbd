package model

// Line is the transient record a raw log line is reduced to before scoring.
// See spec §3 "Line record (transient)". LineTruncated and
// TokensTruncated track the two distinct guardrails separately: the
// first fires when the raw line exceeds max_line_length, the second
// when the tokenizer drops tokens past max_tokens_per_line.
type Line struct {
	Raw             string
	Canonical       string
	Tokens          []string
	Level           Level
	LineTruncated   bool
	TokensTruncated bool
}
