// Package canon masks the volatile substrings of a log line — timestamps,
// addresses, identifiers, literals — into typed sentinels, producing a
// structural template that groups lines which differ only in their
// variable parts.
package canon

import (
	"regexp"
	"strings"
)

// pattern pairs a compiled regexp with the sentinel it substitutes in.
// Order matters: later patterns must not re-match text an earlier pattern
// already replaced with a sentinel.
type pattern struct {
	re          *regexp.Regexp
	replacement string
}

// Canonicalizer applies the ordered §4.1 substitution list to produce a
// masked template from a raw line. Its regexes are compiled once at
// construction and owned by the instance — no package-level regex cache.
type Canonicalizer struct {
	patterns      []pattern
	maxLineLength int
}

// New builds a Canonicalizer that truncates input to maxLineLength runes
// before masking.
func New(maxLineLength int) *Canonicalizer {
	return &Canonicalizer{
		patterns:      buildPatterns(),
		maxLineLength: maxLineLength,
	}
}

func buildPatterns() []pattern {
	return []pattern{
		// 1. timestamps: ISO-8601 and common log formats (date + time, optional tz)
		{regexp.MustCompile(
			`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:?\d{2})?`),
			"<ts>"},
		// 2. IPv6 (before IPv4 so mixed-notation addresses aren't half-masked)
		{regexp.MustCompile(`\b(?:[0-9A-Fa-f]{1,4}:){2,7}[0-9A-Fa-f]{0,4}\b`), "<ip>"},
		// 2. IPv4
		{regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`), "<ip>"},
		// 3. UUID (RFC 4122)
		{regexp.MustCompile(
			`\b[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}\b`),
			"<uuid>"},
		// 4. hex runs of length >= 8, requiring an explicit 0x/x prefix so
		// a bare decimal run (order id, millisecond timestamp, phone
		// number) still falls through to the <num> sentinel below.
		{regexp.MustCompile(`\b0[xX][0-9A-Fa-f]{8,}\b`), "<hex>"},
		// 5. email
		{regexp.MustCompile(`\b[\w.+-]+@[\w-]+\.[\w.-]+\b`), "<email>"},
		// 6. URL
		{regexp.MustCompile(`[A-Za-z][A-Za-z0-9+.-]*://[^\s"'<>]+`), "<url>"},
		// 7. paths (POSIX and Windows)
		{regexp.MustCompile(`(?:[A-Za-z]:\\(?:[^\s\\]+\\)*[^\s\\]*)|(?:/[\w.\-]+){2,}`), "<path>"},
		// 8. quoted strings
		{regexp.MustCompile(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`), "<str>"},
		// 9. signed decimal/float numbers
		{regexp.MustCompile(`[-+]?\d+(\.\d+)?\b`), "<num>"},
	}
}

// Canonicalize truncates and masks a raw line, returning the template and
// whether truncation occurred.
func (c *Canonicalizer) Canonicalize(raw string) (template string, truncated bool) {
	s := raw
	if len([]rune(s)) > c.maxLineLength {
		r := []rune(s)
		s = string(r[:c.maxLineLength])
		truncated = true
	}
	s = strings.TrimSpace(s)
	for _, p := range c.patterns {
		s = p.re.ReplaceAllString(s, p.replacement)
	}
	return s, truncated
}
