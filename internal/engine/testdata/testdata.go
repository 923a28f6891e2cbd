// Package testdata embeds a fixed corpus of representative log lines used
// to exercise canonicalization and scoring across packages without each
// test hand-rolling its own fixtures.
package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed corpus.json
var corpusJSON []byte

// CorpusEntry is one labeled log line.
type CorpusEntry struct {
	Raw              string `json:"raw"`
	ExpectedTemplate string `json:"expected_template"`
	ExpectedLevel    string `json:"expected_level"`
	Description      string `json:"description"`
}

// LoadCorpus parses the embedded corpus.json and returns all entries.
func LoadCorpus() ([]CorpusEntry, error) {
	var entries []CorpusEntry
	if err := json.Unmarshal(corpusJSON, &entries); err != nil {
		return nil, fmt.Errorf("parse corpus.json: %w", err)
	}
	return entries, nil
}
