package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/novelty/internal/engine/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect snapshot files",
}

var snapshotInspectCmd = &cobra.Command{
	Use:   "inspect <path>",
	Short: "Print a snapshot's version and summary counters as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotInspect,
}

func init() {
	snapshotCmd.AddCommand(snapshotInspectCmd)
}

type snapshotSummary struct {
	Version           int     `json:"version"`
	SeenLines         int64   `json:"seen_lines"`
	TokenVocabSize    int     `json:"token_vocab_size"`
	TemplateVocabSize int     `json:"template_vocab_size"`
	DecayScale        float64 `json:"decay_scale"`
	TruncatedLines    int64   `json:"truncated_lines"`
	TruncatedTokens   int64   `json:"truncated_tokens"`
	Renormalizations  int     `json:"renormalizations"`
}

func runSnapshotInspect(cmd *cobra.Command, args []string) error {
	doc, err := snapshot.Load(args[0])
	if err != nil {
		return fmt.Errorf("snapshot inspect: %w", err)
	}

	summary := snapshotSummary{
		Version:           doc.Version,
		SeenLines:         doc.SeenLines,
		TokenVocabSize:    len(doc.TokenCounts),
		TemplateVocabSize: len(doc.TemplateCounts),
		DecayScale:        doc.G,
		TruncatedLines:    doc.TruncatedLines,
		TruncatedTokens:   doc.TruncatedTokens,
		Renormalizations:  doc.Renormalizations,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
