package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/novelty/internal/alertout"
)

var emitAll bool

var scoreCmd = &cobra.Command{
	Use:   "score <file>",
	Short: "Score a file's lines once, alerting through the configured sinks",
	Long: `score reads a file (or "-" for stdin) line by line, scoring and
observing each one in order, and writes an alert for every line whose
novelty crosses the configured quantile threshold. With --emit-all every
scored line is emitted regardless of threshold, useful for offline
tuning.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().BoolVar(&emitAll, "emit-all", false, "emit every scored line, not just threshold-crossing ones")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logging := slog.Default()

	e, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	verbosity := parseVerbosity(cfg.Verbosity)
	out, err := buildOutput(cfg.Sinks, verbosity)
	if err != nil {
		return err
	}
	defer out.Close()

	var dedup *alertout.Deduplicator
	if cfg.DedupWindow > 0 {
		dedup = alertout.NewDeduplicator(alertout.DedupConfig{Window: cfg.DedupWindow}, nil)
	}

	path := args[0]
	var in *os.File
	if path == "-" {
		in = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("score: opening %s: %w", path, err)
		}
		defer f.Close()
		in = f
	}

	ctx := cmd.Context()
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		result, err := e.ScoreAndObserve(line)
		if err != nil {
			logging.Warn("score: line rejected", "error", err)
			continue
		}

		if emitAll {
			emitAlert(ctx, out, dedup, e, result, line, logging)
			continue
		}
		if !e.AlertEligible() {
			continue
		}
		threshold, _, ok := e.Threshold()
		if ok && result.Novelty >= threshold {
			emitAlert(ctx, out, dedup, e, result, line, logging)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("score: reading input: %w", err)
	}

	if cfg.SnapshotPath != "" {
		if err := e.SnapshotSave(cfg.SnapshotPath); err != nil {
			return fmt.Errorf("score: saving snapshot: %w", err)
		}
	}
	return nil
}
