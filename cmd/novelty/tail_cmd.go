package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/novelty/internal/alertout"
	"github.com/crimson-sun/novelty/internal/engine/scorer"
	"github.com/crimson-sun/novelty/internal/tail"
)

var tailCmd = &cobra.Command{
	Use:   "tail <path...>",
	Short: "Follow one or more files (or stdin, with no arguments) and alert in real time",
	RunE:  runTail,
}

func init() {
	tailCmd.Flags().BoolVar(&emitAll, "emit-all", false, "emit every scored line, not just threshold-crossing ones")
}

func runTail(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

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

	ctx, cancel := withSignalContext()
	defer cancel()

	onAlert := func(result scorer.Result, raw string) {
		emitAlert(ctx, out, dedup, e, result, raw, logger)
	}

	tailOpts := []tail.Option{tail.WithLogger(logger)}
	if emitAll {
		tailOpts = append(tailOpts, tail.WithEmitAll())
	}
	t := tail.New(e, onAlert, tailOpts...)

	if len(args) == 0 {
		return t.TailStdin(ctx)
	}
	return t.TailFiles(ctx, args)
}
