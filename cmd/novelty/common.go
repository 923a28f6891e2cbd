package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crimson-sun/novelty/internal/alertout"
	"github.com/crimson-sun/novelty/internal/config"
	"github.com/crimson-sun/novelty/internal/engine"
	"github.com/crimson-sun/novelty/internal/engine/scorer"
	"github.com/crimson-sun/novelty/internal/metrics"
)

// buildEngine constructs an *engine.Engine and registers every configured
// quantile, with the highest becoming the alert threshold.
func buildEngine(cfg config.Config) (*engine.Engine, error) {
	e, err := engine.New(cfg.Engine.ToModel())
	if err != nil {
		return nil, err
	}
	for _, q := range cfg.Quantiles {
		if err := e.RegisterQuantile(q); err != nil {
			return nil, fmt.Errorf("registering quantile %v: %w", q, err)
		}
	}
	return e, nil
}

// emitAlert builds an AlertRecord from a scored line and writes it to
// out, logging (not failing the caller) on sink error.
func emitAlert(ctx context.Context, out alertout.Output, dedup *alertout.Deduplicator, e *engine.Engine, result scorer.Result, raw string, log *slog.Logger) {
	threshold, quantile, _ := e.Threshold()
	neighbors := neighborsFor(e, result)
	record := alertout.New(result, raw, threshold, quantile, e.QuantileEstimates(), neighbors, time.Now())

	if dedup != nil {
		admitted, ok := dedup.Admit(record)
		if !ok {
			metrics.AlertsSuppressedTotal.Inc()
			return
		}
		record = admitted
	}

	metrics.AlertsEmittedTotal.WithLabelValues(record.Level).Inc()
	if err := out.Write(ctx, record); err != nil {
		metrics.SinkErrorsTotal.WithLabelValues("configured").Inc()
		log.Error("alert sink write failed", "error", err)
	}
}

func neighborsFor(e *engine.Engine, result scorer.Result) []alertout.Neighbor {
	raw := e.Neighbors(result.Tokens, 0)
	out := make([]alertout.Neighbor, len(raw))
	for i, n := range raw {
		out[i] = alertout.Neighbor{Similarity: n.Similarity, Line: n.Line}
	}
	return out
}

// withSignalContext returns a context canceled on SIGINT/SIGTERM.
func withSignalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}
