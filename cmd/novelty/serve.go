package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/crimson-sun/novelty/internal/httpserver"
	"github.com/crimson-sun/novelty/pkg/novelty"
)

var allowedOrigins []string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the detector over HTTP and expose Prometheus metrics",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringSliceVar(&allowedOrigins, "cors-origin", []string{"*"}, "allowed CORS origins")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	opts := []novelty.Option{
		novelty.WithDecay(cfg.Engine.Decay),
		novelty.WithLaplaceK(cfg.Engine.LaplaceK),
		novelty.WithVocabularyCaps(cfg.Engine.MaxTokens, cfg.Engine.MaxTemplates),
		novelty.WithLineGuardrails(cfg.Engine.MaxLineLength, cfg.Engine.MaxTokensPerLine),
		novelty.WithBigrams(cfg.Engine.WithBigrams),
		novelty.WithWeights(cfg.Engine.WeightToken, cfg.Engine.WeightTemplate, cfg.Engine.WeightLevel),
		novelty.WithBurnIn(cfg.Engine.BurnIn),
		novelty.WithLogger(logger),
	}
	d, err := novelty.New(opts...)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	for _, q := range cfg.Quantiles {
		if err := d.RegisterQuantile(q); err != nil {
			return fmt.Errorf("serve: registering quantile %v: %w", q, err)
		}
	}
	if cfg.SnapshotPath != "" {
		if err := d.SnapshotLoad(cfg.SnapshotPath); err != nil {
			logger.Warn("serve: no snapshot loaded", "path", cfg.SnapshotPath, "error", err)
		}
	}

	server := httpserver.New(d, logger)

	ctx, cancel := withSignalContext()
	defer cancel()

	metricsErr := make(chan error, 1)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			<-ctx.Done()
			srv.Close()
		}()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			metricsErr <- err
			return
		}
		metricsErr <- nil
	}()

	logger.Info("serve: listening", "http_addr", cfg.HTTPAddr, "metrics_addr", cfg.MetricsAddr)
	if err := server.ListenAndServe(ctx, cfg.HTTPAddr, allowedOrigins); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	if cfg.SnapshotPath != "" {
		if err := d.SnapshotSave(cfg.SnapshotPath); err != nil {
			logger.Error("serve: snapshot save on shutdown failed", "error", err)
		}
	}
	return <-metricsErr
}
