// Package metrics exposes the engine's internal counters and the
// ambient layer's own activity as Prometheus metrics (scrapeable at
// /metrics; dashboards and alerts can rely on these names).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "novelty"

var (
	// SeenLinesTotal mirrors engine.SeenLines.
	SeenLinesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seen_lines_total",
			Help:      "Total number of lines observed by the model.",
		},
	)

	// TruncatedLinesTotal mirrors engine.TruncatedLines.
	TruncatedLinesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "truncated_lines_total",
			Help:      "Total number of lines truncated for exceeding the rune guardrail.",
		},
	)

	// TruncatedTokensTotal mirrors engine.TruncatedTokens.
	TruncatedTokensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "truncated_tokens_total",
			Help:      "Total number of lines truncated for exceeding the per-line token guardrail.",
		},
	)

	// RenormalizationsTotal mirrors engine.Renormalizations.
	RenormalizationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renormalizations_total",
			Help:      "Total number of times the decay scale underflowed and was folded back into stored counts.",
		},
	)

	// VocabularySize reports the current token and template vocabulary
	// sizes, labeled by kind.
	VocabularySize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vocabulary_size",
			Help:      "Current vocabulary size by kind (token, template).",
		},
		[]string{"kind"},
	)

	// NoveltyScore is a histogram of novelty values produced by the HTTP
	// score-and-observe route, for tracking score-distribution drift over time.
	NoveltyScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "novelty_score",
			Help:      "Distribution of novelty scores in [0,1].",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// AlertsEmittedTotal counts alerts that passed threshold and survived
	// deduplication, labeled by severity level.
	AlertsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_emitted_total",
			Help:      "Total number of alerts emitted to sinks, by level.",
		},
		[]string{"level"},
	)

	// AlertsSuppressedTotal counts alerts folded into an open dedup group
	// instead of being emitted.
	AlertsSuppressedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_suppressed_total",
			Help:      "Total number of alerts suppressed by deduplication.",
		},
	)

	// SinkErrorsTotal counts alert Output.Write failures, labeled by sink;
	// cmd/novelty writes through one fan-out output and records every
	// failure under the label "configured".
	SinkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Total number of alert sink write errors, by sink label.",
		},
		[]string{"sink"},
	)

	// HTTPRequestsTotal counts HTTP API requests, labeled by route, method,
	// and response status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route, method, and status.",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPRequestDurationSeconds is the HTTP API's request latency
	// histogram.
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds, by route and method.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
		},
		[]string{"route", "method"},
	)
)

// Snapshot captures the engine counters a tail/serve loop polls
// periodically to refresh the gauges above.
type Snapshot struct {
	SeenLines         int64
	TruncatedLines    int64
	TruncatedTokens   int64
	Renormalizations  int
	TokenVocabSize    int
	TemplateVocabSize int
}

// Observe updates the counter-backed metrics from s. Counters only move
// forward, so callers must pass cumulative totals, not deltas; this
// function tracks the last-seen values internally via a package-level
// recorder to emit correct Add() deltas.
func Observe(s Snapshot) {
	recorder.observe(s)
}

var recorder = newDeltaRecorder()

type deltaRecorder struct {
	lastSeenLines        int64
	lastTruncatedLines   int64
	lastTruncatedTokens  int64
	lastRenormalizations int
}

func newDeltaRecorder() *deltaRecorder {
	return &deltaRecorder{}
}

func (r *deltaRecorder) observe(s Snapshot) {
	if d := s.SeenLines - r.lastSeenLines; d > 0 {
		SeenLinesTotal.Add(float64(d))
	}
	if d := s.TruncatedLines - r.lastTruncatedLines; d > 0 {
		TruncatedLinesTotal.Add(float64(d))
	}
	if d := s.TruncatedTokens - r.lastTruncatedTokens; d > 0 {
		TruncatedTokensTotal.Add(float64(d))
	}
	if d := s.Renormalizations - r.lastRenormalizations; d > 0 {
		RenormalizationsTotal.Add(float64(d))
	}
	r.lastSeenLines = s.SeenLines
	r.lastTruncatedLines = s.TruncatedLines
	r.lastTruncatedTokens = s.TruncatedTokens
	r.lastRenormalizations = s.Renormalizations

	VocabularySize.WithLabelValues("token").Set(float64(s.TokenVocabSize))
	VocabularySize.WithLabelValues("template").Set(float64(s.TemplateVocabSize))
}
