// Package httpserver exposes the detector over HTTP: JSON request/response
// shapes mirror the engine API's Go types verbatim, and errors are
// reported as a {"error": {"kind": ..., "message": ...}} envelope whose
// kind is one of the core's four error kinds.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/crimson-sun/novelty/internal/metrics"
	"github.com/crimson-sun/novelty/internal/model"
	"github.com/crimson-sun/novelty/pkg/novelty"
)

// Server wraps a *novelty.Detector with HTTP routing. The detector is
// not safe for unsynchronized concurrent use, so every request that can
// mutate state takes mu; read-only requests (Score, Quantile lookups)
// take it for reading.
type Server struct {
	mu     sync.RWMutex
	d      *novelty.Detector
	log    *slog.Logger
	router *mux.Router
}

// New builds a Server around an existing detector and wires its routes.
func New(d *novelty.Detector, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{d: d, log: log, router: mux.NewRouter()}
	s.routes()
	return s
}

// Handler returns the CORS-wrapped http.Handler to pass to http.Server.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	})
	return c.Handler(s.withMetrics(s.router))
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/score", s.handleScore).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/observe", s.handleObserve).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/score-and-observe", s.handleScoreAndObserve).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/quantile", s.handleRegisterQuantile).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/quantile/{q}", s.handleGetQuantile).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/neighbors", s.handleNeighbors).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/snapshot/save", s.handleSnapshotSave).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/snapshot/load", s.handleSnapshotLoad).Methods(http.MethodPost)
}

func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// The router runs inside this wrapper, so mux.CurrentRoute(r) is
		// nil here; match the request against the router to get the template.
		route := r.URL.Path
		var match mux.RouteMatch
		if s.router.Match(r, &match) && match.Route != nil {
			if m, err := match.Route.GetPathTemplate(); err == nil {
				route = m
			}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type lineRequest struct {
	Line string `json:"line"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.mu.RLock()
	result, err := s.d.Score(req.Line)
	s.mu.RUnlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleObserve(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	err := s.d.Observe(req.Line)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "observed"})
}

func (s *Server) handleScoreAndObserve(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	result, err := s.d.ScoreAndObserve(req.Line)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	metrics.NoveltyScore.Observe(result.Novelty)
	writeJSON(w, http.StatusOK, result)
}

type quantileRequest struct {
	Quantile float64 `json:"quantile"`
}

func (s *Server) handleRegisterQuantile(w http.ResponseWriter, r *http.Request) {
	var req quantileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	err := s.d.RegisterQuantile(req.Quantile)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

func (s *Server) handleGetQuantile(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["q"]
	q, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.writeError(w, &model.Error{Kind: model.InvalidInput, Field: "q", Message: "quantile must be a float"})
		return
	}
	s.mu.RLock()
	value, err := s.d.Quantile(q)
	s.mu.RUnlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"quantile": q, "value": value})
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	line := r.URL.Query().Get("line")
	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			k = parsed
		}
	}
	s.mu.RLock()
	result, err := s.d.Score(line)
	if err != nil {
		s.mu.RUnlock()
		s.writeError(w, err)
		return
	}
	neighbors := s.d.Neighbors(result.Tokens, k)
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, neighbors)
}

type snapshotPathRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleSnapshotSave(w http.ResponseWriter, r *http.Request) {
	var req snapshotPathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	err := s.d.SnapshotSave(req.Path)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleSnapshotLoad(w http.ResponseWriter, r *http.Request) {
	var req snapshotPathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	err := s.d.SnapshotLoad(req.Path)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope(model.InvalidInput, "malformed JSON body: "+err.Error()))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a *model.Error's Kind onto an HTTP status per the
// CLI/HTTP error mapping (CONFIG_ERROR -> 400, SNAPSHOT_* -> 500,
// INVALID_INPUT -> 422); any other error is an unexpected 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var merr *model.Error
	if errors.As(err, &merr) {
		writeJSON(w, statusForKind(merr.Kind), errorEnvelope(merr.Kind, merr.Error()))
		return
	}
	s.log.Error("unhandled error", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorEnvelope("INTERNAL", err.Error()))
}

func statusForKind(k model.Kind) int {
	switch k {
	case model.ConfigError:
		return http.StatusBadRequest
	case model.SnapshotFormat, model.SnapshotIncompatible:
		return http.StatusInternalServerError
	case model.InvalidInput:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func errorEnvelope(kind model.Kind, message string) map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]string{
			"kind":    string(kind),
			"message": message,
		},
	}
}

// ListenAndServe starts the HTTP server on addr and blocks until ctx is
// canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, allowedOrigins []string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(allowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
