// Package server exposes the interview orchestrator over HTTP: a WebSocket
// endpoint carrying the turn loop, JSON control endpoints for evaluation and
// session reset, health probes, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/vivavoce/vivavoce/internal/config"
	"github.com/vivavoce/vivavoce/internal/health"
	"github.com/vivavoce/vivavoce/internal/observe"
	"github.com/vivavoce/vivavoce/internal/orchestrator"
)

// shutdownTimeout bounds graceful drain of in-flight requests on stop.
const shutdownTimeout = 10 * time.Second

// Config configures a [Server].
type Config struct {
	// Server carries the listen address, origin patterns, and TLS paths.
	Server config.ServerConfig

	// Orchestrator handles every turn, evaluation, and reset. Must not be nil.
	Orchestrator *orchestrator.Orchestrator

	// Health serves /healthz and /readyz. May be nil to disable the probes.
	Health *health.Handler

	// Metrics tracks connection and turn counters. Defaults to
	// [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// Logger receives connection and request diagnostics. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Server is the HTTP front of the interview service. Construct with [New],
// run with [Run].
type Server struct {
	cfg     config.ServerConfig
	orch    *orchestrator.Orchestrator
	metrics *observe.Metrics
	logger  *slog.Logger

	mux  *http.ServeMux
	http *http.Server
}

// New creates a [Server] with all routes registered.
func New(cfg Config) *Server {
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg.Server,
		orch:    cfg.Orchestrator,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("GET /evaluate", s.handleEvaluate)
	s.mux.HandleFunc("POST /reset", s.handleReset)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	if cfg.Health != nil {
		cfg.Health.Register(s.mux)
	}

	s.http = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's route table. Useful for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Run serves until ctx is cancelled, then drains in-flight requests for up to
// [shutdownTimeout]. Open WebSocket connections are closed by the drain.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if s.cfg.TLS != nil {
			s.logger.Info("listening", "addr", s.cfg.ListenAddr, "tls", true)
			err = s.http.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("listening", "addr", s.cfg.ListenAddr, "tls", false)
			err = s.http.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shCtx)
	})

	return g.Wait()
}

// handleEvaluate generates a scorecard for the current session. Served as a
// GET: evaluation is read-only over the history and repeatable.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	sc, err := s.orch.Evaluate(r.Context())
	if err != nil {
		s.logger.Error("evaluation failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "evaluation failed"})
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// handleReset discards the current session and starts a fresh one.
func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.orch.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}
