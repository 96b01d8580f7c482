// Package server is the HTTP request boundary: validation, rate limiting,
// the constraint gate, and the handoff to background orchestration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ytgrab/internal/config"
	"ytgrab/internal/domain"
	"ytgrab/internal/observability"
	"ytgrab/internal/ports"
)

// RateLimiter decides whether a client may start another download.
type RateLimiter interface {
	Allow(ctx context.Context, clientID string) (bool, error)
}

// ConstraintGate performs the pre-flight size/duration check.
type ConstraintGate interface {
	Check(ctx context.Context, url string) (*ports.MediaProbe, error)
}

// History is the read/create surface the boundary needs; terminal writes
// belong to the orchestrator alone.
type History interface {
	Create(ctx context.Context, url string) (int64, error)
	List(ctx context.Context) ([]domain.DownloadAttempt, error)
}

// Metadata serves cached video metadata.
type Metadata interface {
	GetOrFetch(ctx context.Context, url string) (*domain.VideoMetadata, error)
	Memoize(ctx context.Context, url string, probe *ports.MediaProbe)
}

// Server wires the HTTP routes to the service core.
type Server struct {
	cfg      *config.Config
	limiter  RateLimiter
	gate     ConstraintGate
	history  History
	metadata Metadata
	queue    ports.Queue
	provider *observability.Provider
	logger   observability.Logger
	metrics  observability.Metrics

	httpServer *http.Server
}

// New creates a Server. provider may be nil in tests; the /metrics route is
// then omitted.
func New(cfg *config.Config, limiter RateLimiter, gate ConstraintGate, history History,
	metadata Metadata, queue ports.Queue, provider *observability.Provider,
	logger observability.Logger, metrics observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		limiter:  limiter,
		gate:     gate,
		history:  history,
		metadata: metadata,
		queue:    queue,
		provider: provider,
		logger:   logger,
		metrics:  metrics,
	}
}

// Handler builds the route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /download", s.requireAPIKey(http.HandlerFunc(s.handleDownload)))
	mux.HandleFunc("GET /metadata", s.handleMetadata)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /files/",
		http.StripPrefix("/files/", http.FileServer(http.Dir(s.cfg.Downloads.Dir))))

	if s.provider != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(
			s.provider.Registry(), promhttp.HandlerOpts{}))
	}

	return s.recovery(s.requestLogging(mux))
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:        s.cfg.HTTP.Addr,
		Handler:     s.Handler(),
		ReadTimeout: s.cfg.HTTP.Timeout,
		// No write timeout: /files serves large downloads.
	}

	s.logger.Info("http server listening", "addr", s.cfg.HTTP.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}
