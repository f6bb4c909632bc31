// Package server implements the pgnode2graph HTTP API.
//
// Endpoints:
//
//	POST /v1/dot             dump in the body, DOT text out
//	POST /v1/render?format=  dump in the body, rendered image out
//	POST /v1/tree            dump in the body, tree as JSON out
//	GET  /v1/stats           conversion, cache and request counters
//	GET  /healthz            liveness
//
// The conversion endpoints accept ?color and ?skip_empty. Every response
// carries an X-Request-ID header; an incoming one is reused.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pgnode2graph/pkg/colormap"
	"github.com/matzehuels/pgnode2graph/pkg/observability"
	"github.com/matzehuels/pgnode2graph/pkg/pipeline"
)

const (
	// DefaultRequestTimeout bounds the time spent on one request.
	DefaultRequestTimeout = 60 * time.Second

	shutdownTimeout = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	// Colors is used for ?color requests. Defaults to the built-in map.
	Colors colormap.Resolver
	// BodyLimit caps request bodies in bytes. Zero uses httputil.DefaultBodyLimit.
	BodyLimit int64
	// RequestTimeout defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration
}

// Server serves the HTTP API on top of a pipeline runner.
type Server struct {
	runner   *pipeline.Runner
	counters *observability.Counters
	logger   *log.Logger
	cfg      Config
}

// New creates a server. counters backs /v1/stats; register them with the
// observability package for the totals to move. nil creates a private set.
func New(runner *pipeline.Runner, counters *observability.Counters, logger *log.Logger, cfg Config) *Server {
	if counters == nil {
		counters = observability.NewCounters()
	}
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Colors == nil {
		cfg.Colors = colormap.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	return &Server{runner: runner, counters: counters, logger: logger, cfg: cfg}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/dot", s.handleDot)
		r.Post("/render", s.handleRender)
		r.Post("/tree", s.handleTree)
		r.Get("/stats", s.handleStats)
	})
	return r
}

// ListenAndServe serves the API on addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
