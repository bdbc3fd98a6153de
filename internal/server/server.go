// Package server exposes find, join and project over HTTP for one record.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jacoelho/jsonhash/internal/logger"
	"github.com/jacoelho/jsonhash/internal/metrics"
	"github.com/jacoelho/jsonhash/internal/query"
	"github.com/jacoelho/jsonhash/internal/ratelimit"
)

const shutdownTimeout = 5 * time.Second

// Server serves queries over a shared engine. Every request gets its own
// session; the engine and its record are never modified.
type Server struct {
	engine  *query.Engine
	log     zerolog.Logger
	metrics *metrics.Metrics
	limiter *ratelimit.Limiter
	mux     *http.ServeMux
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.log = logger.Component(l, "server")
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithRateLimit rejects requests above queriesPerSecond with 429.
// Zero or negative disables the limit.
func WithRateLimit(queriesPerSecond float64) Option {
	return func(s *Server) {
		if queriesPerSecond > 0 {
			s.limiter = ratelimit.New(queriesPerSecond)
		}
	}
}

func New(engine *query.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		log:    logger.Nop(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.Handle("POST /v1/find", s.instrument("find", true, s.handleFind))
	s.mux.Handle("POST /v1/join", s.instrument("join", true, s.handleJoin))
	s.mux.Handle("POST /v1/project", s.instrument("project", true, s.handleProject))
	s.mux.Handle("GET /healthz", s.instrument("healthz", false, s.handleHealth))
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().
			Str("addr", addr).
			Int("entries", s.engine.Record().Len()).
			Msg("serving queries")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, limited bool, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

		if limited && s.limiter != nil && !s.limiter.Allow() {
			writeError(rec, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
		} else {
			h(rec, r)
		}

		duration := time.Since(start)
		s.metrics.ObserveHTTP(route, rec.code, duration)
		s.log.Debug().
			Str("route", route).
			Int("code", rec.code).
			Dur("elapsed", duration).
			Msg("request")
	})
}
