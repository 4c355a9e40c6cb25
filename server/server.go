// Package server exposes the mixing engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Thiagojm/entropyd/entropy"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second

	tracerName = "github.com/Thiagojm/entropyd/server"
)

// Generator produces one output in [0, 1) per call.
type Generator interface {
	Next(ctx context.Context) float64
}

// Server serves GET /rng and GET /health.
type Server struct {
	addr       string
	gen        Generator
	pool       *entropy.Pool
	logger     *log.Logger
	tracer     trace.Tracer
	memory     func() (float64, error)
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the default "[server] " logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMemoryStat replaces the host memory reading reported by /health.
func WithMemoryStat(fn func() (float64, error)) Option {
	return func(s *Server) { s.memory = fn }
}

// New builds a server listening on addr.
func New(addr string, gen Generator, pool *entropy.Pool, opts ...Option) (*Server, error) {
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if pool == nil {
		return nil, errors.New("entropy pool is required")
	}
	s := &Server{
		addr:   addr,
		gen:    gen,
		pool:   pool,
		logger: log.New(log.Writer(), "[server] ", log.LstdFlags),
		tracer: otel.Tracer(tracerName),
		memory: usedMemoryPercent,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rng", s.handleRNG)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// ListenAndServe runs until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	serveErr := make(chan error, 1)
	s.logger.Printf("listening on %s", s.addr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
