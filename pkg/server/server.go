package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"atelier-hq/vigil/pkg/config"
	"atelier-hq/vigil/pkg/limits"
	"atelier-hq/vigil/pkg/monitor/history"
	"atelier-hq/vigil/pkg/monitor/sampler"
)

// SampleSource supplies the samples of the most recent monitoring pass.
type SampleSource interface {
	LastSamples() ([]sampler.Sample, time.Time)
}

// ReadyFunc reports whether the process is ready to serve; a non-nil
// error marks it not ready.
type ReadyFunc func(ctx context.Context) error

// Server is the operational HTTP server.
type Server struct {
	cfg      config.ServerConfig
	limiter  *limits.Limiter
	samples  SampleSource
	history  history.Store
	gatherer prometheus.Gatherer
	ready    ReadyFunc
	logger   *slog.Logger

	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Options configures a Server. Limiter, Samples, History, and Ready are
// all optional; absent dependencies disable the corresponding surface
// (no rate limiting, empty sample and alert responses, always-ready).
type Options struct {
	Config   config.ServerConfig
	Limiter  *limits.Limiter
	Samples  SampleSource
	History  history.Store
	Gatherer prometheus.Gatherer
	Ready    ReadyFunc
	Logger   *slog.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Server{
		cfg:      opts.Config,
		limiter:  opts.Limiter,
		samples:  opts.Samples,
		history:  opts.History,
		gatherer: opts.Gatherer,
		ready:    opts.Ready,
		logger:   opts.Logger.With("component", "server"),
	}
}

// Start runs the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.cfg.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout.Std(),
		WriteTimeout: s.cfg.WriteTimeout.Std(),
		IdleTimeout:  s.cfg.IdleTimeout.Std(),
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", s.cfg.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.cfg.ShutdownTimeout.Std().String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout.Std())
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler builds the route table and middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/status/samples", s.handleSamples)
	mux.HandleFunc("/status/alerts", s.handleAlerts)

	var handler http.Handler = mux

	if s.limiter != nil {
		handler = RateLimit(s.limiter, ScopeStatus, statusPaths)(handler)
	}
	handler = Logging(handler)
	handler = Recovery(handler)

	return handler
}

// statusPaths are the endpoints guarded by the status rate-limit scope.
// Probes and metrics scraping stay unthrottled so orchestrators and
// Prometheus never see a 429.
func statusPaths(path string) bool {
	return path == "/status/samples" || path == "/status/alerts"
}
