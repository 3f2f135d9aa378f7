// Package server assembles and runs the service's HTTP surface.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"meridian-hq/stratum/pkg/admin"
	"meridian-hq/stratum/pkg/audit"
	"meridian-hq/stratum/pkg/config"
	"meridian-hq/stratum/pkg/environment"
	"meridian-hq/stratum/pkg/resolver"
	"meridian-hq/stratum/pkg/security/auth"
	"meridian-hq/stratum/pkg/server/middleware"
	"meridian-hq/stratum/pkg/telemetry/health"
	"meridian-hq/stratum/pkg/telemetry/metrics"
)

// Deps are the wired components the routes serve.
type Deps struct {
	// Resolver answers /api/v1/resolve.
	Resolver *resolver.Resolver

	// Environment answers /api/v1/environment.
	Environment *environment.Resolver

	// Admin backs the /admin/cache endpoints.
	Admin *admin.Manager

	// Audit backs /admin/audit/events. When nil (sink "log" or audit
	// disabled) the route is not mounted.
	Audit audit.Storage

	// Auth guards the /admin routes. When nil the admin routes are not
	// mounted at all; routes never run unprotected.
	Auth *auth.Middleware

	// Health backs /health and /ready.
	Health *health.Checker

	// Metrics serves /metrics and records request metrics. When nil or
	// disabled, the endpoint and middleware are omitted.
	Metrics *metrics.Collector

	// Version, Commit and BuildTime fill /version.
	Version   string
	Commit    string
	BuildTime string
}

// Server is the service's HTTP server.
type Server struct {
	config       *config.ServiceConfig
	deps         Deps
	httpServer   *http.Server
	logger       *slog.Logger
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a server for the given configuration and wired
// components.
func NewServer(cfg *config.ServiceConfig, deps Deps) *Server {
	return &Server{
		config:       cfg,
		deps:         deps,
		logger:       slog.Default().With("component", "server"),
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until the context is
// cancelled, a shutdown signal arrives, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", s.config.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		return s.Shutdown(context.Background())
	}
}

// Stop requests a graceful shutdown from another goroutine.
func (s *Server) Stop() {
	s.shutdownOnce.Do(func() { close(s.shutdownChan) })
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests up to the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the fully assembled HTTP handler: all routes wrapped
// in the middleware chain. Exposed for tests driving the surface
// through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	if s.deps.Health != nil {
		mux.HandleFunc("/health", s.deps.Health.LivenessHandler())
		mux.HandleFunc("/ready", s.deps.Health.ReadinessHandler())
	}
	mux.HandleFunc("/version", health.VersionHandler(s.deps.Version, s.deps.Commit, s.deps.BuildTime))

	metricsEnabled := s.deps.Metrics != nil && s.deps.Metrics.Enabled()
	if metricsEnabled {
		mux.Handle("/metrics", s.deps.Metrics.Handler())
	}

	if s.deps.Environment != nil {
		mux.Handle("/api/v1/environment", admin.NewEnvironmentHandler(s.deps.Environment))
	}
	if s.deps.Resolver != nil {
		mux.Handle("/api/v1/resolve", admin.NewResolveHandler(s.deps.Resolver))
	}

	if s.deps.Auth != nil && s.deps.Admin != nil {
		readOnly := s.deps.Auth.Require(auth.RoleReadOnly)
		adminOnly := s.deps.Auth.Require(auth.RoleAdmin)

		mux.Handle("/admin/cache/stats", readOnly(admin.NewCacheStatsHandler(s.deps.Admin)))
		mux.Handle("/admin/cache/clear", adminOnly(admin.NewCacheClearHandler(s.deps.Admin)))
		mux.Handle("/admin/cache/refresh", adminOnly(admin.NewCacheRefreshHandler(s.deps.Admin)))
		mux.Handle("/admin/cache/sweep", adminOnly(admin.NewCacheSweepHandler(s.deps.Admin)))

		if s.deps.Audit != nil {
			mux.Handle("/admin/audit/events", readOnly(admin.NewAuditEventsHandler(s.deps.Audit)))
		}
	}

	// Middleware chain, innermost first. Request IDs are assigned
	// outside the logging middleware so completion logs carry them.
	var handler http.Handler = mux

	if s.config.RequestTimeout > 0 {
		handler = middleware.TimeoutMiddleware(s.config.RequestTimeout)(handler)
	}
	handler = middleware.CORSMiddleware(s.corsConfig())(handler)
	if metricsEnabled {
		handler = s.deps.Metrics.Middleware(handler)
	}
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// corsConfig maps the bootstrap CORS settings onto the middleware
// configuration, keeping the middleware defaults for header lists.
func (s *Server) corsConfig() *middleware.CORSConfig {
	cfg := middleware.DefaultCORSConfig()
	cfg.Enabled = s.config.CORS.Enabled
	if len(s.config.CORS.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = s.config.CORS.AllowedOrigins
	}
	return cfg
}
