// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-storedconfig.
//
// go-storedconfig is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package rest

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/language"

	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/audit"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/auth"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
	"github.com/jeremyhahn/go-storedconfig/pkg/health"
	"github.com/jeremyhahn/go-storedconfig/pkg/metrics"
	"github.com/jeremyhahn/go-storedconfig/pkg/ratelimit"
	"github.com/jeremyhahn/go-storedconfig/pkg/storedconfig"
)

// Server represents the REST API server.
type Server struct {
	server        *http.Server
	handler       http.Handler
	handlers      *HandlerContext
	metricsPath   string
	authenticator auth.Authenticator
	rateLimiter   *ratelimit.Limiter
	logger        logger.Logger
}

// Config holds the REST server configuration.
type Config struct {
	// Addr is the address to listen on (default: ":8443")
	Addr string

	// Store persists the served document (required)
	Store *storedconfig.Store

	// Document is the name of the served document (default: "default")
	Document string

	// Version is the API version string
	Version string

	// Locale renders values when the request names none (default: English)
	Locale language.Tag

	// MetricsPath serves Prometheus metrics; empty disables the endpoint
	MetricsPath string

	// HealthChecker backs the probe endpoints (optional, defaults to a
	// checker with a document check)
	HealthChecker *health.Checker

	// Authenticator is the authentication adapter (optional, defaults to NoOp)
	Authenticator auth.Authenticator

	// Auditor records setting changes and denied requests (optional,
	// defaults to NoOp). GET /api/v1/audit queries it.
	Auditor audit.AuditAdapter

	// RateLimiter throttles /api/v1 clients (optional, disabled when nil)
	RateLimiter *ratelimit.Limiter

	// Logger is the logging adapter (optional)
	Logger logger.Logger

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration
}

// NewServer creates a new REST API server.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	// Set defaults
	if cfg.Addr == "" {
		cfg.Addr = ":8443"
	}
	if cfg.Document == "" {
		cfg.Document = "default"
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.Locale == language.Und {
		cfg.Locale = language.English
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	authenticator := cfg.Authenticator
	if authenticator == nil {
		authenticator = auth.NewNoOpAuthenticator()
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewSlogAdapter(&logger.SlogConfig{
			Level: logger.LevelInfo,
		})
	}

	checker := cfg.HealthChecker
	if checker == nil {
		checker = health.NewChecker()
		checker.RegisterCheck("document", health.DocumentCheck(cfg.Store, cfg.Document))
	}

	handlers := NewHandlerContext(cfg.Store, cfg.Document, cfg.Version, cfg.Locale, log)
	handlers.SetHealthChecker(checker)
	if cfg.Auditor != nil {
		handlers.SetAuditor(cfg.Auditor)
	}

	server := &Server{
		handlers:      handlers,
		metricsPath:   cfg.MetricsPath,
		authenticator: authenticator,
		rateLimiter:   cfg.RateLimiter,
		logger:        log,
	}
	server.handler = server.setupRouter()

	server.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return server, nil
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.RecoveryMiddleware())
	r.Use(s.CorrelationMiddleware())
	r.Use(s.LoggingMiddleware())
	r.Use(metrics.HTTPMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", s.handlers.HealthHandler)
	r.Head("/health", s.handlers.HealthHandler)
	r.Get("/health/live", s.handlers.LivenessHandler)
	r.Get("/health/ready", s.handlers.ReadinessHandler)
	r.Get("/health/startup", s.handlers.StartupHandler)

	if s.metricsPath != "" {
		r.Handle(s.metricsPath, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.rateLimiter != nil && s.rateLimiter.IsEnabled() {
			r.Use(s.RateLimitMiddleware())
		}
		r.Use(s.AuthenticationMiddleware())

		r.Group(func(r chi.Router) {
			r.Use(s.RequireRole(auth.RoleReader))

			r.Get("/documents", s.handlers.ListDocumentsHandler)
			r.Get("/settings", s.handlers.ListSettingsHandler)
			r.Get("/settings/{key}", s.handlers.GetSettingHandler)
			r.Get("/settings/{key}/certificates", s.handlers.GetCertificatesHandler)
			r.Get("/validate", s.handlers.ValidateHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.RequireRole(auth.RoleAdmin))

			r.Put("/settings/{key}", s.handlers.UpdateSettingHandler)
			r.Delete("/settings/{key}", s.handlers.ResetSettingHandler)
			r.Get("/audit", s.handlers.AuditEventsHandler)
			r.Get("/audit/stats", s.handlers.AuditStatsHandler)
		})
	})

	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until Stop is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves requests on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting HTTP server",
		logger.String("addr", ln.Addr().String()),
		logger.String("auth", s.authenticator.Name()))

	s.handlers.HealthChecker.MarkStarted()
	s.handlers.recordSystemEvent(context.Background(), audit.EventSystemStart, "Server started on "+ln.Addr().String())
	if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the REST API server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	s.handlers.HealthChecker.MarkNotStarted()
	s.handlers.recordSystemEvent(ctx, audit.EventSystemStop, "Server stopping")

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown server", logger.Error(err))
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// HealthChecker returns the checker backing the probe endpoints.
func (s *Server) HealthChecker() *health.Checker {
	return s.handlers.HealthChecker
}
