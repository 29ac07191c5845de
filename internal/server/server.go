package server

import (
	"casaideal/internal/config"
	"casaideal/internal/logger"
	"casaideal/internal/metrics"
	"casaideal/internal/observability"
	"casaideal/internal/pipeline"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultRequestTimeout bounds a request when the config leaves it unset.
// A full search makes a dozen model calls.
const DefaultRequestTimeout = 3 * time.Minute

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	pipeline   *pipeline.Pipeline
	analytics  *observability.PostHogClient
	config     config.Server
	log        *slog.Logger
	now        func() time.Time
}

// New creates a new HTTP server instance. analytics may be nil.
func New(p *pipeline.Pipeline, analytics *observability.PostHogClient, cfg config.Server) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		pipeline:  p,
		analytics: analytics,
		config:    cfg,
		log:       logger.Component("server"),
		now:       time.Now,
	}

	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(observeRequests)
	s.router.Use(securityHeaders)

	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	s.router.Use(middleware.Timeout(timeout))

	if s.config.CORS.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300, // Maximum value not ignored by any major browsers
		}))
	}
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/options", s.handleOptions)

		r.Post("/searches", s.handleSearch)

		r.Route("/listings", func(r chi.Router) {
			r.Post("/", s.handlePrimaryListings)
			r.Post("/similar", s.handleSimilarListings)
		})

		r.Post("/comparisons", s.handleCompare)
		r.Post("/visits", s.handleScheduleVisit)
		r.Post("/info-requests", s.handleRequestInfo)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		"addr", s.httpServer.Addr,
		"read_timeout", s.config.ReadTimeout,
		"write_timeout", s.config.WriteTimeout,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server gracefully...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
