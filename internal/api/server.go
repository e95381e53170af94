package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/collectworks/harrier/internal/domain"
	"github.com/collectworks/harrier/internal/metrics"
	"github.com/collectworks/harrier/internal/policy"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.Cache, bus domain.EventBus, policies *policy.Engine, metricsService *metrics.Service, version string) *Server {
	handler := NewHandler(repo, cache, bus, policies, metricsService, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints (no tenant required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes (tenant required)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(TenantMiddleware)

		// Priority scoring
		r.Post("/priority/score", handler.ScorePriority)
		r.Post("/priority/batch", handler.ScorePriorityBatch)

		// Recovery prediction
		r.Post("/predict/recovery", handler.PredictRecovery)
		r.Post("/predict/batch", handler.PredictRecoveryBatch)

		// Return-on-effort recommendation
		r.Post("/recommend/roe", handler.RecommendROE)
		r.Get("/recommend/agencies", handler.ListAgencies)

		// Agency performance analysis
		r.Get("/analyze/agency/{id}", handler.AnalyzeAgency)
		r.Get("/analyze/compare", handler.CompareAgencies)
		r.Get("/analyze/health", handler.AnalyzeHealth)

		// Case records
		r.Post("/cases", handler.SaveCase)
		r.Get("/cases", handler.ListCases)
		r.Get("/cases/{id}", handler.GetCase)

		// Assessment retrieval
		r.Get("/assessments/{id}", handler.GetAssessment)

		// Allocation policy management
		r.Get("/policies", handler.ListPolicies)
		r.Post("/policies", handler.CreatePolicy)
		r.Post("/policies/reload", handler.ReloadPolicies)
		r.Get("/policies/{id}", handler.GetPolicy)
		r.Delete("/policies/{id}", handler.DeletePolicy)

		// Operational statistics
		r.Get("/stats", handler.Stats)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
