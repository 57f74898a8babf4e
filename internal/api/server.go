package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/interviewace/simulation-engine/internal/catalog"
	"github.com/interviewace/simulation-engine/internal/config"
	"github.com/interviewace/simulation-engine/internal/events"
	"github.com/interviewace/simulation-engine/internal/simulation"
	"github.com/interviewace/simulation-engine/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	manager        *simulation.Manager
	catalog        *catalog.Catalog
	broadcaster    *events.Broadcaster
	repo           storage.Repository
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	manager *simulation.Manager,
	cat *catalog.Catalog,
	broadcaster *events.Broadcaster,
	repo storage.Repository,
) *Server {
	s := &Server{
		config:         cfg,
		manager:        manager,
		catalog:        cat,
		broadcaster:    broadcaster,
		repo:           repo,
		authMiddleware: NewAuthMiddleware(repo),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes (protected by authentication)
	r.Route("/api/v1", func(r chi.Router) {
		// Apply authentication middleware to all /api/v1/* routes
		r.Use(s.authMiddleware.Authenticate)

		// Simulations
		r.Route("/simulations", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("simulations:write")).Post("/", s.handleStartSimulation)

			r.Route("/{id}", func(r chi.Router) {
				r.With(s.authMiddleware.RequirePermission("simulations:read")).Get("/", s.handleGetStatus)
				r.With(s.authMiddleware.RequirePermission("simulations:write")).Post("/turns", s.handleExecuteTurn)
				r.With(s.authMiddleware.RequirePermission("simulations:write")).Delete("/", s.handleEndSimulation)
				r.With(s.authMiddleware.RequirePermission("simulations:read")).Get("/watch", s.handleWatchWS)
			})
		})

		// Scenarios
		r.Route("/scenarios", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("scenarios:read")).Get("/", s.handleListScenarios)
			r.With(s.authMiddleware.RequirePermission("scenarios:read")).Get("/{roleType}", s.handleGetScenario)
		})

		// Archived reports
		r.With(s.authMiddleware.RequirePermission("reports:read")).Get("/reports/{sessionId}", s.handleGetReport)
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
