// Package api provides the HTTP API layer for the life manager
// recommendation service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/OscarCarPu/life-manager/internal/api/handlers"
	"github.com/OscarCarPu/life-manager/internal/api/middleware"
	"github.com/OscarCarPu/life-manager/internal/api/response"
	"github.com/OscarCarPu/life-manager/internal/config"
	"github.com/OscarCarPu/life-manager/internal/logging"
)

// Version is reported by the root and health endpoints
const Version = "1.0.0"

// Dependencies are the collaborators the router serves
type Dependencies struct {
	Recommendations handlers.RecommendationService
	Health          []handlers.Dependency
	Logger          logging.Logger
}

// Router represents the main API router
type Router struct {
	config  *config.Config
	mux     *chi.Mux
	version string
	deps    Dependencies
}

// NewRouter creates a new API router with middleware and routes
func NewRouter(cfg *config.Config, deps Dependencies) *Router {
	if deps.Logger == nil {
		deps.Logger = logging.NewNoOpLogger()
	}
	r := &Router{
		config:  cfg,
		mux:     chi.NewRouter(),
		version: Version,
		deps:    deps,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Handler returns the HTTP handler
func (r *Router) Handler() http.Handler {
	return r.mux
}

// setupMiddleware configures the middleware stack
func (r *Router) setupMiddleware() {
	// Recovery middleware (should be first)
	r.mux.Use(chimiddleware.Recoverer)

	r.mux.Use(middleware.ServerVersion(r.version))
	r.mux.Use(middleware.NewSecurityHeadersMiddleware(middleware.DefaultSecurityHeadersConfig()).Handler())
	if len(r.config.Server.CORSOrigins) > 0 {
		r.mux.Use(middleware.NewCORSMiddleware(middleware.CORSConfig{
			AllowedOrigins: r.config.Server.CORSOrigins,
		}).Handler())
	}

	timeout := time.Duration(r.config.Server.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r.mux.Use(chimiddleware.Timeout(timeout))

	r.mux.Use(middleware.NewLoggingMiddleware(r.deps.Logger).Handler())

	// Heartbeat for load balancer health checks
	r.mux.Use(chimiddleware.Heartbeat("/ping"))
}

// setupRoutes configures API routes
func (r *Router) setupRoutes() {
	// Health check endpoints (no version prefix for load balancers)
	healthHandler := handlers.NewHealthHandler(r.version, r.deps.Health...)
	r.mux.Get("/health", healthHandler.Handle)
	r.mux.Get("/readiness", healthHandler.HandleReadiness)
	r.mux.Get("/liveness", healthHandler.HandleLiveness)

	r.mux.Route("/api/v1", func(rtr chi.Router) {
		rtr.Get("/health", healthHandler.Handle)
		rtr.Get("/readiness", healthHandler.HandleReadiness)
		rtr.Get("/liveness", healthHandler.HandleLiveness)

		if r.deps.Recommendations != nil {
			recHandler := handlers.NewRecommendationHandler(r.deps.Recommendations, r.deps.Logger)
			rtr.Route("/recommendations", func(recRouter chi.Router) {
				recRouter.Get("/", recHandler.List)
				recRouter.Get("/weights", recHandler.Weights)
			})
		}
	})

	r.mux.Get("/", r.handleRoot)
	r.mux.NotFound(r.handleNotFound)
	r.mux.MethodNotAllowed(r.handleMethodNotAllowed)
}

// handleRoot handles requests to the root endpoint
func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) {
	endpoints := map[string]string{
		"health":    "/health",
		"readiness": "/readiness",
		"liveness":  "/liveness",
		"api":       "/api/v1",
	}
	if r.deps.Recommendations != nil {
		endpoints["recommendations"] = "/api/v1/recommendations"
		endpoints["weights"] = "/api/v1/recommendations/weights"
	}

	response.WriteSuccess(w, map[string]interface{}{
		"server":      "life-manager",
		"version":     r.version,
		"api_version": "v1",
		"endpoints":   endpoints,
	})
}

// handleNotFound handles 404 errors
func (r *Router) handleNotFound(w http.ResponseWriter, req *http.Request) {
	response.WriteNotFound(w, "Endpoint not found", "The requested resource does not exist")
}

// handleMethodNotAllowed handles 405 errors
func (r *Router) handleMethodNotAllowed(w http.ResponseWriter, req *http.Request) {
	response.WriteMethodNotAllowed(w, "Method not allowed", "The HTTP method is not supported for this endpoint")
}
