package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"calbook-backend/application/ports"
	"calbook-backend/application/services"
	"calbook-backend/infrastructure/config"
	"calbook-backend/interfaces/http/rest/handlers"
	"calbook-backend/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	feed        ports.FeedSource
	listing     *services.ListingService
	invitations *services.InvitationService
	params      ports.ParameterStore
	cfg         *config.Config
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	feed ports.FeedSource,
	listing *services.ListingService,
	invitations *services.InvitationService,
	params ports.ParameterStore,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		feed:        feed,
		listing:     listing,
		invitations: invitations,
		params:      params,
		cfg:         cfg,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", middleware.APIKeyHeader},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API routes behind the API key
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.APIKey(rt.params, rt.cfg.APIKeyParam, rt.logger))

		eventHandler := handlers.NewEventHandler(
			rt.feed,
			rt.listing,
			rt.invitations,
			rt.params,
			rt.cfg,
			rt.logger,
		)
		r.Get("/events", eventHandler.ListEvents)
		r.Post("/invitations", eventHandler.Invite)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
