package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/LBIT2016/trading-gamers/internal/api/apierr"
	"github.com/LBIT2016/trading-gamers/internal/api/handler"
	"github.com/LBIT2016/trading-gamers/internal/api/middleware"
	shared "github.com/LBIT2016/trading-gamers/internal/middleware"
	"github.com/LBIT2016/trading-gamers/internal/services/identity"
	"github.com/LBIT2016/trading-gamers/internal/services/listing"
	"github.com/LBIT2016/trading-gamers/internal/services/profile"
	"github.com/LBIT2016/trading-gamers/internal/web/sse"
)

// Session endpoint limits per client address
const (
	SessionRate  = rate.Limit(1)
	SessionBurst = 5
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger     *slog.Logger
	Identity   *identity.Store
	Listings   *listing.Store
	Profiles   *profile.Store
	HubManager *sse.HubManager
	// Documents are reported by the health endpoint
	Documents []handler.ReadinessSource
	// Metrics records request counts; nil disables request metrics
	Metrics *shared.HTTPMetrics
	// Gatherer is exposed on /metrics when set
	Gatherer prometheus.Gatherer
	// SessionLimiter throttles login and signup; nil uses the defaults
	SessionLimiter *shared.IPRateLimiter
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(cfg.Identity)
	userHandler := handler.NewUserHandler(cfg.Identity, cfg.Listings)
	listingHandler := handler.NewListingHandler(cfg.Listings)
	profileHandler := handler.NewProfileHandler(cfg.Profiles)
	eventsHandler := handler.NewEventsHandler(cfg.HubManager)
	healthHandler := handler.NewHealthHandler(cfg.Documents...)

	requireSession := middleware.RequireSession(cfg.Identity)
	limiter := cfg.SessionLimiter
	if limiter == nil {
		limiter = shared.NewIPRateLimiter(SessionRate, SessionBurst)
	}

	if cfg.Gatherer != nil {
		r.Handle("/metrics", shared.MetricsHandler(cfg.Gatherer)).Methods(http.MethodGet)
	}

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(shared.Recovery(cfg.Logger, apierr.WritePanic))
	api.Use(shared.Logging(cfg.Logger))
	if cfg.Metrics != nil {
		api.Use(cfg.Metrics.Middleware)
	}

	// Session routes
	sessions := api.PathPrefix("/session").Subrouter()
	sessions.HandleFunc("", sessionHandler.Get).Methods(http.MethodGet)
	sessions.HandleFunc("/logout", sessionHandler.Logout).Methods(http.MethodPost)
	throttled := sessions.NewRoute().Subrouter()
	throttled.Use(limiter.Middleware(middleware.RateLimited))
	throttled.HandleFunc("/login", sessionHandler.Login).Methods(http.MethodPost)
	throttled.HandleFunc("/signup", sessionHandler.Signup).Methods(http.MethodPost)

	// Public reads
	api.HandleFunc("/users/name-available", sessionHandler.NameAvailable).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", userHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/listings", userHandler.Listings).Methods(http.MethodGet)
	api.HandleFunc("/listings", listingHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/listings/validate/{step}", listingHandler.ValidateStep).Methods(http.MethodPost)
	api.HandleFunc("/listings/{id}", listingHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	// Routes acting as the current user
	protected := api.NewRoute().Subrouter()
	protected.Use(requireSession)
	protected.HandleFunc("/users/{id}", userHandler.Update).Methods(http.MethodPatch)
	protected.HandleFunc("/users/{id}", userHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/listings", listingHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/listings/{id}", listingHandler.Update).Methods(http.MethodPatch)
	protected.HandleFunc("/listings/{id}", listingHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/listings/{id}/status", listingHandler.SetStatus).Methods(http.MethodPost)
	protected.HandleFunc("/profile", profileHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/profile", profileHandler.Update).Methods(http.MethodPatch)

	return r
}
