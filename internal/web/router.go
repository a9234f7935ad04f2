package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	shared "github.com/LBIT2016/trading-gamers/internal/middleware"
	"github.com/LBIT2016/trading-gamers/internal/services/identity"
	"github.com/LBIT2016/trading-gamers/internal/services/listing"
	"github.com/LBIT2016/trading-gamers/internal/web/handler"
	"github.com/LBIT2016/trading-gamers/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger    *slog.Logger
	Identity  *identity.Store
	Listings  *listing.Store
	StaticDir string // Path to static files directory
	// SessionLimiter throttles the login form; nil disables throttling
	SessionLimiter *shared.IPRateLimiter
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Apply global middleware to all routes
	r.Use(shared.Recovery(cfg.Logger, handler.RenderPanic))
	r.Use(shared.Logging(cfg.Logger))
	r.Use(middleware.Flash())
	r.Use(middleware.OptionalUser(cfg.Identity))

	browseHandler := handler.NewBrowseHandler(cfg.Identity, cfg.Listings, cfg.Logger)
	sessionHandler := handler.NewSessionHandler(cfg.Identity)

	// Static files
	if cfg.StaticDir != "" {
		staticHandler := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.PathPrefix("/static/").Handler(staticHandler)
	}

	r.HandleFunc("/", browseHandler.Browse).Methods(http.MethodGet)
	r.HandleFunc("/listings/{id}", browseHandler.Listing).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", browseHandler.Seller).Methods(http.MethodGet)

	// Protected routes
	protected := r.NewRoute().Subrouter()
	protected.Use(middleware.RequireUser(cfg.Identity))
	protected.HandleFunc("/me", browseHandler.Mine).Methods(http.MethodGet)

	sessions := r.PathPrefix("/session").Subrouter()
	sessions.HandleFunc("/logout", sessionHandler.Logout).Methods(http.MethodPost)
	login := sessions.NewRoute().Subrouter()
	if cfg.SessionLimiter != nil {
		login.Use(cfg.SessionLimiter.Middleware(tooManyAttempts))
	}
	login.HandleFunc("/login", sessionHandler.Login).Methods(http.MethodPost)

	return r
}

func tooManyAttempts(w http.ResponseWriter, r *http.Request) {
	middleware.SetFlash(w, "error", "Too many attempts, try again shortly")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
