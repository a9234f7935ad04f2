package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/LBIT2016/trading-gamers/internal/api"
	"github.com/LBIT2016/trading-gamers/internal/api/handler"
	"github.com/LBIT2016/trading-gamers/internal/factory"
	"github.com/LBIT2016/trading-gamers/internal/middleware"
	"github.com/LBIT2016/trading-gamers/internal/web"
)

// limiterCleanupInterval is how often idle client limiters are dropped
const limiterCleanupInterval = 5 * time.Minute

func newServeCmd() *cobra.Command {
	var addr, staticDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local web app",
		Long: `Keep this client running behind a local HTTP app: a JSON API under
/api/v1, browse pages at /, live updates over server-sent events and
Prometheus metrics at /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverConfig := api.DefaultServerConfig()
			serverConfig.Addr = settings.HTTPAddr
			if cmd.Flags().Changed("addr") {
				serverConfig.Addr = addr
			}
			serverConfig.AllowedOrigins = settings.CORSOrigins
			if staticDir == "" {
				staticDir = findStaticDir()
			}
			return serve(cmd.Context(), app, serverConfig, staticDir, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (env: MARKET_HTTP_ADDR)")
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "Directory served under /static/")

	return cmd
}

// newHandler combines the API and web routers around one application
func newHandler(a *factory.App, staticDir string, limiter *middleware.IPRateLimiter, logger *slog.Logger) http.Handler {
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Identity:       a.Identity,
		Listings:       a.Listings,
		Profiles:       a.Profiles,
		HubManager:     a.HubManager,
		Documents:      []handler.ReadinessSource{a.UsersSync, a.ListingsSync},
		Metrics:        middleware.NewHTTPMetrics(a.Registry),
		Gatherer:       a.Registry,
		SessionLimiter: limiter,
	})

	webRouter := web.NewRouter(web.RouterConfig{
		Logger:         logger,
		Identity:       a.Identity,
		Listings:       a.Listings,
		StaticDir:      staticDir,
		SessionLimiter: limiter,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/metrics", apiRouter)
	mux.Handle("/", webRouter)
	return mux
}

// serve runs the HTTP app until ctx is cancelled
func serve(ctx context.Context, a *factory.App, serverConfig api.ServerConfig, staticDir string, logger *slog.Logger) error {
	limiter := middleware.NewIPRateLimiter(api.SessionRate, api.SessionBurst)
	server := api.NewServer(newHandler(a, staticDir, limiter, logger), serverConfig, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		limiter.RunCleanup(gctx, limiterCleanupInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")
		// Open SSE streams end when their hubs close
		a.HubManager.CloseAll()
		return server.Shutdown(context.Background())
	})
	return g.Wait()
}

// findStaticDir looks for the static files directory
func findStaticDir() string {
	candidates := []string{
		"internal/web/static",
		filepath.Join(os.Getenv("PWD"), "internal/web/static"),
	}

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}
