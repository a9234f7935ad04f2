package factory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/LBIT2016/trading-gamers/internal/config"
	"github.com/LBIT2016/trading-gamers/internal/dependencies/clock"
	"github.com/LBIT2016/trading-gamers/internal/dependencies/random"
	"github.com/LBIT2016/trading-gamers/internal/docsync"
	"github.com/LBIT2016/trading-gamers/internal/services/identity"
	"github.com/LBIT2016/trading-gamers/internal/services/images"
	"github.com/LBIT2016/trading-gamers/internal/services/listing"
	"github.com/LBIT2016/trading-gamers/internal/services/profile"
	"github.com/LBIT2016/trading-gamers/internal/session"
	"github.com/LBIT2016/trading-gamers/internal/storage"
	filestorage "github.com/LBIT2016/trading-gamers/internal/storage/file"
	"github.com/LBIT2016/trading-gamers/internal/storage/memory"
	pgstorage "github.com/LBIT2016/trading-gamers/internal/storage/postgres"
	redisstorage "github.com/LBIT2016/trading-gamers/internal/storage/redis"
	"github.com/LBIT2016/trading-gamers/internal/web/sse"
)

// App contains all wired application components
type App struct {
	Config Config
	Logger *slog.Logger

	// Synchronization
	Storage      storage.DocumentStore
	UsersSync    *docsync.Binding
	ListingsSync *docsync.Binding
	Registry     *prometheus.Registry

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Images images.Resolver

	// Services
	Sessions *session.Manager
	Identity *identity.Store
	Listings *listing.Store
	Profiles *profile.Store

	// Live updates for the local HTTP app
	HubManager  *sse.HubManager
	Broadcaster *sse.Broadcaster
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the sync backend ("file", "memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PostgresConfig holds database settings (required if StorageType is "postgres")
	PostgresConfig *pgstorage.Config
	// S3Config switches image uploads to a bucket; nil uses placeholders
	S3Config *images.S3Config
	// DataDir holds the local session record and, for the file backend, the
	// shared documents. Empty keeps the session in memory.
	DataDir string
	// SyncTimeout bounds the initial document load
	SyncTimeout time.Duration
	// IdentityConfig holds credential settings (optional)
	IdentityConfig identity.Config
}

// FromEnv converts parsed environment settings into a factory config
func FromEnv(c *config.Config, logger *slog.Logger) Config {
	cfg := Config{
		Logger:      logger,
		StorageType: c.Storage,
		DataDir:     c.DataDir,
		SyncTimeout: c.SyncTimeout,
		IdentityConfig: identity.Config{
			AdminCredential: c.AdminCredential,
			Comparer:        identity.PlainComparer{},
		},
	}
	if c.HashCredentials {
		cfg.IdentityConfig.Comparer = identity.BcryptComparer{}
	}

	switch c.Storage {
	case config.StorageRedis:
		rc := redisstorage.DefaultConfig()
		rc.URL = c.RedisURL
		rc.KeyPrefix = c.RedisPrefix
		cfg.RedisConfig = &rc
	case config.StoragePostgres:
		pc := pgstorage.DefaultConfig()
		pc.URL = c.DatabaseURL
		cfg.PostgresConfig = &pc
	}

	if c.ImageBackend == config.ImagesS3 {
		cfg.S3Config = &images.S3Config{
			Bucket:          c.S3Bucket,
			Region:          c.S3Region,
			Endpoint:        c.S3Endpoint,
			AccessKeyID:     c.S3AccessKeyID,
			SecretAccessKey: c.S3SecretAccessKey,
			KeyPrefix:       "listings",
			PublicBaseURL:   c.S3PublicBaseURL,
		}
	}
	return cfg
}

// New creates a new application with all dependencies wired.
// Call Start before use and Close when done.
func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rnd := random.New()

	var resolver images.Resolver = images.NewPlaceholder()
	if cfg.S3Config != nil {
		s3, err := images.NewS3(ctx, *cfg.S3Config, rnd)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("image storage: %w", err)
		}
		resolver = s3
	}

	var local session.LocalStorage = session.NewMemoryStorage()
	if cfg.DataDir != "" {
		local = session.NewFileStorage(cfg.DataDir)
	}

	return newWithDependencies(cfg, store, local, resolver, clock.New(), rnd), nil
}

// DocumentsDir is where the file backend keeps shared documents under dataDir
func DocumentsDir(dataDir string) string {
	return filepath.Join(dataDir, "documents")
}

func openStorage(ctx context.Context, cfg Config) (storage.DocumentStore, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = config.StorageMemory
	}

	switch storageType {
	case config.StorageFile:
		if cfg.DataDir == "" {
			return nil, errors.New("DataDir required when StorageType is file")
		}
		return filestorage.New(DocumentsDir(cfg.DataDir), cfg.Logger)
	case config.StorageMemory:
		return memory.New(), nil
	case config.StorageRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case config.StoragePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		pgCfg := *cfg.PostgresConfig
		if pgCfg.Logger == nil {
			pgCfg.Logger = cfg.Logger
		}
		return pgstorage.New(ctx, pgCfg)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be file, memory, redis or postgres", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	cfg Config,
	store storage.DocumentStore,
	local session.LocalStorage,
	resolver images.Resolver,
	clk clock.Clock,
	rnd random.Random,
) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sessions := session.NewManager(local, clk, logger)
	identityStore := identity.New(sessions, clk, rnd, logger, cfg.IdentityConfig)
	listingStore := listing.New(identityStore, resolver, clk, rnd, logger)
	profileStore := profile.New(identityStore, local, logger)

	registry := prometheus.NewRegistry()
	metrics := docsync.NewMetrics(registry)

	usersSync := docsync.Bind(store, identityStore, docsync.Options{
		DocumentID:  docsync.UsersDocument,
		InitTimeout: cfg.SyncTimeout,
		Logger:      logger,
		Metrics:     metrics,
	})
	identityStore.SetEmitter(usersSync)

	listingsSync := docsync.Bind(store, listingStore, docsync.Options{
		DocumentID:  docsync.ListingsDocument,
		InitTimeout: cfg.SyncTimeout,
		Logger:      logger,
		Metrics:     metrics,
	})
	listingStore.SetEmitter(listingsSync)

	hubManager := sse.NewHubManager(logger)
	broadcaster := sse.NewBroadcaster(hubManager, logger)
	broadcaster.Watch(listingStore, identityStore)

	return &App{
		Config:       cfg,
		Logger:       logger,
		Storage:      store,
		UsersSync:    usersSync,
		ListingsSync: listingsSync,
		Registry:     registry,
		Clock:        clk,
		Random:       rnd,
		Images:       resolver,
		Sessions:     sessions,
		Identity:     identityStore,
		Listings:     listingStore,
		Profiles:     profileStore,
		HubManager:   hubManager,
		Broadcaster:  broadcaster,
	}
}

// Start loads both shared documents, bootstraps the administrator and
// restores the session. A document that fails to load leaves its store
// on local state; that is logged, not returned.
func (a *App) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, b := range []*docsync.Binding{a.UsersSync, a.ListingsSync} {
		g.Go(func() error {
			if err := b.Start(gctx); err != nil {
				a.Logger.Warn("document unavailable, using local state",
					slog.String("document", b.DocumentID()),
					slog.Any("error", err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if _, err := a.Identity.EnsureAdmin(ctx); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	a.Identity.CheckSession()
	return nil
}

// Close stops synchronization and releases the storage backend
func (a *App) Close() error {
	a.HubManager.CloseAll()
	a.UsersSync.Close()
	a.ListingsSync.Close()
	return a.Storage.Close()
}
