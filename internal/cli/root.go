package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LBIT2016/trading-gamers/internal/config"
	"github.com/LBIT2016/trading-gamers/internal/factory"
)

var (
	cfg      *Config
	settings *config.Config
	app      *factory.App
	out      *Output
	logger   *slog.Logger
	closeLog func() error
)

var errMemoryStorage = errors.New("memory storage is lost when the command exits; use file, redis or postgres (memory works with serve)")

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "market",
		Short: "Trading Gamers marketplace client",
		Long: `market is the client of the Trading Gamers marketplace.

Each command loads the shared user and listing documents from the configured
sync backend, restores the saved session and performs one action. Changes are
pushed back so every other client sees them. By default the documents are
files under the data directory; redis and postgres share them across machines.
"market serve" keeps the client running behind a local web app instead.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if settings, err = config.Read(); err != nil {
				return err
			}
			if err := cfg.Apply(cmd, settings); err != nil {
				return err
			}
			// A memory backend dies with the process, so only a long-running
			// command can use it
			if settings.Storage == config.StorageMemory && cmd.Name() != "serve" {
				return errMemoryStorage
			}
			if cfg.Output != "text" && cfg.Output != "json" {
				return fmt.Errorf("invalid output format %q: must be text or json", cfg.Output)
			}

			out = NewOutput(cfg.Output, cmd.OutOrStdout())
			logger, closeLog = settings.NewLogger(cmd.ErrOrStderr(), false)

			app, err = factory.New(cmd.Context(), factory.FromEnv(settings, logger))
			if err != nil {
				_ = closeLog()
				return err
			}
			return app.Start(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return shutdown()
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.Storage, "storage", "", "Sync backend: file, memory (serve only), redis, postgres (env: MARKET_STORAGE)")
	rootCmd.PersistentFlags().StringVar(&cfg.RedisURL, "redis-url", "", "Redis URL (env: REDIS_URL)")
	rootCmd.PersistentFlags().StringVar(&cfg.DatabaseURL, "database-url", "", "Postgres URL (env: DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&cfg.DataDir, "data-dir", "", "Directory for the local session and file documents (env: MARKET_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "", "Log level: debug, info, warn, error (env: MARKET_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newListingCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

// shutdown stops synchronization and flushes the log file
func shutdown() error {
	var err error
	if app != nil {
		err = app.Close()
		app = nil
	}
	if closeLog != nil {
		if cerr := closeLog(); err == nil {
			err = cerr
		}
		closeLog = nil
	}
	return err
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails
	_ = shutdown()
	if err != nil {
		os.Exit(1)
	}
}
