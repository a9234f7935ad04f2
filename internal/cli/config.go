package cli

import (
	"github.com/spf13/cobra"

	"github.com/LBIT2016/trading-gamers/internal/config"
)

// Config holds CLI flag values. Flags the user set win over the environment.
type Config struct {
	Storage     string
	RedisURL    string
	DatabaseURL string
	DataDir     string
	LogLevel    string
	Output      string
	Verbose     bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Output:  "text",
		Verbose: false,
	}
}

// Apply copies explicitly set flags over the environment settings and
// validates the result
func (c *Config) Apply(cmd *cobra.Command, settings *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("storage") {
		settings.Storage = c.Storage
	}
	if flags.Changed("redis-url") {
		settings.RedisURL = c.RedisURL
	}
	if flags.Changed("database-url") {
		settings.DatabaseURL = c.DatabaseURL
	}
	if flags.Changed("data-dir") {
		settings.DataDir = c.DataDir
	}
	if flags.Changed("log-level") {
		settings.LogLevel = c.LogLevel
	}
	if c.Verbose {
		settings.LogLevel = "debug"
	}
	return settings.Validate()
}
