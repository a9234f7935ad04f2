// Package config reads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Image backends
const (
	ImagesPlaceholder = "placeholder"
	ImagesS3          = "s3"
)

// Config holds all settings parsed from environment variables.
type Config struct {
	// Synchronization backend
	Storage     string        `env:"MARKET_STORAGE" envDefault:"file"`
	RedisURL    string        `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	RedisPrefix string        `env:"MARKET_REDIS_PREFIX" envDefault:"tgmarket"`
	DatabaseURL string        `env:"DATABASE_URL"`
	SyncTimeout time.Duration `env:"MARKET_SYNC_TIMEOUT" envDefault:"5s"`

	// Local client state, and the shared documents of the file backend
	DataDir string `env:"MARKET_DATA_DIR"`

	// Logging
	LogLevel string `env:"MARKET_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"MARKET_LOG_FILE"`

	// Credentials
	HashCredentials bool   `env:"MARKET_HASH_CREDENTIALS" envDefault:"false"`
	AdminCredential string `env:"MARKET_ADMIN_CREDENTIAL" envDefault:"admin123"`

	// Images
	ImageBackend      string `env:"MARKET_IMAGE_BACKEND" envDefault:"placeholder"`
	S3Bucket          string `env:"MARKET_S3_BUCKET"`
	S3Region          string `env:"MARKET_S3_REGION" envDefault:"auto"`
	S3Endpoint        string `env:"MARKET_S3_ENDPOINT"`
	S3AccessKeyID     string `env:"MARKET_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"MARKET_S3_SECRET_ACCESS_KEY"`
	S3PublicBaseURL   string `env:"MARKET_S3_PUBLIC_BASE_URL"`

	// Local HTTP app
	HTTPAddr    string   `env:"MARKET_HTTP_ADDR" envDefault:"127.0.0.1:8080"`
	CORSOrigins []string `env:"MARKET_CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:8080"`
}

// Load reads an optional .env file and then the environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Read is Load without validation, for callers that override settings
// before validating them
func Read() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return parse()
}

// Parse reads the environment only
func Parse() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	return cfg, nil
}

// Validate checks option values
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageFile:
		if c.DataDir == "" {
			return errors.New("MARKET_DATA_DIR is required when MARKET_STORAGE=file")
		}
	case StorageMemory, StorageRedis:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when MARKET_STORAGE=postgres")
		}
	default:
		return fmt.Errorf("invalid MARKET_STORAGE %q: must be file, memory, redis or postgres", c.Storage)
	}

	switch c.ImageBackend {
	case ImagesPlaceholder:
	case ImagesS3:
		if c.S3Bucket == "" {
			return errors.New("MARKET_S3_BUCKET is required when MARKET_IMAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("invalid MARKET_IMAGE_BACKEND %q: must be placeholder or s3", c.ImageBackend)
	}

	if c.SyncTimeout <= 0 {
		return errors.New("MARKET_SYNC_TIMEOUT must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trading-gamers"
	}
	return filepath.Join(home, ".trading-gamers")
}

// normalize lowercases a free-form option
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
