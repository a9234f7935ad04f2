package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("MARKET_DATA_DIR", "")
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, StorageFile, cfg.Storage)
	assert.Equal(t, 5*time.Second, cfg.SyncTimeout)
	assert.Equal(t, "admin123", cfg.AdminCredential)
	assert.False(t, cfg.HashCredentials)
	assert.Equal(t, ImagesPlaceholder, cfg.ImageBackend)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.CORSOrigins)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("MARKET_STORAGE", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/2")
	t.Setenv("MARKET_SYNC_TIMEOUT", "250ms")
	t.Setenv("MARKET_HASH_CREDENTIALS", "true")
	t.Setenv("MARKET_DATA_DIR", "/tmp/market")
	t.Setenv("MARKET_CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, StorageRedis, cfg.Storage)
	assert.Equal(t, "redis://cache:6379/2", cfg.RedisURL)
	assert.Equal(t, 250*time.Millisecond, cfg.SyncTimeout)
	assert.True(t, cfg.HashCredentials)
	assert.Equal(t, "/tmp/market", cfg.DataDir)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown storage", map[string]string{"MARKET_STORAGE": "sqlite"}},
		{"postgres without url", map[string]string{"MARKET_STORAGE": "postgres"}},
		{"s3 without bucket", map[string]string{"MARKET_IMAGE_BACKEND": "s3"}},
		{"unknown image backend", map[string]string{"MARKET_IMAGE_BACKEND": "ftp"}},
		{"bad level", map[string]string{"MARKET_LOG_LEVEL": "loud"}},
		{"zero timeout", map[string]string{"MARKET_SYNC_TIMEOUT": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}

func TestValidateFileStorageNeedsDataDir(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)
	require.Equal(t, StorageFile, cfg.Storage)

	cfg.DataDir = ""
	assert.ErrorContains(t, cfg.Validate(), "MARKET_DATA_DIR")
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MARKET_LOG_LEVEL=debug\n"), 0600))
	t.Chdir(dir)
	// Registered so the variable godotenv sets is restored afterwards
	t.Setenv("MARKET_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("MARKET_LOG_LEVEL"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogLevel: "warn"}
	var buf bytes.Buffer
	logger, closer := cfg.NewLogger(&buf, false)
	defer func() { _ = closer() }()

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "k=v")
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.log")
	cfg := &Config{LogLevel: "debug", LogFile: path}
	logger, closer := cfg.NewLogger(nil, false)

	logger.Debug("to file")
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestReadSkipsValidation(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MARKET_STORAGE", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)

	cfg, err := Read()
	require.NoError(t, err)
	cfg.DatabaseURL = "postgres://localhost/market"
	assert.NoError(t, cfg.Validate())
}
