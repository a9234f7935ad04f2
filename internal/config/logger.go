package config

import (
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel converts a level name to a slog level
func ParseLevel(name string) (slog.Level, error) {
	switch normalize(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid MARKET_LOG_LEVEL %q", name)
	}
}

// NewLogger builds the application logger. Output goes to w, or to a
// rotating file when LogFile is set. The returned closer releases the file.
func (c *Config) NewLogger(w io.Writer, json bool) (*slog.Logger, func() error) {
	level, _ := ParseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}

	closer := func() error { return nil }
	if c.LogFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		w = rotating
		json = true
		closer = rotating.Close
	}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), closer
}
