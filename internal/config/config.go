package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config keeps runtime settings for the server.
type Config struct {
	Addr     string
	Database string
	LogLevel slog.Level
	CacheTTL time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	cfg := Config{
		Addr:     strings.TrimSpace(os.Getenv("JARVIS_ADDR")),
		Database: strings.TrimSpace(os.Getenv("JARVIS_DB")),
		LogLevel: parseLevel(strings.TrimSpace(os.Getenv("JARVIS_LOG_LEVEL"))),
		CacheTTL: parseTTL(strings.TrimSpace(os.Getenv("JARVIS_CACHE_TTL"))),
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Database == "" {
		cfg.Database = "jarvis.db"
	}
	return cfg
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseTTL(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}
