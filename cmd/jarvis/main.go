package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/lfroes/jarvis/agenda"
	"github.com/lfroes/jarvis/httpapi"
	"github.com/lfroes/jarvis/internal/config"
	"github.com/lfroes/jarvis/recurrence"
	"github.com/lfroes/jarvis/storage"
	"github.com/lfroes/jarvis/storage/gormstore"
	"github.com/lfroes/jarvis/tasks"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	db, err := gormstore.Open(cfg.Database)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	cacheConfig := storage.DefaultCacheConfig
	if cfg.CacheTTL > 0 {
		cacheConfig.TTL = cfg.CacheTTL
	}
	store := storage.NewCachedStore(db, cacheConfig)
	defer store.Close()

	engine := recurrence.NewEngine(logger)
	aggregator := agenda.New(engine, logger)
	service := tasks.NewService(store, aggregator, logger)
	router := httpapi.NewRouter(service, logger)

	logger.Info("listening", "addr", cfg.Addr, "database", cfg.Database)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
