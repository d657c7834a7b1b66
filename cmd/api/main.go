// Command api is the startsit-data API server: health checks, cron-triggered
// sync entry points, and the start/bench recommendations endpoint.
//
// Usage:
//
//	startsit-api
//	API_PORT=8080 startsit-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/startsit/startsit-data/internal/api"
	"github.com/startsit/startsit-data/internal/cache"
	"github.com/startsit/startsit-data/internal/config"
	"github.com/startsit/startsit-data/internal/db"
	"github.com/startsit/startsit-data/internal/maintenance"
	"github.com/startsit/startsit-data/internal/provider/gridiron"
	"github.com/startsit/startsit-data/internal/recommend"
	"github.com/startsit/startsit-data/internal/store"
	"github.com/startsit/startsit-data/internal/sync"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Wire the pipeline
	repo := store.New(pool)
	client := gridiron.NewClient(cfg.GridironBaseURL, cfg.GridironAPIKey,
		cfg.GridironRPM, cfg.GridironMaxRetries, cfg.GridironBaseDelay, logger)
	syncer := sync.New(client, repo, logger)
	engine := recommend.New(repo, logger)

	// Start maintenance tickers (log retention, weekly sweep)
	go maintenance.Start(ctx, repo, maintenance.DefaultConfig(), logger)

	// Create router
	router := api.NewRouter(pool, appCache, cfg, syncer, engine)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // inline cron syncs can run long
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Startsit Data API",
			"addr", addr,
			"environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
