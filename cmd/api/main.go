// Command api is the Iftar Push registration API server.
//
// Usage:
//
//	iftar-api
//	API_PORT=8080 iftar-api

// @title Iftar Push API
// @version 1.0.0
// @description Registration API for daily Maghrib (sunset) web-push notifications. Subscribers register a browser push endpoint with their coordinates and time zone; a sweep job delivers one notification per subscriber per local day.
// @host localhost:3000
// @BasePath /
// @schemes http https
// @contact.name Iftar Push
// @license.name MIT
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

	"github.com/albapepper/iftar-push/internal/api"
	"github.com/albapepper/iftar-push/internal/config"
	"github.com/albapepper/iftar-push/internal/db"
	"github.com/albapepper/iftar-push/internal/maghrib"
	"github.com/albapepper/iftar-push/internal/push"
	"github.com/albapepper/iftar-push/internal/subscription"
	"github.com/albapepper/iftar-push/internal/sweep"

	_ "github.com/albapepper/iftar-push/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireVAPID(); err != nil {
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

	if err := pool.InitSchema(ctx); err != nil {
		logger.Error("Failed to initialize schema", "error", err)
		os.Exit(1)
	}
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	store := subscription.NewStore(pool.Pool)
	dispatcher := push.NewDispatcher(cfg.VAPIDSubject, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.HTTPTimeout, logger)

	// Optional in-process sweep for deployments without an external cron
	if cfg.SweepInterval > 0 {
		resolver := maghrib.FromConfig(cfg, logger)
		sweeper := sweep.New(store, resolver, dispatcher, sweep.Config{
			WindowMinutes: cfg.WindowMinutes,
			Workers:       cfg.SweepWorkers,
		}, logger)
		go sweep.StartWorker(ctx, sweeper, cfg.SweepInterval, logger)
	} else {
		logger.Info("In-process sweep disabled (SWEEP_INTERVAL_MINUTES=0); expecting external cron")
	}

	// Create router
	router := api.NewRouter(store, dispatcher, pool, cfg, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Iftar Push API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
