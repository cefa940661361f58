// Command api is the NBA data core's read API server.
//
// Usage:
//
//	nba-api
//	API_PORT=8080 nba-api

// @title NBA Data Core API
// @version 1.0.0
// @description Read-only HTTP surface over the synced teams/players/games store.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
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

	"github.com/scoracle/nba-core/internal/api"
	"github.com/scoracle/nba-core/internal/cache"
	"github.com/scoracle/nba-core/internal/config"
	"github.com/scoracle/nba-core/internal/db"
	"github.com/scoracle/nba-core/internal/fetcher"
	"github.com/scoracle/nba-core/internal/fetcher/player"
	"github.com/scoracle/nba-core/internal/fetcher/schedule"
	"github.com/scoracle/nba-core/internal/fetcher/team"
	"github.com/scoracle/nba-core/internal/httpclient"
	"github.com/scoracle/nba-core/internal/maintenance"
	"github.com/scoracle/nba-core/internal/repository"
	"github.com/scoracle/nba-core/internal/sync"
	"github.com/scoracle/nba-core/internal/syncmanager"
)

const (
	statsBaseURL    = "https://" + config.HostStats + "/stats"
	scheduleBaseURL = "https://" + config.HostCDN + "/static/json/staticData"
	earliestSeason  = "1946-47"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger.Info("connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected", "min_conns", cfg.DBPoolMinConns, "max_conns", cfg.DBPoolMaxConns)

	store, err := cache.New(cfg.CacheRoot, logger)
	if err != nil {
		logger.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}

	client := httpclient.New(cfg.HTTPTimeout,
		httpclient.WithRetryPolicy(httpclient.RetryPolicy{
			MaxRetries:    cfg.MaxRetries,
			BaseDelay:     cfg.RetryBaseDelay,
			MaxDelay:      cfg.RetryMaxDelay,
			BackoffFactor: cfg.RetryBackoff,
			JitterFactor:  cfg.RetryJitter,
		}),
		httpclient.WithFallbacks(config.FallbackHosts),
		httpclient.WithLogger(logger),
	)

	base := fetcher.New(client, store, cfg.RootPath, logger)
	scheduleFetcher := schedule.New(base, scheduleBaseURL)
	teamFetcher := team.New(base, statsBaseURL)
	playerFetcher := player.New(base, statsBaseURL)

	repo := repository.New(pool.Pool)
	mgr := syncmanager.New(
		pool.Pool,
		sync.NewScheduleSync(pool.Pool, scheduleFetcher, logger),
		sync.NewTeamSync(pool.Pool, teamFetcher, logger),
		sync.NewPlayerSync(pool.Pool, playerFetcher, logger),
		cfg.CurrentSeason,
		earliestSeason,
		logger,
	)

	go maintenance.Start(ctx, store, mgr, maintenance.DefaultConfig(), logger)

	router := api.NewRouter(pool.Pool, repo, mgr, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting NBA data core API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
