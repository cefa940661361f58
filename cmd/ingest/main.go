// Command ingest is the NBA data ingestion CLI.
//
// Usage:
//
//	nba-ingest sync teams
//	nba-ingest sync players
//	nba-ingest sync schedule --season 2024-25
//	nba-ingest sync all --force
//	nba-ingest sync seasons
//	nba-ingest logos
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/scoracle/nba-core/internal/cache"
	"github.com/scoracle/nba-core/internal/config"
	"github.com/scoracle/nba-core/internal/db"
	"github.com/scoracle/nba-core/internal/fetcher"
	"github.com/scoracle/nba-core/internal/fetcher/player"
	"github.com/scoracle/nba-core/internal/fetcher/schedule"
	"github.com/scoracle/nba-core/internal/fetcher/team"
	"github.com/scoracle/nba-core/internal/httpclient"
	"github.com/scoracle/nba-core/internal/sync"
	"github.com/scoracle/nba-core/internal/syncmanager"
)

const (
	statsBaseURL    = "https://" + config.HostStats + "/stats"
	scheduleBaseURL = "https://" + config.HostCDN + "/static/json/staticData"
	logoBaseURL     = "https://" + config.HostCDN + "/logos/nba/teams"
	earliestSeason  = "1946-47"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "nba-ingest",
		Short: "NBA data ingestion CLI",
	}

	root.AddCommand(syncCmd())
	root.AddCommand(logosCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// sync command
// --------------------------------------------------------------------------

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize teams, players, and schedule data",
	}
	cmd.AddCommand(syncTeamsCmd())
	cmd.AddCommand(syncPlayersCmd())
	cmd.AddCommand(syncScheduleCmd())
	cmd.AddCommand(syncAllCmd())
	cmd.AddCommand(syncSeasonsCmd())
	return cmd
}

func syncTeamsCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Sync team details for all 30 franchises",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(func(ctx context.Context, cfg *config.Config, mgr *syncmanager.Manager) error {
				return runSync(ctx, mgr, syncmanager.KindTeams, force)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Refresh even if teams are already populated")
	return cmd
}

func syncPlayersCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Sync the league-wide player roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(func(ctx context.Context, cfg *config.Config, mgr *syncmanager.Manager) error {
				return runSync(ctx, mgr, syncmanager.KindPlayers, force)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Refresh even if players are already populated")
	return cmd
}

func syncScheduleCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Sync the current season's schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(func(ctx context.Context, cfg *config.Config, mgr *syncmanager.Manager) error {
				return runSync(ctx, mgr, syncmanager.KindSchedule, force)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Refresh even if the season is already populated")
	return cmd
}

func syncAllCmd() *cobra.Command {
	var force, newSeason bool
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Sync teams, players, and schedule together",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(func(ctx context.Context, cfg *config.Config, mgr *syncmanager.Manager) error {
				start := time.Now()

				firstRun, err := mgr.IsFirstRun(ctx)
				if err != nil {
					return fmt.Errorf("check first run: %w", err)
				}

				var summary syncmanager.Summary
				switch {
				case firstRun:
					logger.Info("store is empty, running initial bootstrap")
					summary, err = mgr.InitialDataSync(ctx)
				case newSeason:
					logger.Info("forcing full new-season refresh", "season", cfg.CurrentSeason)
					summary, err = mgr.NewSeasonSync(ctx, cfg.CurrentSeason)
				default:
					summary, err = mgr.Sync(ctx, syncmanager.KindAll, force)
				}
				if err != nil {
					return err
				}

				logger.Info("sync all finished", "duration", time.Since(start).Round(time.Second),
					"status", summary.Status, "counts", summary.Counts)
				for _, e := range summary.Errors {
					logger.Warn("sync error", "detail", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Refresh even if already populated")
	cmd.Flags().BoolVar(&newSeason, "new-season", false, "Force-refresh all three as if a new season just began")
	return cmd
}

func syncSeasonsCmd() *cobra.Command {
	var from string
	var force bool
	cmd := &cobra.Command{
		Use:   "seasons",
		Short: "Sweep the schedule for every season from 1946-47 through the current one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(func(ctx context.Context, cfg *config.Config, mgr *syncmanager.Manager) error {
				start := time.Now()
				summary, err := mgr.SyncAllSeasons(ctx, force)
				if err != nil {
					return err
				}
				logger.Info("season sweep finished", "duration", time.Since(start).Round(time.Second),
					"games", summary.Counts["schedule"], "errors", len(summary.Errors))
				for _, e := range summary.Errors {
					logger.Warn("season sweep error", "detail", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", earliestSeason, "Accepted but not used: the sweep always starts at 1946-47")
	cmd.Flags().BoolVar(&force, "force", false, "Refresh seasons that already have rows")
	return cmd
}

// --------------------------------------------------------------------------
// logos command
// --------------------------------------------------------------------------

func logosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logos",
		Short: "Fetch and store team logo bytes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngestRaw(func(ctx context.Context, cfg *config.Config, pool *db.Pool, teamFetcher *team.Fetcher) error {
				teamSync := sync.NewTeamSync(pool.Pool, teamFetcher, logger)
				start := time.Now()
				result, err := teamSync.SyncLogos(ctx, logoBaseURL)
				if err != nil {
					return err
				}
				logger.Info("logo sync finished", "duration", time.Since(start).Round(time.Second),
					"updated", result.Count, "errors", len(result.Errors))
				return nil
			})
		},
	}
	return cmd
}

func runSync(ctx context.Context, mgr *syncmanager.Manager, kind syncmanager.Kind, force bool) error {
	start := time.Now()
	summary, err := mgr.Sync(ctx, kind, force)
	if err != nil {
		return err
	}
	logger.Info("sync finished", "kind", kind, "duration", time.Since(start).Round(time.Second),
		"status", summary.Status, "counts", summary.Counts)
	for _, e := range summary.Errors {
		logger.Warn("sync error", "detail", e)
	}
	if summary.Status == "error" {
		return fmt.Errorf("sync %s completed with errors", kind)
	}
	return nil
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runIngest handles config loading, DB connection, fetcher/synchronizer
// wiring, and context cancellation for the common case of running one
// SyncManager operation.
func runIngest(fn func(ctx context.Context, cfg *config.Config, mgr *syncmanager.Manager) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	store, err := cache.New(cfg.CacheRoot, logger)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
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

	mgr := syncmanager.New(
		pool.Pool,
		sync.NewScheduleSync(pool.Pool, scheduleFetcher, logger),
		sync.NewTeamSync(pool.Pool, teamFetcher, logger),
		sync.NewPlayerSync(pool.Pool, playerFetcher, logger),
		cfg.CurrentSeason,
		earliestSeason,
		logger,
	)

	return fn(ctx, cfg, mgr)
}

// runIngestRaw is runIngest's counterpart for commands that need a raw
// fetcher (logo sync) instead of the SyncManager façade.
func runIngestRaw(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool, teamFetcher *team.Fetcher) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	store, err := cache.New(cfg.CacheRoot, logger)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}

	client := httpclient.New(cfg.HTTPTimeout,
		httpclient.WithFallbacks(config.FallbackHosts),
		httpclient.WithLogger(logger),
	)
	base := fetcher.New(client, store, cfg.RootPath, logger)
	teamFetcher := team.New(base, statsBaseURL)

	return fn(ctx, cfg, pool, teamFetcher)
}
