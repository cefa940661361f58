// Package maintenance runs periodic background tasks as Go tickers rather
// than an external cron: cache sweeping and a live-day schedule resync,
// both of which need to run inside the same process as the rate-governed
// HTTP client and file cache they operate on.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/scoracle/nba-core/internal/cache"
	"github.com/scoracle/nba-core/internal/syncmanager"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CacheSweepInterval   time.Duration // remove cache entries older than CacheMaxAge
	CacheMaxAge          time.Duration
	ScheduleSyncInterval time.Duration // force-refresh the current season's schedule
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		CacheSweepInterval:   1 * time.Hour,
		CacheMaxAge:          24 * time.Hour,
		ScheduleSyncInterval: 15 * time.Minute,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, store *cache.Store, mgr *syncmanager.Manager, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"cache_sweep", cfg.CacheSweepInterval,
		"schedule_sync", cfg.ScheduleSyncInterval)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.CacheSweepInterval > 0 {
		t := time.NewTicker(cfg.CacheSweepInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "cache_sweep", func() { sweepCache(store, cfg.CacheMaxAge, logger) })
	}

	if cfg.ScheduleSyncInterval > 0 {
		t := time.NewTicker(cfg.ScheduleSyncInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "schedule_sync", func() { resyncSchedule(ctx, mgr, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, name string, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

func sweepCache(store *cache.Store, maxAge time.Duration, logger *slog.Logger) {
	removed, err := store.SweepExpired(maxAge)
	if err != nil {
		logger.Warn("cache sweep failed", "error", err)
		return
	}
	if removed > 0 {
		logger.Info("cache sweep removed expired entries", "count", removed)
	}
}

func resyncSchedule(ctx context.Context, mgr *syncmanager.Manager, logger *slog.Logger) {
	summary, err := mgr.SyncCurrentSeason(ctx)
	if err != nil {
		logger.Warn("schedule resync failed", "error", err)
		return
	}
	if summary.Status != "success" {
		logger.Warn("schedule resync completed with errors", "errors", summary.Errors)
		return
	}
	logger.Info("schedule resync complete", "games", summary.Counts["schedule"])
}
