// Package syncmanager implements the top-level façade over the three
// synchronizers, matching spec.md §4.8.
package syncmanager

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scoracle/nba-core/internal/fetcher/schedule"
	"github.com/scoracle/nba-core/internal/sync"
)

// Kind enumerates the resource families Sync accepts.
type Kind string

const (
	KindTeams    Kind = "teams"
	KindPlayers  Kind = "players"
	KindSchedule Kind = "schedule"
	KindAll      Kind = "all"
)

// Manager composes the three synchronizers into the bootstrap/incremental
// operations spec.md §4.8 describes.
type Manager struct {
	pool           *pgxpool.Pool
	scheduleSync   *sync.ScheduleSync
	teamSync       *sync.TeamSync
	playerSync     *sync.PlayerSync
	currentSeason  string
	startSeason    string
	logger         *slog.Logger
}

// New builds a Manager from its three synchronizers.
func New(pool *pgxpool.Pool, scheduleSync *sync.ScheduleSync, teamSync *sync.TeamSync, playerSync *sync.PlayerSync, currentSeason, startSeason string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		pool: pool, scheduleSync: scheduleSync, teamSync: teamSync, playerSync: playerSync,
		currentSeason: currentSeason, startSeason: startSeason, logger: logger,
	}
}

// Summary is the status envelope every top-level operation returns.
type Summary struct {
	Status string                 `json:"status"`
	Counts map[string]int         `json:"counts"`
	Errors []string               `json:"errors,omitempty"`
}

func newSummary() Summary {
	return Summary{Status: "success", Counts: make(map[string]int)}
}

func (s *Summary) absorb(name string, r sync.Result, err error) {
	if err != nil {
		s.Status = "error"
		s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", name, err))
		return
	}
	s.Counts[name] = r.Count
	if len(r.Errors) > 0 {
		s.Errors = append(s.Errors, r.Errors...)
	}
	if r.Status == "error" {
		s.Status = "error"
	}
}

// IsFirstRun reports whether any of the three core tables is empty.
func (m *Manager) IsFirstRun(ctx context.Context) (bool, error) {
	for _, stmt := range []string{"teams_count", "players_count", "games_count"} {
		var n int
		if err := m.pool.QueryRow(ctx, stmt).Scan(&n); err != nil {
			return false, fmt.Errorf("check %s: %w", stmt, err)
		}
		if n == 0 {
			return true, nil
		}
	}
	return false, nil
}

// InitialDataSync bootstraps an empty store: teams, then players, then the
// current season's schedule.
func (m *Manager) InitialDataSync(ctx context.Context) (Summary, error) {
	summary := newSummary()

	teamResult, err := m.teamSync.Sync(ctx, nil, false)
	summary.absorb("teams", teamResult, err)

	playerResult, err := m.playerSync.Sync(ctx, m.currentSeason, false)
	summary.absorb("players", playerResult, err)

	scheduleResult, err := m.scheduleSync.Sync(ctx, m.currentSeason, false)
	summary.absorb("schedule", scheduleResult, err)

	m.logger.Info("initial data sync complete", "status", summary.Status, "counts", summary.Counts)
	return summary, nil
}

// NewSeasonSync force-refreshes all three resource families, used when a
// new season begins and every cached/stored value must be treated as
// stale. An empty season defaults to the manager's configured current
// season.
func (m *Manager) NewSeasonSync(ctx context.Context, season string) (Summary, error) {
	if season == "" {
		season = m.currentSeason
	}
	summary := newSummary()

	teamResult, err := m.teamSync.Sync(ctx, nil, true)
	summary.absorb("teams", teamResult, err)

	playerResult, err := m.playerSync.Sync(ctx, season, true)
	summary.absorb("players", playerResult, err)

	scheduleResult, err := m.scheduleSync.Sync(ctx, season, true)
	summary.absorb("schedule", scheduleResult, err)

	m.logger.Info("new season sync complete", "season", season, "status", summary.Status, "counts", summary.Counts)
	return summary, nil
}

// SyncCurrentSeason force-refreshes only the schedule for the current
// season.
func (m *Manager) SyncCurrentSeason(ctx context.Context) (Summary, error) {
	summary := newSummary()
	result, err := m.scheduleSync.Sync(ctx, m.currentSeason, true)
	summary.absorb("schedule", result, err)
	return summary, nil
}

// Sync dispatches to the named resource family (or all three) with the
// given force flag.
func (m *Manager) Sync(ctx context.Context, kind Kind, force bool) (Summary, error) {
	summary := newSummary()

	switch kind {
	case KindTeams:
		r, err := m.teamSync.Sync(ctx, nil, force)
		summary.absorb("teams", r, err)
	case KindPlayers:
		r, err := m.playerSync.Sync(ctx, m.currentSeason, force)
		summary.absorb("players", r, err)
	case KindSchedule:
		r, err := m.scheduleSync.Sync(ctx, m.currentSeason, force)
		summary.absorb("schedule", r, err)
	case KindAll:
		tr, err := m.teamSync.Sync(ctx, nil, force)
		summary.absorb("teams", tr, err)
		pr, err := m.playerSync.Sync(ctx, m.currentSeason, force)
		summary.absorb("players", pr, err)
		sr, err := m.scheduleSync.Sync(ctx, m.currentSeason, force)
		summary.absorb("schedule", sr, err)
	default:
		return Summary{}, fmt.Errorf("unknown sync kind %q", kind)
	}

	return summary, nil
}

// AllSeasons exposes the schedule package's season sequence helper for
// callers that need to sweep every historical season.
func (m *Manager) AllSeasons() ([]string, error) {
	return schedule.AllSeasons(m.startSeason, m.currentSeason)
}

// SyncAllSeasons walks every season from startSeason through currentSeason,
// syncing the schedule for each.
func (m *Manager) SyncAllSeasons(ctx context.Context, force bool) (Summary, error) {
	seasons, err := m.AllSeasons()
	if err != nil {
		return Summary{}, fmt.Errorf("compute season sequence: %w", err)
	}

	summary := newSummary()
	total := 0
	for _, season := range seasons {
		r, err := m.scheduleSync.Sync(ctx, season, force)
		if err != nil {
			summary.Status = "error"
			summary.Errors = append(summary.Errors, fmt.Sprintf("season %s: %v", season, err))
			continue
		}
		total += r.Count
		summary.Errors = append(summary.Errors, r.Errors...)
	}
	summary.Counts["schedule"] = total
	return summary, nil
}
