package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scoracle/nba-core/internal/fetcher/schedule"
	"github.com/scoracle/nba-core/internal/gametype"
	"github.com/scoracle/nba-core/internal/model"
	"github.com/scoracle/nba-core/internal/timeutil"
)

// ScheduleSync upserts a season's schedule into the games table.
//
// Grounded on nba/database/nba_base/schedule_sync.py's
// sync_all_seasons/_parse_schedule_data/_import_schedules.
type ScheduleSync struct {
	pool    *pgxpool.Pool
	fetcher *schedule.Fetcher
	logger  *slog.Logger
}

// NewScheduleSync builds a ScheduleSync.
func NewScheduleSync(pool *pgxpool.Pool, f *schedule.Fetcher, logger *slog.Logger) *ScheduleSync {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleSync{pool: pool, fetcher: f, logger: logger}
}

// --------------------------------------------------------------------------
// Vendor payload shape (camelCase, as delivered by scheduleleaguev2)
// --------------------------------------------------------------------------

type vendorSchedule struct {
	LeagueSchedule struct {
		SeasonYear string `json:"seasonYear"`
		GameDates  []struct {
			Games []vendorGame `json:"games"`
		} `json:"gameDates"`
	} `json:"leagueSchedule"`
}

type vendorTeam struct {
	TeamID   int    `json:"teamId"`
	TeamName string `json:"teamName"`
	TeamCity string `json:"teamCity"`
	Tricode  string `json:"teamTricode"`
	TeamSlug string `json:"teamSlug"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Score    int    `json:"score"`
	Seed     int    `json:"seed"`
}

type vendorPointsLeader struct {
	PersonID  int     `json:"personId"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	TeamID    int     `json:"teamId"`
	Points    float64 `json:"points"`
}

type vendorGame struct {
	GameID           string               `json:"gameId"`
	GameCode         string               `json:"gameCode"`
	GameStatus       int                  `json:"gameStatus"`
	GameStatusText   string               `json:"gameStatusText"`
	GameDateEst      string               `json:"gameDateEst"`
	GameTimeEst      string               `json:"gameTimeEst"`
	GameDateTimeEst  string               `json:"gameDateTimeEst"`
	GameDateUTC      string               `json:"gameDateUTC"`
	GameTimeUTC      string               `json:"gameTimeUTC"`
	GameDateTimeUTC  string               `json:"gameDateTimeUTC"`
	WeekNumber       int                  `json:"weekNumber"`
	WeekName         string               `json:"weekName"`
	SeriesGameNumber string               `json:"seriesGameNumber"`
	IfNecessary      bool                 `json:"ifNecessary"`
	SeriesText       string               `json:"seriesText"`
	ArenaName        string               `json:"arenaName"`
	ArenaCity        string               `json:"arenaCity"`
	ArenaState       string               `json:"arenaState"`
	IsNeutral        bool                 `json:"isNeutral"`
	HomeTeam         vendorTeam           `json:"homeTeam"`
	AwayTeam         vendorTeam           `json:"awayTeam"`
	PointsLeaders    []vendorPointsLeader `json:"pointsLeaders"`
	GameSubtype      string               `json:"gameSubtype"`
	GameLabel        string               `json:"gameLabel"`
	GameSubLabel     string               `json:"gameSubLabel"`
	PostponedStatus  string               `json:"postponedStatus"`
}

// parseSchedule converts the vendor payload into Game rows, deriving
// Beijing-local fields and game-type classification for each row.
func parseSchedule(raw json.RawMessage) ([]model.Game, error) {
	var payload vendorSchedule
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode schedule payload: %w", err)
	}

	var rows []model.Game
	for _, gd := range payload.LeagueSchedule.GameDates {
		for _, g := range gd.Games {
			row, err := parseGame(g, payload.LeagueSchedule.SeasonYear)
			if err != nil {
				// A single malformed game row is non-fatal; the original
				// source logs and continues rather than aborting the sync.
				continue
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func parseGame(g vendorGame, seasonYear string) (model.Game, error) {
	row := model.Game{
		GameID:           g.GameID,
		GameCode:         g.GameCode,
		GameStatus:       g.GameStatus,
		GameStatusText:   g.GameStatusText,
		GameDateEST:      g.GameDateEst,
		GameTimeEST:      g.GameTimeEst,
		GameDateUTC:      g.GameDateUTC,
		GameTimeUTC:      g.GameTimeUTC,
		GameDate:         g.GameDateEst,
		SeasonYear:       seasonYear,
		WeekNumber:       g.WeekNumber,
		WeekName:         g.WeekName,
		SeriesGameNumber: g.SeriesGameNumber,
		IfNecessary:      g.IfNecessary,
		SeriesText:       g.SeriesText,
		ArenaName:        g.ArenaName,
		ArenaCity:        g.ArenaCity,
		ArenaState:       g.ArenaState,
		ArenaIsNeutral:   g.IsNeutral,
		Home: model.TeamSnapshot{
			TeamID: g.HomeTeam.TeamID, Name: g.HomeTeam.TeamName, City: g.HomeTeam.TeamCity,
			Tricode: g.HomeTeam.Tricode, Slug: g.HomeTeam.TeamSlug,
			Wins: g.HomeTeam.Wins, Losses: g.HomeTeam.Losses, Score: g.HomeTeam.Score, Seed: g.HomeTeam.Seed,
		},
		Away: model.TeamSnapshot{
			TeamID: g.AwayTeam.TeamID, Name: g.AwayTeam.TeamName, City: g.AwayTeam.TeamCity,
			Tricode: g.AwayTeam.Tricode, Slug: g.AwayTeam.TeamSlug,
			Wins: g.AwayTeam.Wins, Losses: g.AwayTeam.Losses, Score: g.AwayTeam.Score, Seed: g.AwayTeam.Seed,
		},
		GameSubType:     g.GameSubtype,
		GameLabel:       g.GameLabel,
		GameSubLabel:    g.GameSubLabel,
		PostponedStatus: g.PostponedStatus,
		GameType:        gametype.Classify(g.SeriesText),
	}

	if len(g.PointsLeaders) > 0 {
		pl := g.PointsLeaders[0]
		row.PointsLeader = &model.PointsLeader{
			PersonID: pl.PersonID, FirstName: pl.FirstName, LastName: pl.LastName,
			TeamID: pl.TeamID, Points: pl.Points,
		}
	}

	// Timezone derivation is non-fatal: a malformed timestamp leaves the
	// Beijing fields zero-valued rather than aborting the row, matching
	// the original source's try/except around the conversion.
	if g.GameDateTimeEst != "" {
		if t, err := timeutil.ParseISODateTime(g.GameDateTimeEst); err == nil {
			row.GameDateTimeEST = t
		}
	}
	if g.GameDateTimeUTC != "" {
		if t, err := timeutil.ParseISODateTime(g.GameDateTimeUTC); err == nil {
			row.GameDateTimeUTC = t
			date, clock, full := timeutil.BeijingParts(t)
			row.GameDateBJS = date
			row.GameTimeBJS = clock
			row.GameDateTimeBJS = full
		}
	}

	return row, nil
}

// Sync fetches and upserts the schedule for season, short-circuiting when
// force is false and the season already has rows.
func (s *ScheduleSync) Sync(ctx context.Context, season string, force bool) (Result, error) {
	if !force {
		existing, err := s.existingCount(ctx, season)
		if err != nil {
			return Result{}, fmt.Errorf("check existing schedule rows: %w", err)
		}
		if existing > 0 {
			s.logger.Info("schedule already populated, skipping", "season", season, "existing", existing)
			return success(existing, nil), nil
		}
	}

	raw, err := s.fetcher.Get(ctx, season, force)
	if err != nil {
		return Result{}, fmt.Errorf("fetch schedule for season %s: %w", season, err)
	}

	rows, err := parseSchedule(raw)
	if err != nil {
		return Result{}, fmt.Errorf("parse schedule for season %s: %w", season, err)
	}

	return s.importRows(ctx, rows)
}

func (s *ScheduleSync) existingCount(ctx context.Context, season string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM games WHERE season_year = $1`, season).Scan(&n)
	return n, err
}

// importRows upserts every row inside a single transaction, committing once
// and rolling back entirely on a transaction-level failure. A single row's
// constraint violation is logged and skipped; it does not abort the batch.
func (s *ScheduleSync) importRows(ctx context.Context, rows []model.Game) (Result, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var errs []string
	imported := 0

	for _, row := range rows {
		sp, err := tx.Begin(ctx) // savepoint: a failed row must not poison the transaction
		if err != nil {
			return Result{}, fmt.Errorf("begin savepoint: %w", err)
		}

		var exists bool
		if err := sp.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM games WHERE game_id = $1)`, row.GameID).Scan(&exists); err != nil {
			_ = sp.Rollback(ctx)
			errs = append(errs, fmt.Sprintf("game %s: exists check: %v", row.GameID, err))
			continue
		}

		if exists {
			err = updateGame(ctx, sp, row)
		} else {
			err = insertGame(ctx, sp, row)
		}
		if err == nil {
			err = sp.Commit(ctx)
		}
		if err != nil {
			_ = sp.Rollback(ctx)
			errs = append(errs, fmt.Sprintf("game %s: %v", row.GameID, err))
			continue
		}
		imported++
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit schedule import: %w", err)
	}

	s.logger.Info("schedule import complete", "imported", imported, "errors", len(errs))
	return success(imported, errs), nil
}
