package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scoracle/nba-core/internal/fetcher/player"
	"github.com/scoracle/nba-core/internal/model"
)

// PlayerSync upserts the league-wide roster into the players table.
//
// Grounded on spec.md §4.6 PlayerSync and nba/fetcher/player_fetcher.py.
type PlayerSync struct {
	pool    *pgxpool.Pool
	fetcher *player.Fetcher
	logger  *slog.Logger
}

// NewPlayerSync builds a PlayerSync.
func NewPlayerSync(pool *pgxpool.Pool, f *player.Fetcher, logger *slog.Logger) *PlayerSync {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlayerSync{pool: pool, fetcher: f, logger: logger}
}

type commonAllPlayersPayload struct {
	ResultSets []resultSet `json:"resultSets"`
}

// parseRoster extracts Player rows from the commonallplayers CommonAllPlayers
// result set.
func parseRoster(raw json.RawMessage) ([]model.Player, error) {
	var payload commonAllPlayersPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode roster payload: %w", err)
	}

	var rs *resultSet
	for i := range payload.ResultSets {
		if payload.ResultSets[i].Name == "CommonAllPlayers" {
			rs = &payload.ResultSets[i]
			break
		}
	}
	if rs == nil {
		return nil, fmt.Errorf("missing CommonAllPlayers result set")
	}

	colIdx := make(map[string]int, len(rs.Headers))
	for i, h := range rs.Headers {
		colIdx[h] = i
	}
	col := func(row []any, name string) any {
		if i, ok := colIdx[name]; ok && i < len(row) {
			return row[i]
		}
		return nil
	}

	rows := make([]model.Player, 0, len(rs.RowSet))
	for _, r := range rs.RowSet {
		p := model.Player{
			PersonID:              asInt(col(r, "PERSON_ID")),
			DisplayLastCommaFirst: asString(col(r, "DISPLAY_LAST_COMMA_FIRST")),
			DisplayFirstLast:      asString(col(r, "DISPLAY_FIRST_LAST")),
			RosterStatus:          asInt(col(r, "ROSTERSTATUS")),
			FromYear:              asString(col(r, "FROM_YEAR")),
			ToYear:                asString(col(r, "TO_YEAR")),
			PlayerSlug:            asString(col(r, "PLAYER_SLUG")),
			GamesPlayedFlag:       asString(col(r, "GAMES_PLAYED_FLAG")),
		}
		if teamID := asInt(col(r, "TEAM_ID")); teamID != 0 {
			p.TeamID = &teamID
		}
		rows = append(rows, p)
	}
	return rows, nil
}

// Sync fetches the league-wide roster and upserts it, short-circuiting when
// force is false and the players table already has rows.
func (s *PlayerSync) Sync(ctx context.Context, season string, force bool) (Result, error) {
	if !force {
		var n int
		if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM players`).Scan(&n); err != nil {
			return Result{}, fmt.Errorf("check existing players: %w", err)
		}
		if n > 0 {
			s.logger.Info("players already populated, skipping", "existing", n)
			return success(n, nil), nil
		}
	}

	raw, err := s.fetcher.GetAllPlayers(ctx, season, false)
	if err != nil {
		return Result{}, fmt.Errorf("fetch roster for season %s: %w", season, err)
	}

	rows, err := parseRoster(raw)
	if err != nil {
		return Result{}, fmt.Errorf("parse roster for season %s: %w", season, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var errs []string
	imported := 0
	for _, p := range rows {
		if err := upsertPlayer(ctx, tx, p); err != nil {
			errs = append(errs, fmt.Sprintf("player %d: %v", p.PersonID, err))
			continue
		}
		imported++
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit player import: %w", err)
	}

	s.logger.Info("player sync complete", "imported", imported, "errors", len(errs))
	return success(imported, errs), nil
}

const insertPlayerSQL = `
INSERT INTO players (
	person_id, display_last_comma_first, display_first_last, roster_status,
	from_year, to_year, player_slug, team_id, games_played_flag, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`

const updatePlayerSQL = `
UPDATE players SET
	display_last_comma_first = $2, display_first_last = $3, roster_status = $4,
	from_year = $5, to_year = $6, player_slug = $7, team_id = $8,
	games_played_flag = $9, updated_at = now()
WHERE person_id = $1`

func upsertPlayer(ctx context.Context, tx pgx.Tx, p model.Player) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM players WHERE person_id = $1)`, p.PersonID).Scan(&exists); err != nil {
		return err
	}

	args := []any{
		p.PersonID, p.DisplayLastCommaFirst, p.DisplayFirstLast, p.RosterStatus,
		p.FromYear, p.ToYear, p.PlayerSlug, p.TeamID, p.GamesPlayedFlag,
	}

	if exists {
		_, err := tx.Exec(ctx, updatePlayerSQL, args...)
		return err
	}
	_, err := tx.Exec(ctx, insertPlayerSQL, args...)
	return err
}
