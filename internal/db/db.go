// Package db provides a pgxpool-based connection pool with prepared
// statement registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scoracle/nba-core/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers the small set of statements hit
// repeatedly by the read API: table-existence checks, exact name lookups,
// and the "today/next/last" game dispatch. Sync writes go through ad hoc
// SQL in internal/sync instead, since each batch upsert only runs once per
// sync pass and gains nothing from a cached plan.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		"health_check": "SELECT 1",

		"teams_count":   "SELECT count(*) FROM teams",
		"players_count": "SELECT count(*) FROM players",
		"games_count":   "SELECT count(*) FROM games",

		"team_exact_lookup": `
			SELECT team_id FROM teams
			WHERE lower(abbreviation) = lower($1)
			   OR lower(nickname) = lower($1)
			   OR lower(city || ' ' || nickname) = lower($1)
			   OR lower(team_slug) = lower($1)
			ORDER BY CASE
				WHEN lower(abbreviation) = lower($1) THEN 0
				WHEN lower(nickname) = lower($1) THEN 1
				WHEN lower(city || ' ' || nickname) = lower($1) THEN 2
				ELSE 3
			END
			LIMIT 1`,
		"team_name_by_id": "SELECT city, nickname, abbreviation FROM teams WHERE team_id = $1",

		"player_substring_lookup": `
			SELECT person_id, display_first_last FROM players
			WHERE display_first_last ILIKE '%' || $1 || '%'`,
		"player_name_by_id": "SELECT display_first_last, display_last_comma_first FROM players WHERE person_id = $1",

		"game_for_team_on_date": `
			SELECT game_id FROM games
			WHERE (home_team_id = $1 OR away_team_id = $1) AND game_date_bjs = $2
			LIMIT 1`,
		"game_for_team_next": `
			SELECT game_id FROM games
			WHERE (home_team_id = $1 OR away_team_id = $1) AND game_status = $2
			ORDER BY game_date_time_utc ASC LIMIT 1`,
		"game_for_team_last": `
			SELECT game_id FROM games
			WHERE (home_team_id = $1 OR away_team_id = $1) AND game_status = $2
			ORDER BY game_date_time_utc DESC LIMIT 1`,

		"games_by_date": `
			SELECT game_id, home_team_id, away_team_id, game_status, game_status_text, game_type
			FROM games WHERE game_date_bjs = $1 ORDER BY game_date_time_utc ASC`,
		"games_by_team": `
			SELECT game_id, home_team_id, away_team_id, game_status, game_status_text, game_type
			FROM games WHERE home_team_id = $1 OR away_team_id = $1
			ORDER BY game_date_time_utc DESC LIMIT $2`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
