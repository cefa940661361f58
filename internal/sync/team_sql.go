package sync

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/scoracle/nba-core/internal/model"
)

const insertTeamSQL = `
INSERT INTO teams (
	team_id, abbreviation, nickname, year_founded, city, arena, arena_capacity,
	owner, general_manager, head_coach, dleague_affiliation, team_slug, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())`

const updateTeamSQL = `
UPDATE teams SET
	abbreviation = $2, nickname = $3, year_founded = $4, city = $5, arena = $6,
	arena_capacity = $7, owner = $8, general_manager = $9, head_coach = $10,
	dleague_affiliation = $11, team_slug = $12, updated_at = now()
WHERE team_id = $1`

func upsertTeam(ctx context.Context, tx pgx.Tx, t model.Team) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM teams WHERE team_id = $1)`, t.TeamID).Scan(&exists); err != nil {
		return err
	}

	args := []any{
		t.TeamID, t.Abbreviation, t.Nickname, t.YearFounded, t.City, t.Arena,
		t.ArenaCapacity, t.Owner, t.GeneralManager, t.HeadCoach, t.DLeagueAffiliation, t.TeamSlug,
	}

	if exists {
		_, err := tx.Exec(ctx, updateTeamSQL, args...)
		return err
	}
	_, err := tx.Exec(ctx, insertTeamSQL, args...)
	return err
}
