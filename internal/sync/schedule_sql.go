package sync

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/scoracle/nba-core/internal/model"
)

const insertGameSQL = `
INSERT INTO games (
	game_id, game_code, game_status, game_status_text,
	game_date_est, game_time_est, game_date_time_est,
	game_date_utc, game_time_utc, game_date_time_utc,
	game_date, season_year, week_number, week_name,
	series_game_number, if_necessary, series_text,
	arena_name, arena_city, arena_state, arena_is_neutral,
	home_team_id, home_team_name, home_team_city, home_team_tricode,
	home_team_slug, home_team_wins, home_team_losses, home_team_score, home_team_seed,
	away_team_id, away_team_name, away_team_city, away_team_tricode,
	away_team_slug, away_team_wins, away_team_losses, away_team_score, away_team_seed,
	points_leader_id, points_leader_first_name, points_leader_last_name,
	points_leader_team_id, points_leader_points,
	game_type, game_sub_type, game_label, game_sub_label, postponed_status,
	game_date_bjs, game_time_bjs, game_date_time_bjs,
	updated_at
) VALUES (
	$1, $2, $3, $4,
	$5, $6, $7,
	$8, $9, $10,
	$11, $12, $13, $14,
	$15, $16, $17,
	$18, $19, $20, $21,
	$22, $23, $24, $25,
	$26, $27, $28, $29, $30,
	$31, $32, $33, $34,
	$35, $36, $37, $38, $39,
	$40, $41, $42,
	$43, $44,
	$45, $46, $47, $48, $49,
	$50, $51, $52,
	now()
)`

const updateGameSQL = `
UPDATE games SET
	game_code = $2, game_status = $3, game_status_text = $4,
	game_date_est = $5, game_time_est = $6, game_date_time_est = $7,
	game_date_utc = $8, game_time_utc = $9, game_date_time_utc = $10,
	game_date = $11, season_year = $12, week_number = $13, week_name = $14,
	series_game_number = $15, if_necessary = $16, series_text = $17,
	arena_name = $18, arena_city = $19, arena_state = $20, arena_is_neutral = $21,
	home_team_id = $22, home_team_name = $23, home_team_city = $24, home_team_tricode = $25,
	home_team_slug = $26, home_team_wins = $27, home_team_losses = $28, home_team_score = $29, home_team_seed = $30,
	away_team_id = $31, away_team_name = $32, away_team_city = $33, away_team_tricode = $34,
	away_team_slug = $35, away_team_wins = $36, away_team_losses = $37, away_team_score = $38, away_team_seed = $39,
	points_leader_id = $40, points_leader_first_name = $41, points_leader_last_name = $42,
	points_leader_team_id = $43, points_leader_points = $44,
	game_type = $45, game_sub_type = $46, game_label = $47, game_sub_label = $48, postponed_status = $49,
	game_date_bjs = $50, game_time_bjs = $51, game_date_time_bjs = $52,
	updated_at = now()
WHERE game_id = $1`

func gameArgs(row model.Game) []any {
	var plID, plTeamID any
	var plFirst, plLast string
	var plPoints any
	if row.PointsLeader != nil {
		plID = row.PointsLeader.PersonID
		plTeamID = row.PointsLeader.TeamID
		plFirst = row.PointsLeader.FirstName
		plLast = row.PointsLeader.LastName
		plPoints = row.PointsLeader.Points
	}

	return []any{
		row.GameID, row.GameCode, row.GameStatus, row.GameStatusText,
		row.GameDateEST, row.GameTimeEST, row.GameDateTimeEST,
		row.GameDateUTC, row.GameTimeUTC, row.GameDateTimeUTC,
		row.GameDate, row.SeasonYear, row.WeekNumber, row.WeekName,
		row.SeriesGameNumber, row.IfNecessary, row.SeriesText,
		row.ArenaName, row.ArenaCity, row.ArenaState, row.ArenaIsNeutral,
		row.Home.TeamID, row.Home.Name, row.Home.City, row.Home.Tricode,
		row.Home.Slug, row.Home.Wins, row.Home.Losses, row.Home.Score, row.Home.Seed,
		row.Away.TeamID, row.Away.Name, row.Away.City, row.Away.Tricode,
		row.Away.Slug, row.Away.Wins, row.Away.Losses, row.Away.Score, row.Away.Seed,
		plID, plFirst, plLast, plTeamID, plPoints,
		row.GameType, row.GameSubType, row.GameLabel, row.GameSubLabel, row.PostponedStatus,
		row.GameDateBJS, row.GameTimeBJS, row.GameDateTimeBJS,
	}
}

func insertGame(ctx context.Context, tx pgx.Tx, row model.Game) error {
	_, err := tx.Exec(ctx, insertGameSQL, gameArgs(row)...)
	return err
}

func updateGame(ctx context.Context, tx pgx.Tx, row model.Game) error {
	_, err := tx.Exec(ctx, updateGameSQL, gameArgs(row)...)
	return err
}
