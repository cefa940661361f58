// Package repository implements the read-only lookup helpers over the
// teams/players/games tables, including the fuzzy name-matching fallback
// spec.md §4.7 calls for.
//
// Grounded on nba/fetcher/team.py's tiered lookup order and
// nba/parser/schedule_parser.py's get_game_id/get_upcoming_game_id/
// get_last_game_id.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/scoracle/nba-core/internal/model"
)

// Fuzzy-match acceptance thresholds. Both are unexplained magic numbers
// inherited verbatim from the system this was distilled from; they are not
// derived from any documented tuning process.
const (
	TeamFuzzyThreshold   = 70
	PlayerFuzzyThreshold = 50
)

// Repository provides read-only query methods over the relational store.
type Repository struct {
	pool *pgxpool.Pool
}

// New builds a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ratio returns a 0-100 similarity score between query and candidate using
// fuzzysearch's normalized subsequence ranking: a perfect subsequence match
// scores 100 minus a penalty proportional to the edit distance it took to
// get there.
func ratio(query, candidate string) int {
	dist := fuzzy.RankMatchNormalizedFold(query, candidate)
	if dist < 0 {
		return 0
	}
	maxLen := len(query)
	if len(candidate) > maxLen {
		maxLen = len(candidate)
	}
	if maxLen == 0 {
		return 100
	}
	score := 100 - (dist*100)/maxLen
	if score < 0 {
		return 0
	}
	return score
}

// --------------------------------------------------------------------------
// Team lookups
// --------------------------------------------------------------------------

// TeamIDByName resolves a team name to its id, trying exact matches on
// abbreviation, nickname, "{city} {nickname}", and slug in order before
// falling back to fuzzy-ratio matching.
func (r *Repository) TeamIDByName(ctx context.Context, name string) (int, bool, error) {
	var id int
	err := r.pool.QueryRow(ctx, "team_exact_lookup", name).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if err != pgx.ErrNoRows {
		return 0, false, fmt.Errorf("team exact lookup: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT team_id, city, nickname FROM teams`)
	if err != nil {
		return 0, false, fmt.Errorf("team fuzzy scan: %w", err)
	}
	defer rows.Close()

	bestID, bestScore := 0, -1
	for rows.Next() {
		var tid int
		var city, nickname string
		if err := rows.Scan(&tid, &city, &nickname); err != nil {
			continue
		}
		score := ratio(name, strings.TrimSpace(city+" "+nickname))
		if score > bestScore {
			bestScore = score
			bestID = tid
		}
	}
	if bestScore >= TeamFuzzyThreshold {
		return bestID, true, nil
	}
	return 0, false, nil
}

// TeamNameForm selects which rendering of a team name TeamNameByID returns.
type TeamNameForm int

const (
	TeamNameFull TeamNameForm = iota
	TeamNameNickname
	TeamNameCity
	TeamNameAbbreviation
)

// TeamNameByID renders a team's name in the requested form.
func (r *Repository) TeamNameByID(ctx context.Context, teamID int, form TeamNameForm) (string, bool, error) {
	var city, nickname, abbr string
	err := r.pool.QueryRow(ctx, "team_name_by_id", teamID).Scan(&city, &nickname, &abbr)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("team name lookup: %w", err)
	}

	switch form {
	case TeamNameNickname:
		return nickname, true, nil
	case TeamNameCity:
		return city, true, nil
	case TeamNameAbbreviation:
		return abbr, true, nil
	default:
		return strings.TrimSpace(city + " " + nickname), true, nil
	}
}

// --------------------------------------------------------------------------
// Player lookups
// --------------------------------------------------------------------------

// PlayerIDByName resolves a player name to person_id via case-insensitive
// substring containment over display_first_last; ties that all resolve to
// the same id are accepted, and genuine ambiguity falls back to the
// highest-scoring fuzzy match.
func (r *Repository) PlayerIDByName(ctx context.Context, name string) (int, bool, error) {
	rows, err := r.pool.Query(ctx, "player_substring_lookup", name)
	if err != nil {
		return 0, false, fmt.Errorf("player substring lookup: %w", err)
	}

	type candidate struct {
		id   int
		full string
	}
	var matches []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.full); err != nil {
			continue
		}
		matches = append(matches, c)
	}
	rows.Close()

	if len(matches) == 1 {
		return matches[0].id, true, nil
	}
	if len(matches) > 1 {
		allSame := true
		for _, m := range matches[1:] {
			if m.id != matches[0].id {
				allSame = false
				break
			}
		}
		if allSame {
			return matches[0].id, true, nil
		}
	}

	allRows, err := r.pool.Query(ctx, `SELECT person_id, display_first_last FROM players`)
	if err != nil {
		return 0, false, fmt.Errorf("player fuzzy scan: %w", err)
	}
	defer allRows.Close()

	bestID, bestScore := 0, -1
	for allRows.Next() {
		var id int
		var full string
		if err := allRows.Scan(&id, &full); err != nil {
			continue
		}
		score := tokenSortRatio(name, full)
		if score > bestScore {
			bestScore = score
			bestID = id
		}
	}
	if bestScore >= PlayerFuzzyThreshold {
		return bestID, true, nil
	}
	return 0, false, nil
}

// tokenSortRatio sorts each string's whitespace-separated tokens before
// scoring, so "James LeBron" and "LeBron James" rate as a strong match.
func tokenSortRatio(a, b string) int {
	return ratio(sortedTokens(a), sortedTokens(b))
}

func sortedTokens(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	for i := 1; i < len(tokens); i++ {
		for j := i; j > 0 && tokens[j-1] > tokens[j]; j-- {
			tokens[j-1], tokens[j] = tokens[j], tokens[j-1]
		}
	}
	return strings.Join(tokens, " ")
}

// PlayerNameForm selects which rendering of a player name PlayerNameByID
// returns.
type PlayerNameForm int

const (
	PlayerNameFull PlayerNameForm = iota
	PlayerNameLastFirst
	PlayerNameFirst
	PlayerNameLast
)

// PlayerNameByID renders a player's name in the requested form.
func (r *Repository) PlayerNameByID(ctx context.Context, playerID int, form PlayerNameForm) (string, bool, error) {
	var full, lastFirst string
	err := r.pool.QueryRow(ctx, "player_name_by_id", playerID).Scan(&full, &lastFirst)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("player name lookup: %w", err)
	}

	switch form {
	case PlayerNameLastFirst:
		return lastFirst, true, nil
	case PlayerNameFirst:
		parts := strings.Fields(full)
		if len(parts) > 0 {
			return parts[0], true, nil
		}
		return full, true, nil
	case PlayerNameLast:
		parts := strings.Fields(full)
		if len(parts) > 0 {
			return parts[len(parts)-1], true, nil
		}
		return full, true, nil
	default:
		return full, true, nil
	}
}

// --------------------------------------------------------------------------
// Game lookups
// --------------------------------------------------------------------------

const (
	gameStatusUpcoming = 1
	gameStatusFinal    = 3
)

// GameIDForTeam resolves a team's game id for dateQuery, which may be
// "today", "next", "last", or an ISO date string.
func (r *Repository) GameIDForTeam(ctx context.Context, teamID int, dateQuery string) (string, bool, error) {
	var (
		gameID string
		err    error
	)

	switch dateQuery {
	case "today":
		today := time.Now().UTC().Format("2006-01-02")
		err = r.pool.QueryRow(ctx, "game_for_team_on_date", teamID, today).Scan(&gameID)
	case "next":
		err = r.pool.QueryRow(ctx, "game_for_team_next", teamID, gameStatusUpcoming).Scan(&gameID)
	case "last":
		err = r.pool.QueryRow(ctx, "game_for_team_last", teamID, gameStatusFinal).Scan(&gameID)
	default:
		err = r.pool.QueryRow(ctx, "game_for_team_on_date", teamID, dateQuery).Scan(&gameID)
	}

	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("game id for team %d (%s): %w", teamID, dateQuery, err)
	}
	return gameID, true, nil
}

// GamesByDate returns every game scheduled on date (Beijing calendar date,
// YYYY-MM-DD).
func (r *Repository) GamesByDate(ctx context.Context, date string) ([]model.Game, error) {
	rows, err := r.pool.Query(ctx, "games_by_date", date)
	if err != nil {
		return nil, fmt.Errorf("games by date: %w", err)
	}
	defer rows.Close()
	return scanGameSummaries(rows)
}

// GamesByTeam returns the most recent `limit` games involving teamID.
func (r *Repository) GamesByTeam(ctx context.Context, teamID, limit int) ([]model.Game, error) {
	rows, err := r.pool.Query(ctx, "games_by_team", teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("games by team: %w", err)
	}
	defer rows.Close()
	return scanGameSummaries(rows)
}

// GameByID returns full detail for a single game.
func (r *Repository) GameByID(ctx context.Context, gameID string) (model.Game, bool, error) {
	var g model.Game
	err := r.pool.QueryRow(ctx, `
		SELECT game_id, game_code, game_status, game_status_text,
		       game_date_est, game_time_est, game_date_time_est,
		       home_team_id, home_team_name, home_team_city, home_team_tricode, home_team_wins, home_team_losses, home_team_score,
		       away_team_id, away_team_name, away_team_city, away_team_tricode, away_team_wins, away_team_losses, away_team_score,
		       game_type, game_date_bjs, game_time_bjs, game_date_time_bjs
		FROM games WHERE game_id = $1`, gameID).Scan(
		&g.GameID, &g.GameCode, &g.GameStatus, &g.GameStatusText,
		&g.GameDateEST, &g.GameTimeEST, &g.GameDateTimeEST,
		&g.Home.TeamID, &g.Home.Name, &g.Home.City, &g.Home.Tricode, &g.Home.Wins, &g.Home.Losses, &g.Home.Score,
		&g.Away.TeamID, &g.Away.Name, &g.Away.City, &g.Away.Tricode, &g.Away.Wins, &g.Away.Losses, &g.Away.Score,
		&g.GameType, &g.GameDateBJS, &g.GameTimeBJS, &g.GameDateTimeBJS,
	)
	if err == pgx.ErrNoRows {
		return model.Game{}, false, nil
	}
	if err != nil {
		return model.Game{}, false, fmt.Errorf("game by id: %w", err)
	}
	return g, true, nil
}

func scanGameSummaries(rows pgx.Rows) ([]model.Game, error) {
	var games []model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.GameID, &g.Home.TeamID, &g.Away.TeamID, &g.GameStatus, &g.GameStatusText, &g.GameType); err != nil {
			return nil, fmt.Errorf("scan game row: %w", err)
		}
		games = append(games, g)
	}
	return games, nil
}
