package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scoracle/nba-core/internal/fetcher/team"
	"github.com/scoracle/nba-core/internal/model"
)

// TeamSync upserts team details into the teams table.
//
// Grounded on spec.md §4.6 TeamSync and nba/fetcher/team_fetcher.py.
type TeamSync struct {
	pool    *pgxpool.Pool
	fetcher *team.Fetcher
	logger  *slog.Logger
}

// NewTeamSync builds a TeamSync.
func NewTeamSync(pool *pgxpool.Pool, f *team.Fetcher, logger *slog.Logger) *TeamSync {
	if logger == nil {
		logger = slog.Default()
	}
	return &TeamSync{pool: pool, fetcher: f, logger: logger}
}

// resultSet is the generic stats.nba.com resultSets[] shape.
type resultSet struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	RowSet  [][]any  `json:"rowSet"`
}

type teamDetailsPayload struct {
	ResultSets []resultSet `json:"resultSets"`
}

// row returns the named result set's first row as a header->value map, or
// nil if the set is absent or empty.
func (p teamDetailsPayload) row(name string) map[string]any {
	for _, rs := range p.ResultSets {
		if rs.Name != name || len(rs.RowSet) == 0 {
			continue
		}
		out := make(map[string]any, len(rs.Headers))
		for i, h := range rs.Headers {
			if i < len(rs.RowSet[0]) {
				out[h] = rs.RowSet[0][i]
			}
		}
		return out
	}
	return nil
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(t)
		return n
	}
	return 0
}

func slugify(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}

func parseTeamDetails(raw json.RawMessage, teamID int) (model.Team, error) {
	var payload teamDetailsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return model.Team{}, fmt.Errorf("decode team details: %w", err)
	}

	background := payload.row("TeamBackground")
	if background == nil {
		return model.Team{}, fmt.Errorf("missing TeamBackground result set")
	}

	t := model.Team{
		TeamID:             teamID,
		Abbreviation:       asString(background["ABBREVIATION"]),
		Nickname:           asString(background["NICKNAME"]),
		YearFounded:        asInt(background["YEARFOUNDED"]),
		City:                asString(background["CITY"]),
		Arena:              asString(background["ARENA"]),
		ArenaCapacity:      asString(background["ARENACAPACITY"]),
		Owner:              asString(background["OWNER"]),
		GeneralManager:     asString(background["GENERALMANAGER"]),
		HeadCoach:          asString(background["HEADCOACH"]),
		DLeagueAffiliation: asString(background["DLEAGUEAFFILIATION"]),
	}
	t.TeamSlug = slugify(t.Nickname)
	return t, nil
}

// Sync fetches and upserts details for every known team, short-circuiting
// when force is false and the teams table already has rows.
func (s *TeamSync) Sync(ctx context.Context, teamIDs []int, force bool) (Result, error) {
	if !force {
		var n int
		if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM teams`).Scan(&n); err != nil {
			return Result{}, fmt.Errorf("check existing teams: %w", err)
		}
		if n > 0 {
			s.logger.Info("teams already populated, skipping", "existing", n)
			return success(n, nil), nil
		}
	}

	if len(teamIDs) == 0 {
		teamIDs = team.HardcodedTeamIDs
	}

	batch, err := s.fetcher.BatchGetDetails(ctx, teamIDs, force)
	if err != nil {
		return Result{}, fmt.Errorf("batch fetch team details: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var errs []string
	imported := 0
	for id, raw := range batch.Results {
		teamID := id.(int)
		row, err := parseTeamDetails(raw, teamID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("team %d: %v", teamID, err))
			continue
		}
		if err := upsertTeam(ctx, tx, row); err != nil {
			errs = append(errs, fmt.Sprintf("team %d: %v", teamID, err))
			continue
		}
		imported++
	}
	for id, err := range batch.Failed {
		errs = append(errs, fmt.Sprintf("team %v: fetch failed: %v", id, err))
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit team import: %w", err)
	}

	s.logger.Info("team sync complete", "imported", imported, "errors", len(errs))
	return success(imported, errs), nil
}

// SyncLogos fetches and stores each team's logo bytes, trying SVG before
// PNG. This is an independent routine from Sync per spec.md §4.6.
func (s *TeamSync) SyncLogos(ctx context.Context, logoBaseURL string) (Result, error) {
	rows, err := s.pool.Query(ctx, `SELECT team_id, abbreviation FROM teams`)
	if err != nil {
		return Result{}, fmt.Errorf("list teams for logo sync: %w", err)
	}
	defer rows.Close()

	type teamRef struct {
		ID   int
		Code string
	}
	var teams []teamRef
	for rows.Next() {
		var t teamRef
		if err := rows.Scan(&t.ID, &t.Code); err != nil {
			continue
		}
		teams = append(teams, t)
	}

	var errs []string
	updated := 0
	for _, t := range teams {
		logo, err := s.fetcher.GetLogo(ctx, logoBaseURL, t.Code)
		if err != nil {
			errs = append(errs, fmt.Sprintf("team %d logo: %v", t.ID, err))
			continue
		}
		if _, err := s.pool.Exec(ctx, `UPDATE teams SET logo = $2, updated_at = now() WHERE team_id = $1`, t.ID, logo); err != nil {
			errs = append(errs, fmt.Sprintf("team %d logo store: %v", t.ID, err))
			continue
		}
		updated++
	}

	return success(updated, errs), nil
}
