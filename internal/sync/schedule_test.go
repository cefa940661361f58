package sync

import (
	"encoding/json"
	"testing"

	"github.com/scoracle/nba-core/internal/gametype"
)

const sampleSchedulePayload = `{
	"leagueSchedule": {
		"seasonYear": "2024",
		"gameDates": [
			{
				"games": [
					{
						"gameId": "0022400123",
						"gameCode": "20241225/BOSLAL",
						"gameStatus": 3,
						"gameStatusText": "Final",
						"gameDateEst": "2024-12-25",
						"gameTimeEst": "15:00:00",
						"gameDateTimeEst": "2024-12-25T15:00:00Z",
						"gameDateTimeUTC": "2024-12-25T20:00:00Z",
						"seriesText": "Regular Season",
						"homeTeam": {"teamId": 1610612747, "teamName": "Lakers", "teamCity": "Los Angeles", "teamTricode": "LAL", "wins": 20, "losses": 10, "score": 105},
						"awayTeam": {"teamId": 1610612738, "teamName": "Celtics", "teamCity": "Boston", "teamTricode": "BOS", "wins": 22, "losses": 8, "score": 110},
						"pointsLeaders": [
							{"personId": 2544, "firstName": "LeBron", "lastName": "James", "teamId": 1610612747, "points": 32.5}
						]
					},
					{
						"gameId": "bad-row",
						"gameDateTimeUTC": "not-a-valid-timestamp"
					}
				]
			}
		]
	}
}`

func TestParseSchedule_ParsesGamesAndDerivesFields(t *testing.T) {
	t.Parallel()

	rows, err := parseSchedule(json.RawMessage(sampleSchedulePayload))
	if err != nil {
		t.Fatalf("parseSchedule: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (malformed timestamp rows are not dropped entirely)", len(rows))
	}

	game := rows[0]
	if game.GameID != "0022400123" {
		t.Fatalf("GameID = %q, want 0022400123", game.GameID)
	}
	if game.SeasonYear != "2024" {
		t.Fatalf("SeasonYear = %q, want 2024", game.SeasonYear)
	}
	if game.GameType != gametype.RegularSeason {
		t.Fatalf("GameType = %q, want %q", game.GameType, gametype.RegularSeason)
	}
	if game.Home.TeamID != 1610612747 || game.Away.TeamID != 1610612738 {
		t.Fatalf("home/away team ids not parsed: %+v / %+v", game.Home, game.Away)
	}
	if game.PointsLeader == nil || game.PointsLeader.PersonID != 2544 {
		t.Fatalf("expected points leader to be parsed, got %+v", game.PointsLeader)
	}
	if game.GameDateBJS == "" || game.GameTimeBJS == "" {
		t.Fatalf("expected Beijing-time fields to be derived for a valid UTC timestamp")
	}
}

func TestParseSchedule_MalformedTimestampLeavesBeijingFieldsZeroValued(t *testing.T) {
	t.Parallel()

	rows, err := parseSchedule(json.RawMessage(sampleSchedulePayload))
	if err != nil {
		t.Fatalf("parseSchedule: %v", err)
	}

	for _, r := range rows {
		if r.GameID == "bad-row" {
			if r.GameDateBJS != "" {
				t.Fatalf("expected empty GameDateBJS for an unparseable timestamp, got %q", r.GameDateBJS)
			}
			return
		}
	}
	t.Fatalf("expected a row with GameID=bad-row to survive parsing with zero-valued Beijing fields")
}

func TestParseSchedule_InvalidJSONReturnsError(t *testing.T) {
	t.Parallel()

	if _, err := parseSchedule(json.RawMessage(`not json`)); err == nil {
		t.Fatalf("expected error for invalid JSON payload")
	}
}
