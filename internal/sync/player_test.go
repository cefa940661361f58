package sync

import (
	"encoding/json"
	"testing"
)

const sampleRosterPayload = `{
	"resultSets": [
		{
			"name": "CommonAllPlayers",
			"headers": ["PERSON_ID", "DISPLAY_LAST_COMMA_FIRST", "DISPLAY_FIRST_LAST", "ROSTERSTATUS", "FROM_YEAR", "TO_YEAR", "PLAYER_SLUG", "TEAM_ID", "GAMES_PLAYED_FLAG"],
			"rowSet": [
				[2544, "James, LeBron", "LeBron James", 1, "2003", "2024", "lebron-james", 1610612747, "Y"],
				[9999, "Agent, Free", "Free Agent", 0, "2010", "2020", "free-agent", 0, "N"]
			]
		}
	]
}`

func TestParseRoster_ParsesRowsAndTeamAssignment(t *testing.T) {
	t.Parallel()

	players, err := parseRoster(json.RawMessage(sampleRosterPayload))
	if err != nil {
		t.Fatalf("parseRoster: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("got %d players, want 2", len(players))
	}

	lebron := players[0]
	if lebron.PersonID != 2544 {
		t.Fatalf("PersonID = %d, want 2544", lebron.PersonID)
	}
	if lebron.DisplayFirstLast != "LeBron James" {
		t.Fatalf("DisplayFirstLast = %q, want LeBron James", lebron.DisplayFirstLast)
	}
	if lebron.TeamID == nil || *lebron.TeamID != 1610612747 {
		t.Fatalf("expected TeamID to be set to 1610612747, got %v", lebron.TeamID)
	}
}

func TestParseRoster_ZeroTeamIDMeansFreeAgent(t *testing.T) {
	t.Parallel()

	players, err := parseRoster(json.RawMessage(sampleRosterPayload))
	if err != nil {
		t.Fatalf("parseRoster: %v", err)
	}

	agent := players[1]
	if agent.TeamID != nil {
		t.Fatalf("expected nil TeamID for a free agent (TEAM_ID=0), got %v", *agent.TeamID)
	}
}

func TestParseRoster_MissingResultSetErrors(t *testing.T) {
	t.Parallel()

	if _, err := parseRoster(json.RawMessage(`{"resultSets":[]}`)); err == nil {
		t.Fatalf("expected error when CommonAllPlayers result set is absent")
	}
}

func TestParseRoster_InvalidJSONErrors(t *testing.T) {
	t.Parallel()

	if _, err := parseRoster(json.RawMessage(`not json`)); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}
