package sync

import (
	"encoding/json"
	"testing"
)

const sampleTeamDetailsPayload = `{
	"resultSets": [
		{
			"name": "TeamBackground",
			"headers": ["ABBREVIATION", "NICKNAME", "YEARFOUNDED", "CITY", "ARENA", "ARENACAPACITY", "OWNER", "GENERALMANAGER", "HEADCOACH", "DLEAGUEAFFILIATION"],
			"rowSet": [["LAL", "Lakers", 1948, "Los Angeles", "Crypto.com Arena", "19068", "Jeanie Buss", "Rob Pelinka", "JJ Redick", "South Bay Lakers"]]
		}
	]
}`

func TestParseTeamDetails_ParsesBackgroundRow(t *testing.T) {
	t.Parallel()

	team, err := parseTeamDetails(json.RawMessage(sampleTeamDetailsPayload), 1610612747)
	if err != nil {
		t.Fatalf("parseTeamDetails: %v", err)
	}
	if team.TeamID != 1610612747 {
		t.Fatalf("TeamID = %d, want 1610612747", team.TeamID)
	}
	if team.Abbreviation != "LAL" {
		t.Fatalf("Abbreviation = %q, want LAL", team.Abbreviation)
	}
	if team.YearFounded != 1948 {
		t.Fatalf("YearFounded = %d, want 1948", team.YearFounded)
	}
	if team.TeamSlug != "lakers" {
		t.Fatalf("TeamSlug = %q, want lakers", team.TeamSlug)
	}
}

func TestParseTeamDetails_MissingResultSetErrors(t *testing.T) {
	t.Parallel()

	if _, err := parseTeamDetails(json.RawMessage(`{"resultSets":[]}`), 1); err == nil {
		t.Fatalf("expected error when TeamBackground result set is absent")
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Lakers":        "lakers",
		"Trail Blazers": "trail-blazers",
		"  Spurs  ":     "spurs",
		"76ers":         "76ers",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Fatalf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAsInt_HandlesFloatAndStringAndNil(t *testing.T) {
	t.Parallel()

	if got := asInt(float64(42)); got != 42 {
		t.Fatalf("asInt(float64) = %d, want 42", got)
	}
	if got := asInt("17"); got != 17 {
		t.Fatalf("asInt(string) = %d, want 17", got)
	}
	if got := asInt(nil); got != 0 {
		t.Fatalf("asInt(nil) = %d, want 0", got)
	}
	if got := asInt("not-a-number"); got != 0 {
		t.Fatalf("asInt(invalid string) = %d, want 0", got)
	}
}

func TestAsString_HandlesNilAndNonString(t *testing.T) {
	t.Parallel()

	if got := asString(nil); got != "" {
		t.Fatalf("asString(nil) = %q, want empty", got)
	}
	if got := asString("already"); got != "already" {
		t.Fatalf("asString(string) = %q, want already", got)
	}
	if got := asString(float64(7)); got != "7" {
		t.Fatalf("asString(float64) = %q, want 7", got)
	}
}
