// Package timeutil implements the time parsing and timezone conversion
// rules shared by the schedule parser and game clock helpers.
//
// Grounded on utils/time_handler.py's TimeParser, NBATimeHandler, and
// BasketballGameTime.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var beijing *time.Location

func init() {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		// Asia/Shanghai has a fixed UTC+8 offset with no DST; a
		// fixed-offset fallback is exact if the tzdata package is
		// unavailable in this environment.
		loc = time.FixedZone("Asia/Shanghai", 8*60*60)
	}
	beijing = loc
}

var isoDurationPattern = regexp.MustCompile(`^PT(\d+)M(\d+(?:\.\d+)?)S$`)

// ParseISODuration parses an ISO-8601 duration of the form "PT12M00.00S"
// into whole seconds.
func ParseISODuration(s string) (int, error) {
	m := isoDurationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid ISO 8601 duration: %q", s)
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in duration %q: %w", s, err)
	}
	seconds, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in duration %q: %w", s, err)
	}
	return minutes*60 + int(seconds+0.5), nil
}

// ParseISODateTime parses an ISO-8601 datetime string (RFC3339, including
// the bare "Z" suffix form NBA endpoints use) into a UTC time.Time.
func ParseISODateTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid ISO 8601 datetime: %q: %w", s, err)
	}
	return t.UTC(), nil
}

// ToBeijing converts a UTC time to Asia/Shanghai local time.
func ToBeijing(utc time.Time) time.Time {
	return utc.In(beijing)
}

// BeijingParts renders utc in Asia/Shanghai and returns its date, time, and
// full datetime components as stored on the games table.
func BeijingParts(utc time.Time) (date string, clock string, full time.Time) {
	bjt := ToBeijing(utc)
	return bjt.Format("2006-01-02"), bjt.Format("15:04:05"), bjt
}

// Basketball game-clock constants.
const (
	RegularQuarterSeconds = 12 * 60
	OvertimeSeconds       = 5 * 60
	QuartersInGame        = 4
)

// SecondsLeftInGame computes the total seconds remaining in the game given
// the current period and the ISO-8601 clock string for that period.
func SecondsLeftInGame(period int, clockISO string) (int, error) {
	remaining, err := ParseISODuration(clockISO)
	if err != nil {
		return 0, err
	}
	if period <= QuartersInGame {
		remaining += (QuartersInGame - period) * RegularQuarterSeconds
	}
	return remaining, nil
}

// IsOvertime reports whether period is beyond regulation.
func IsOvertime(period int) bool {
	return period > QuartersInGame
}
