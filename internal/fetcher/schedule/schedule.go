// Package schedule implements the league schedule-v2 endpoint fetcher.
//
// Grounded on nba/fetcher/schedule_fetcher.py.
package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"time"

	"github.com/scoracle/nba-core/internal/fetcher"
)

// TTL is the schedule cache entry lifetime.
const TTL = 24 * time.Hour

// Fetcher wraps the base Fetcher with the schedule endpoint's contract.
type Fetcher struct {
	base    *fetcher.Fetcher
	baseURL string
}

// New creates a schedule Fetcher against baseURL (the league schedule-v2
// CDN root).
func New(base *fetcher.Fetcher, baseURL string) *Fetcher {
	return &Fetcher{base: base, baseURL: baseURL}
}

// Get fetches the full league schedule for season (e.g. "2024-25"),
// validating the response shallowly and applying the post-call
// desynchronization jitter the original fetcher uses during season sweeps.
func (f *Fetcher) Get(ctx context.Context, season string, forceRefresh bool) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("Season", season)
	params.Set("LeagueID", "00")

	data, err := f.base.FetchData(ctx, f.baseURL, "scheduleleaguev2", fetcher.FetchOptions{
		CacheKey:    "schedule_" + season,
		TTL:         TTL,
		ForceUpdate: forceRefresh,
		Params:      params,
	})
	if err != nil {
		return nil, err
	}

	if err := validateShallow(data); err != nil {
		return nil, fmt.Errorf("schedule response for season %s: %w", season, err)
	}

	jitter := time.Duration(3000+rand.Intn(7000)) * time.Millisecond
	select {
	case <-ctx.Done():
		return data, ctx.Err()
	case <-time.After(jitter):
	}

	return data, nil
}

func validateShallow(data json.RawMessage) error {
	var probe struct {
		LeagueSchedule json.RawMessage `json:"leagueSchedule"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if len(probe.LeagueSchedule) == 0 {
		return fmt.Errorf("missing leagueSchedule")
	}
	return nil
}

// AllSeasons returns the inclusive sequence of "YYYY-YY" season strings from
// startSeason through currentSeason, stepping one year at a time.
func AllSeasons(startSeason, currentSeason string) ([]string, error) {
	startYear, err := seasonStartYear(startSeason)
	if err != nil {
		return nil, fmt.Errorf("start season: %w", err)
	}
	currentYear, err := seasonStartYear(currentSeason)
	if err != nil {
		return nil, fmt.Errorf("current season: %w", err)
	}
	if currentYear < startYear {
		return nil, fmt.Errorf("current season %s precedes start season %s", currentSeason, startSeason)
	}

	seasons := make([]string, 0, currentYear-startYear+1)
	for y := startYear; y <= currentYear; y++ {
		seasons = append(seasons, formatSeason(y))
	}
	return seasons, nil
}

func seasonStartYear(season string) (int, error) {
	if len(season) < 4 {
		return 0, fmt.Errorf("invalid season format: %q", season)
	}
	return strconv.Atoi(season[:4])
}

func formatSeason(startYear int) string {
	endYY := (startYear + 1) % 100
	return fmt.Sprintf("%d-%02d", startYear, endYY)
}
