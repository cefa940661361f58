// Package team implements the teamdetails endpoint fetcher.
//
// Grounded on nba/fetcher/team_fetcher.py and nba/fetcher/team.py.
package team

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/scoracle/nba-core/internal/fetcher"
)

// TTL is the team-details cache entry lifetime.
const TTL = 7 * 24 * time.Hour

// HardcodedTeamIDs is the 30-team roster TeamSync.Sync uses whenever its
// caller passes no ids; the id list is not fetched from any league endpoint.
var HardcodedTeamIDs = []int{
	1610612737, 1610612738, 1610612739, 1610612740, 1610612741,
	1610612742, 1610612743, 1610612744, 1610612745, 1610612746,
	1610612747, 1610612748, 1610612749, 1610612750, 1610612751,
	1610612752, 1610612753, 1610612754, 1610612755, 1610612756,
	1610612757, 1610612758, 1610612759, 1610612760, 1610612761,
	1610612762, 1610612763, 1610612764, 1610612765, 1610612766,
}

// Fetcher wraps the base Fetcher with the teamdetails endpoint's contract.
type Fetcher struct {
	base    *fetcher.Fetcher
	baseURL string
}

// New creates a team Fetcher against baseURL (the stats.nba.com/stats root).
func New(base *fetcher.Fetcher, baseURL string) *Fetcher {
	return &Fetcher{base: base, baseURL: baseURL}
}

// GetDetails fetches team details for a single team id.
func (f *Fetcher) GetDetails(ctx context.Context, teamID int, forceRefresh bool) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("TeamID", strconv.Itoa(teamID))

	return f.base.FetchData(ctx, f.baseURL, "teamdetails", fetcher.FetchOptions{
		CacheKey:    fmt.Sprintf("details_%d", teamID),
		TTL:         TTL,
		ForceUpdate: forceRefresh,
		Params:      params,
	})
}

// BatchGetDetails fetches team details for every id in teamIDs, persisting
// resumable progress under the "team_details" task name.
func (f *Fetcher) BatchGetDetails(ctx context.Context, teamIDs []int, forceRefresh bool) (*fetcher.BatchResult, error) {
	ids := make([]any, len(teamIDs))
	for i, id := range teamIDs {
		ids[i] = id
	}

	fetchOne := func(ctx context.Context, id any) (json.RawMessage, error) {
		return f.GetDetails(ctx, id.(int), forceRefresh)
	}

	return f.base.BatchFetch(ctx, ids, "team_details", fetchOne, fetcher.DefaultBatchFetchOptions)
}

// GetLogo fetches raw logo bytes for a team, trying the SVG URL before
// falling back to PNG, matching TeamSync's independent logo-sync routine.
func (f *Fetcher) GetLogo(ctx context.Context, logoBaseURL string, teamTricode string) ([]byte, error) {
	svgURL := fmt.Sprintf("%s/%s/global/L/logo.svg", logoBaseURL, teamTricode)
	data, err := f.base.Client.Get(ctx, svgURL, nil)
	if err == nil {
		return data, nil
	}

	pngURL := fmt.Sprintf("%s/%s/global/L/logo.png", logoBaseURL, teamTricode)
	data, pngErr := f.base.Client.Get(ctx, pngURL, nil)
	if pngErr != nil {
		return nil, fmt.Errorf("logo fetch failed for %s: svg=%v png=%v", teamTricode, err, pngErr)
	}
	return data, nil
}
