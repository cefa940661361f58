// Package video implements the videodetailsasset endpoint fetcher.
//
// Grounded on nba/fetcher/video_fetcher.py.
package video

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"time"

	"github.com/scoracle/nba-core/internal/fetcher"
)

// ContextMeasure enumerates the video endpoint's event-type filter values.
type ContextMeasure string

const (
	FGM   ContextMeasure = "FGM"
	FGA   ContextMeasure = "FGA"
	AST   ContextMeasure = "AST"
	BLOCK ContextMeasure = "BLOCK"
	STL   ContextMeasure = "STL"
	REB   ContextMeasure = "REB"
	TOV   ContextMeasure = "TOV"
)

// RequestLimits matches VideoConfig.REQUEST_LIMITS.
var RequestLimits = struct {
	MinDelay      time.Duration
	MaxDelay      time.Duration
	BatchSize     int
	BatchInterval time.Duration
}{
	MinDelay:      8 * time.Second,
	MaxDelay:      15 * time.Second,
	BatchSize:     5,
	BatchInterval: 10 * time.Second,
}

// TTL is the video-manifest cache entry lifetime.
const TTL = time.Hour

// Params builds the videodetailsasset parameter set. Only GameID is
// required; the other inputs map to vendor-required sentinel empties when
// absent.
type Params struct {
	GameID         string
	PlayerID       int
	TeamID         int
	ContextMeasure ContextMeasure
	Season         string
	SeasonType     string
}

// Build assembles the full ~40-key parameter map the vendor endpoint
// requires, matching VideoRequestParams.build() exactly.
func (p Params) Build() map[string]any {
	return map[string]any{
		"LeagueID":        "00",
		"Season":          p.Season,
		"SeasonType":      p.SeasonType,
		"TeamID":          p.TeamID,
		"PlayerID":        p.PlayerID,
		"GameID":          p.GameID,
		"ContextMeasure":  string(p.ContextMeasure),
		"Outcome":         "",
		"Location":        "",
		"Month":           0,
		"SeasonSegment":   "",
		"DateFrom":        "",
		"DateTo":          "",
		"OpponentTeamID":  0,
		"VsConference":    "",
		"VsDivision":      "",
		"Position":        "",
		"RookieYear":      "",
		"GameSegment":     "",
		"Period":          0,
		"LastNGames":      0,
		"ClutchTime":      "",
		"AheadBehind":     "",
		"PointDiff":       "",
		"RangeType":       0,
		"StartPeriod":     0,
		"EndPeriod":       0,
		"StartRange":      0,
		"EndRange":        31800,
		"GroupQuantity":   5,
		"PORound":         0,
		"ContextFilter":   "",
		"OppPlayerID":     "",
	}
}

// Fetcher wraps the base Fetcher with the video endpoint's strict pacing.
type Fetcher struct {
	base    *fetcher.Fetcher
	baseURL string
}

// New creates a video Fetcher against baseURL (the stats.nba.com/stats root).
func New(base *fetcher.Fetcher, baseURL string) *Fetcher {
	return &Fetcher{base: base, baseURL: baseURL}
}

func randomDelay(min, max time.Duration) time.Duration {
	span := max - min
	if span <= 0 {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(span)))
}

// GetGameVideoURLs fetches the video manifest for a single parameter
// combination, applying the pre- and post-call jitter the original fetcher
// uses to stay under the vendor's strict video rate limit.
func (f *Fetcher) GetGameVideoURLs(ctx context.Context, params Params, forceRefresh bool) (json.RawMessage, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(randomDelay(time.Second, 3*time.Second)):
	}

	values := toURLValues(params.Build())
	key := fmt.Sprintf("video_%s_%d_%d_%s", params.GameID, params.PlayerID, params.TeamID, params.ContextMeasure)

	data, err := f.base.FetchData(ctx, f.baseURL, "videodetailsasset", fetcher.FetchOptions{
		CacheKey:    key,
		TTL:         TTL,
		ForceUpdate: forceRefresh,
		Params:      values,
	})

	select {
	case <-ctx.Done():
	case <-time.After(randomDelay(2*time.Second, 4*time.Second)):
	}

	if err != nil {
		return nil, fmt.Errorf("video urls for game %s: %w", params.GameID, err)
	}

	if err := validateShallow(data); err != nil {
		return nil, fmt.Errorf("video response for game %s: %w", params.GameID, err)
	}
	return data, nil
}

func validateShallow(data json.RawMessage) error {
	var probe struct {
		Resource   *json.RawMessage `json:"resource"`
		Parameters *json.RawMessage `json:"parameters"`
		ResultSets *json.RawMessage `json:"resultSets"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if probe.Resource == nil || probe.Parameters == nil || probe.ResultSets == nil {
		return fmt.Errorf("incomplete response structure")
	}
	return nil
}

// BatchGetGamesVideoURLs fetches manifests for every game id with the
// vendor-mandated batch size cap and post-item interval.
func (f *Fetcher) BatchGetGamesVideoURLs(ctx context.Context, gameIDs []string, season, seasonType string) (*fetcher.BatchResult, error) {
	ids := make([]any, len(gameIDs))
	for i, id := range gameIDs {
		ids[i] = id
	}

	fetchOne := func(ctx context.Context, id any) (json.RawMessage, error) {
		data, err := f.GetGameVideoURLs(ctx, Params{
			GameID:     id.(string),
			Season:     season,
			SeasonType: seasonType,
		}, false)
		if err != nil {
			return nil, err
		}
		select {
		case <-ctx.Done():
		case <-time.After(randomDelay(
			time.Duration(float64(RequestLimits.BatchInterval)*0.8),
			time.Duration(float64(RequestLimits.BatchInterval)*1.2),
		)):
		}
		return data, nil
	}

	opts := fetcher.BatchFetchOptions{WindowSize: RequestLimits.BatchSize, WindowPeriod: RequestLimits.BatchInterval}
	return f.base.BatchFetch(ctx, ids, "game_videos", fetchOne, opts)
}

func toURLValues(m map[string]any) url.Values {
	values := make(url.Values, len(m))
	for k, v := range m {
		values.Set(k, fmt.Sprint(v))
	}
	return values
}
