// Package player implements the commonallplayers (league roster) and
// commonplayerinfo (per-player detail) endpoint fetchers.
//
// Grounded on nba/fetcher/player_fetcher.py.
package player

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/scoracle/nba-core/internal/fetcher"
)

// TTL classes for commonplayerinfo, chosen per-player from ROSTERSTATUS.
const (
	ActiveTTL     = 0 // always refresh
	HistoricalTTL = 10 * 365 * 24 * time.Hour
)

// BatchSize is the per-chunk size used for the league-wide detail batch.
const BatchSize = 20

// Fetcher wraps the base Fetcher with the player endpoints' contract.
type Fetcher struct {
	base    *fetcher.Fetcher
	baseURL string
}

// New creates a player Fetcher against baseURL (the stats.nba.com/stats root).
func New(base *fetcher.Fetcher, baseURL string) *Fetcher {
	return &Fetcher{base: base, baseURL: baseURL}
}

// GetAllPlayers fetches the league-wide roster. This endpoint is never
// cached — every call is a forced refresh — since it is the source of
// truth for which players currently exist.
func (f *Fetcher) GetAllPlayers(ctx context.Context, season string, onlyCurrentSeason bool) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("Season", season)
	params.Set("LeagueID", "00")
	if onlyCurrentSeason {
		params.Set("IsOnlyCurrentSeason", "1")
	} else {
		params.Set("IsOnlyCurrentSeason", "0")
	}

	return f.base.FetchData(ctx, f.baseURL, "commonallplayers", fetcher.FetchOptions{
		ForceUpdate: true,
		Params:      params,
	})
}

// GetPlayerInfo fetches per-player detail, short-circuiting to a cached
// historical-class entry without a live call when one exists, since
// historical player records never change.
func (f *Fetcher) GetPlayerInfo(ctx context.Context, playerID int, forceRefresh bool) (json.RawMessage, error) {
	key := fmt.Sprintf("player_info_%d", playerID)

	if !forceRefresh {
		if data, fresh := f.base.Cache.Get(key, HistoricalTTL); fresh && isHistorical(data) {
			return data, nil
		}
	}

	params := url.Values{}
	params.Set("PlayerID", strconv.Itoa(playerID))

	data, err := f.base.FetchData(ctx, f.baseURL, "commonplayerinfo", fetcher.FetchOptions{
		CacheKey:    key,
		TTL:         ActiveTTL,
		ForceUpdate: true,
		Params:      params,
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// isHistorical inspects a cached commonplayerinfo payload's ROSTERSTATUS
// field. "Inactive" or 0 means the player's record is frozen and a cache
// hit never needs revalidation.
func isHistorical(data json.RawMessage) bool {
	var probe struct {
		ResultSets []struct {
			Headers []string        `json:"headers"`
			RowSet  [][]any          `json:"rowSet"`
		} `json:"resultSets"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	for _, rs := range probe.ResultSets {
		idx := -1
		for i, h := range rs.Headers {
			if h == "ROSTERSTATUS" {
				idx = i
				break
			}
		}
		if idx == -1 || len(rs.RowSet) == 0 {
			continue
		}
		val := rs.RowSet[0][idx]
		switch v := val.(type) {
		case string:
			return v == "Inactive"
		case float64:
			return v == 0
		}
	}
	return false
}

// BatchGetPlayerInfo fetches detail for every id in playerIDs, preserving
// the original int identity while persisting resumable progress under the
// "player_info" task name.
func (f *Fetcher) BatchGetPlayerInfo(ctx context.Context, playerIDs []int, forceRefresh bool) (*fetcher.BatchResult, error) {
	ids := make([]any, len(playerIDs))
	for i, id := range playerIDs {
		ids[i] = id
	}

	fetchOne := func(ctx context.Context, id any) (json.RawMessage, error) {
		return f.GetPlayerInfo(ctx, id.(int), forceRefresh)
	}

	opts := fetcher.DefaultBatchFetchOptions
	opts.BatchSize = BatchSize
	return f.base.BatchFetch(ctx, ids, "player_info", fetchOne, opts)
}
