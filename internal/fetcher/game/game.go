// Package game implements the CDN live-data boxscore and playbyplay
// endpoint fetchers.
//
// Grounded on nba/fetcher/game.py; boxscore and play-by-play are fetched
// concurrently with a sync.WaitGroup, the same worker idiom used for other
// fan-out fetch loops in this codebase.
package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/scoracle/nba-core/internal/fetcher"
)

// Cache TTL classes: short during live play, long once a game is final.
const (
	LiveTTL     = 2 * time.Minute
	FinishedTTL = 30 * 24 * time.Hour
)

// GameStatusFinal is the schedule's game_status code for a completed game.
const GameStatusFinal = 3

// Fetcher wraps the base Fetcher with the boxscore/playbyplay endpoints.
type Fetcher struct {
	base    *fetcher.Fetcher
	baseURL string
}

// New creates a game Fetcher against baseURL (the CDN live-data root).
func New(base *fetcher.Fetcher, baseURL string) *Fetcher {
	return &Fetcher{base: base, baseURL: baseURL}
}

// ttlFor picks the cache TTL class given whether the game has finished.
func ttlFor(finished bool) time.Duration {
	if finished {
		return FinishedTTL
	}
	return LiveTTL
}

// GetBoxscore fetches the boxscore half for gameID.
func (f *Fetcher) GetBoxscore(ctx context.Context, gameID string, finished, forceRefresh bool) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("boxscore/boxscore_%s.json", gameID)
	return f.base.FetchData(ctx, f.baseURL, endpoint, fetcher.FetchOptions{
		CacheKey:    "boxscore_" + gameID,
		TTL:         ttlFor(finished),
		ForceUpdate: forceRefresh,
	})
}

// GetPlayByPlay fetches the play-by-play half for gameID.
func (f *Fetcher) GetPlayByPlay(ctx context.Context, gameID string, finished, forceRefresh bool) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("playbyplay/playbyplay_%s.json", gameID)
	return f.base.FetchData(ctx, f.baseURL, endpoint, fetcher.FetchOptions{
		CacheKey:    "playbyplay_" + gameID,
		TTL:         ttlFor(finished),
		ForceUpdate: forceRefresh,
	})
}

// GameData is the merged object GetGameData returns.
type GameData struct {
	Game       json.RawMessage
	Meta       json.RawMessage
	PlayByPlay json.RawMessage
}

// boxscoreEnvelope is the vendor's top-level boxscore shape: {game, meta}.
type boxscoreEnvelope struct {
	Game json.RawMessage `json:"game"`
	Meta json.RawMessage `json:"meta"`
}

// playByPlayEnvelope is the vendor's top-level playbyplay shape.
type playByPlayEnvelope struct {
	Game json.RawMessage `json:"game"`
}

// GetGameData fetches boxscore and playbyplay concurrently and merges them
// into {game, meta, playByPlay}.
func (f *Fetcher) GetGameData(ctx context.Context, gameID string, finished, forceRefresh bool) (*GameData, error) {
	var (
		wg                      sync.WaitGroup
		boxscoreErr, pbpErr     error
		boxscoreRaw, pbpRaw     json.RawMessage
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		boxscoreRaw, boxscoreErr = f.GetBoxscore(ctx, gameID, finished, forceRefresh)
	}()
	go func() {
		defer wg.Done()
		pbpRaw, pbpErr = f.GetPlayByPlay(ctx, gameID, finished, forceRefresh)
	}()
	wg.Wait()

	if boxscoreErr != nil {
		return nil, fmt.Errorf("boxscore for game %s: %w", gameID, boxscoreErr)
	}
	if pbpErr != nil {
		return nil, fmt.Errorf("playbyplay for game %s: %w", gameID, pbpErr)
	}

	var box boxscoreEnvelope
	if err := json.Unmarshal(boxscoreRaw, &box); err != nil {
		return nil, fmt.Errorf("decode boxscore for game %s: %w", gameID, err)
	}
	var pbp playByPlayEnvelope
	if err := json.Unmarshal(pbpRaw, &pbp); err != nil {
		return nil, fmt.Errorf("decode playbyplay for game %s: %w", gameID, err)
	}

	return &GameData{
		Game:       box.Game,
		Meta:       box.Meta,
		PlayByPlay: pbp.Game,
	}, nil
}

// GetGameDataSequential is the non-concurrent fallback, matching the
// original source's simpler two-call fetcher for callers that want strict
// request ordering.
func (f *Fetcher) GetGameDataSequential(ctx context.Context, gameID string, finished, forceRefresh bool) (*GameData, error) {
	boxscoreRaw, err := f.GetBoxscore(ctx, gameID, finished, forceRefresh)
	if err != nil {
		return nil, fmt.Errorf("boxscore for game %s: %w", gameID, err)
	}
	pbpRaw, err := f.GetPlayByPlay(ctx, gameID, finished, forceRefresh)
	if err != nil {
		return nil, fmt.Errorf("playbyplay for game %s: %w", gameID, err)
	}

	var box boxscoreEnvelope
	if err := json.Unmarshal(boxscoreRaw, &box); err != nil {
		return nil, fmt.Errorf("decode boxscore for game %s: %w", gameID, err)
	}
	var pbp playByPlayEnvelope
	if err := json.Unmarshal(pbpRaw, &pbp); err != nil {
		return nil, fmt.Errorf("decode playbyplay for game %s: %w", gameID, err)
	}

	return &GameData{Game: box.Game, Meta: box.Meta, PlayByPlay: pbp.Game}, nil
}

// PlayByPlayEvent is one event record from the play-by-play sequence. The
// vendor's schema is preserved verbatim; typing beyond these common fields
// is a consumer concern.
type PlayByPlayEvent struct {
	ActionNumber int             `json:"actionNumber"`
	Period       int             `json:"period"`
	Clock        string          `json:"clock"`
	TimeActual   string          `json:"timeActual"`
	ActionType   string          `json:"actionType"`
	SubType      string          `json:"subType"`
	PersonID     int             `json:"personId"`
	TeamID       int             `json:"teamId"`
	TeamTricode  string          `json:"teamTricode"`
	ScoreHome    string          `json:"scoreHome"`
	ScoreAway    string          `json:"scoreAway"`
	X            float64         `json:"x"`
	Y            float64         `json:"y"`
	XLegacy      float64         `json:"xLegacy"`
	YLegacy      float64         `json:"yLegacy"`
	Area         string          `json:"area"`
	AreaDetail   string          `json:"areaDetail"`
	Side         string          `json:"side"`
	ShotDistance float64         `json:"shotDistance"`
	ShotResult   string          `json:"shotResult"`
	Extra        json.RawMessage `json:"-"`
}
