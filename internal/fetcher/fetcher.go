// Package fetcher implements the base single-fetch and batch-fetch
// primitives every endpoint fetcher composes: an HTTP client, a file cache,
// and a progress tracker for resumable batches.
//
// Grounded on nba/fetcher/base_fetcher.py's BaseNBAFetcher.fetch_data and
// _batch_fetch/batch_fetch.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/scoracle/nba-core/internal/cache"
	"github.com/scoracle/nba-core/internal/httpclient"
	"github.com/scoracle/nba-core/internal/progress"
)

// Fetcher composes an HTTP client, a cache store, and a progress root
// shared by every resource-specific endpoint fetcher.
type Fetcher struct {
	Client       *httpclient.Client
	Cache        *cache.Store
	ProgressRoot string
	Logger       *slog.Logger
}

// New builds a Fetcher from its three dependencies.
func New(client *httpclient.Client, store *cache.Store, progressRoot string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{Client: client, Cache: store, ProgressRoot: progressRoot, Logger: logger}
}

// FetchOptions configures a single FetchData call.
type FetchOptions struct {
	CacheKey    string
	TTL         time.Duration
	ForceUpdate bool
	Params      url.Values
	Metadata    map[string]any // stored alongside the cached payload, if CacheKey is set
}

// FetchData returns the JSON payload at baseURL/endpoint, preferring a
// fresh cache entry over the network and falling back to a stale cache
// entry if the live request fails.
func (f *Fetcher) FetchData(ctx context.Context, baseURL, endpoint string, opts FetchOptions) (json.RawMessage, error) {
	cacheable := opts.CacheKey != ""

	if cacheable && !opts.ForceUpdate {
		if data, fresh := f.Cache.Get(opts.CacheKey, opts.TTL); fresh {
			return data, nil
		}
	}

	fullURL := baseURL
	if endpoint != "" {
		fullURL = baseURL + "/" + endpoint
	}

	data, err := f.Client.Get(ctx, fullURL, opts.Params)
	if err != nil {
		if cacheable {
			if stale, _ := f.Cache.Get(opts.CacheKey, 0); stale != nil {
				f.Logger.Warn("fetch failed, serving stale cache entry", "cache_key", opts.CacheKey, "error", err)
				return stale, nil
			}
		}
		return nil, fmt.Errorf("fetch %s: %w", fullURL, err)
	}

	if cacheable {
		if err := f.Cache.Set(opts.CacheKey, data, opts.Metadata); err != nil {
			f.Logger.Warn("failed to write cache entry", "cache_key", opts.CacheKey, "error", err)
		}
	}
	return data, nil
}

// BatchFetchOptions configures a BatchFetch call's chunking and sliding-
// window rate cap.
type BatchFetchOptions struct {
	BatchSize    int           // pending ids processed per chunk; 0 means one chunk
	SaveInterval int           // progress log cadence, in processed pending items
	WindowSize   int           // requests per window; 0 disables the cap
	WindowPeriod time.Duration // window duration
}

// DefaultBatchFetchOptions matches the original source's defaults: batches
// of 20, a progress log every 50 items, and a 60-requests-per-60-seconds
// rate window.
var DefaultBatchFetchOptions = BatchFetchOptions{
	BatchSize:    20,
	SaveInterval: 50,
	WindowSize:   60,
	WindowPeriod: 60 * time.Second,
}

// FetchFunc fetches a single id, returning its raw JSON payload.
type FetchFunc func(ctx context.Context, id any) (json.RawMessage, error)

// BatchResult is the outcome of a BatchFetch call.
type BatchResult struct {
	Results map[any]json.RawMessage
	Failed  map[any]error
}

// BatchFetch fetches every id in ids via fetchFunc, persisting progress
// under taskName so a killed run can resume.
//
// ids already marked completed by a prior run are re-invoked through
// fetchFunc directly, outside the rate-limited path, on the assumption that
// fetchFunc is itself cache-backed and the call is effectively free; this
// keeps the returned Results map complete across resumes. Ids not yet
// completed ("pending") are chunked by BatchSize and run through the
// sliding-window rate cap, so a resumed call only pays the windowed cost
// for the work actually left to do.
func (f *Fetcher) BatchFetch(ctx context.Context, ids []any, taskName string, fetchFunc FetchFunc, opts BatchFetchOptions) (*BatchResult, error) {
	tracker, err := progress.New(f.ProgressRoot, taskName)
	if err != nil {
		return nil, fmt.Errorf("open progress tracker %s: %w", taskName, err)
	}

	result := &BatchResult{
		Results: make(map[any]json.RawMessage, len(ids)),
		Failed:  make(map[any]error),
	}

	idsStr := make([]string, len(ids))
	byKey := make(map[string]any, len(ids))
	for i, id := range ids {
		key := fmt.Sprint(id)
		idsStr[i] = key
		byKey[key] = id
	}

	pendingStr := tracker.Pending(idsStr)
	pending := make(map[string]struct{}, len(pendingStr))
	for _, key := range pendingStr {
		pending[key] = struct{}{}
	}

	for _, key := range idsStr {
		if _, isPending := pending[key]; isPending {
			continue
		}
		id := byKey[key]
		data, fetchErr := fetchFunc(ctx, id)
		if fetchErr != nil {
			f.Logger.Warn("re-fetch of completed batch item failed", "task", taskName, "id", key, "error", fetchErr)
			continue
		}
		result.Results[id] = data
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = len(pendingStr)
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	saveInterval := opts.SaveInterval
	if saveInterval <= 0 {
		saveInterval = 50
	}

	windowCount := 0
	windowStart := time.Now()
	processed := 0

	for chunkStart := 0; chunkStart < len(pendingStr); chunkStart += batchSize {
		chunkEnd := chunkStart + batchSize
		if chunkEnd > len(pendingStr) {
			chunkEnd = len(pendingStr)
		}

		for _, key := range pendingStr[chunkStart:chunkEnd] {
			if opts.WindowSize > 0 && windowCount >= opts.WindowSize {
				if elapsed := time.Since(windowStart); elapsed < opts.WindowPeriod {
					select {
					case <-ctx.Done():
						return result, ctx.Err()
					case <-time.After(opts.WindowPeriod - elapsed):
					}
				}
				windowCount = 0
				windowStart = time.Now()
			}

			id := byKey[key]
			data, fetchErr := fetchFunc(ctx, id)
			windowCount++
			processed++

			if fetchErr != nil {
				result.Failed[id] = fetchErr
				if err := tracker.MarkFailed(key, fetchErr); err != nil {
					f.Logger.Warn("failed to persist batch failure", "task", taskName, "id", key, "error", err)
				}
				f.Logger.Warn("batch item failed", "task", taskName, "id", key, "error", fetchErr)
			} else {
				result.Results[id] = data
				if err := tracker.MarkCompleted(key); err != nil {
					f.Logger.Warn("failed to persist batch completion", "task", taskName, "id", key, "error", err)
				}
			}

			if processed%saveInterval == 0 {
				completed, failed := tracker.Counts()
				f.Logger.Debug("batch progress", "task", taskName, "completed", completed, "failed", failed, "total", len(ids))
			}
		}

		completed, failed := tracker.Counts()
		f.Logger.Debug("batch chunk complete", "task", taskName, "completed", completed, "failed", failed, "total", len(ids))
	}

	return result, nil
}
