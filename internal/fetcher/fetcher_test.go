package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/scoracle/nba-core/internal/cache"
	"github.com/scoracle/nba-core/internal/httpclient"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) (*Fetcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := cache.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	client := httpclient.New(time.Second,
		httpclient.WithRetryPolicy(httpclient.RetryPolicy{MaxRetries: 0}),
		httpclient.WithHostRPS(1000),
	)
	return New(client, store, t.TempDir(), nil), srv
}

func TestFetcher_FetchData_CachesAcrossCalls(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	f, srv := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"teamId":1610612747}`))
	})

	opts := FetchOptions{CacheKey: "team_1610612747", TTL: time.Hour}
	first, err := f.FetchData(context.Background(), srv.URL, "team.json", opts)
	if err != nil {
		t.Fatalf("first FetchData: %v", err)
	}
	second, err := f.FetchData(context.Background(), srv.URL, "team.json", opts)
	if err != nil {
		t.Fatalf("second FetchData: %v", err)
	}

	if string(first) != string(second) {
		t.Fatalf("cached response mismatch: %s vs %s", first, second)
	}
	if hits.Load() != 1 {
		t.Fatalf("server hit %d times, want 1 (second call should be served from cache)", hits.Load())
	}
}

func TestFetcher_FetchData_ForceUpdateBypassesCache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	f, srv := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		fmt.Fprintf(w, `{"hit":%d}`, n)
	})

	opts := FetchOptions{CacheKey: "k", TTL: time.Hour}
	if _, err := f.FetchData(context.Background(), srv.URL, "x.json", opts); err != nil {
		t.Fatalf("first FetchData: %v", err)
	}

	opts.ForceUpdate = true
	if _, err := f.FetchData(context.Background(), srv.URL, "x.json", opts); err != nil {
		t.Fatalf("forced FetchData: %v", err)
	}

	if hits.Load() != 2 {
		t.Fatalf("server hit %d times, want 2 with ForceUpdate set", hits.Load())
	}
}

func TestFetcher_FetchData_ServesStaleCacheOnFetchFailure(t *testing.T) {
	t.Parallel()

	up := atomic.Bool{}
	up.Store(true)
	f, srv := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if !up.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})

	opts := FetchOptions{CacheKey: "k", TTL: -time.Second} // already stale once written
	if _, err := f.FetchData(context.Background(), srv.URL, "x.json", opts); err != nil {
		t.Fatalf("warm the cache: %v", err)
	}

	up.Store(false)
	data, err := f.FetchData(context.Background(), srv.URL, "x.json", opts)
	if err != nil {
		t.Fatalf("expected stale-cache fallback, got error: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Fatalf("got %s, want stale cached payload", data)
	}
}

func TestFetcher_BatchFetch_CollectsResultsAndFailures(t *testing.T) {
	t.Parallel()

	store, err := cache.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	f := New(httpclient.New(time.Second), store, t.TempDir(), nil)

	ids := []any{1, 2, 3}
	fetchFn := func(ctx context.Context, id any) (json.RawMessage, error) {
		if id == 2 {
			return nil, fmt.Errorf("boom")
		}
		return json.RawMessage(fmt.Sprintf(`{"id":%v}`, id)), nil
	}

	result, err := f.BatchFetch(context.Background(), ids, "batch-test", fetchFn, BatchFetchOptions{})
	if err != nil {
		t.Fatalf("BatchFetch: %v", err)
	}
	if len(result.Results) != 2 {
		t.Fatalf("got %d successes, want 2", len(result.Results))
	}
	if len(result.Failed) != 1 {
		t.Fatalf("got %d failures, want 1", len(result.Failed))
	}
	if _, ok := result.Failed[2]; !ok {
		t.Fatalf("expected id 2 to be recorded as failed")
	}
}

func TestFetcher_BatchFetch_ResumeSkipsCompletedIDsPastTheRateWindow(t *testing.T) {
	t.Parallel()

	store, err := cache.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	progressRoot := t.TempDir()
	f := New(httpclient.New(time.Second), store, progressRoot, nil)

	var calls atomic.Int32
	fetchFn := func(ctx context.Context, id any) (json.RawMessage, error) {
		calls.Add(1)
		return json.RawMessage(`{}`), nil
	}

	ids := []any{"a", "b"}
	if _, err := f.BatchFetch(context.Background(), ids, "resumable", fetchFn, BatchFetchOptions{}); err != nil {
		t.Fatalf("first BatchFetch: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("fetchFunc called %d times on first pass, want 2", calls.Load())
	}

	// A resumed call against a restrictive window would block if the already-
	// completed ids were run back through the windowed/pending path. Since
	// they're re-invoked outside the window, the call must return promptly
	// and the returned map must still be complete.
	restrictive := BatchFetchOptions{WindowSize: 1, WindowPeriod: time.Hour}
	done := make(chan *BatchResult, 1)
	go func() {
		result, err := f.BatchFetch(context.Background(), ids, "resumable", fetchFn, restrictive)
		if err != nil {
			t.Errorf("second BatchFetch: %v", err)
			done <- nil
			return
		}
		done <- result
	}()

	select {
	case result := <-done:
		if result == nil {
			return
		}
		if len(result.Results) != 2 {
			t.Fatalf("got %d results on resume, want 2 (completed ids still returned)", len(result.Results))
		}
	case <-time.After(time.Second):
		t.Fatalf("resumed BatchFetch did not return promptly; completed ids appear to have gone through the windowed path")
	}

	if calls.Load() != 4 {
		t.Fatalf("fetchFunc called %d times total, want 4 (completed ids re-invoked, unmetered, on resume)", calls.Load())
	}
}

func TestFetcher_BatchFetch_ChunksPendingIDsByBatchSize(t *testing.T) {
	t.Parallel()

	store, err := cache.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	f := New(httpclient.New(time.Second), store, t.TempDir(), nil)

	ids := []any{"a", "b", "c", "d", "e"}
	fetchFn := func(ctx context.Context, id any) (json.RawMessage, error) {
		return json.RawMessage(`{}`), nil
	}

	opts := BatchFetchOptions{BatchSize: 2, SaveInterval: 1}
	result, err := f.BatchFetch(context.Background(), ids, "chunked", fetchFn, opts)
	if err != nil {
		t.Fatalf("BatchFetch: %v", err)
	}
	if len(result.Results) != len(ids) {
		t.Fatalf("got %d results, want %d", len(result.Results), len(ids))
	}
}
