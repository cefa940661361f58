package team

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/scoracle/nba-core/internal/cache"
	"github.com/scoracle/nba-core/internal/fetcher"
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
	base := fetcher.New(client, store, t.TempDir(), nil)
	return New(base, srv.URL), srv
}

func TestFetcher_GetDetails_PassesTeamIDParam(t *testing.T) {
	t.Parallel()

	var gotTeamID string
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotTeamID = r.URL.Query().Get("TeamID")
		w.Write([]byte(`{"teamId":1610612747}`))
	})

	if _, err := f.GetDetails(context.Background(), 1610612747, false); err != nil {
		t.Fatalf("GetDetails: %v", err)
	}
	if gotTeamID != "1610612747" {
		t.Fatalf("TeamID param = %q, want 1610612747", gotTeamID)
	}
}

func TestFetcher_GetDetails_CachesAcrossCalls(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"teamId":1610612747}`))
	})

	ctx := context.Background()
	if _, err := f.GetDetails(ctx, 1610612747, false); err != nil {
		t.Fatalf("GetDetails: %v", err)
	}
	if _, err := f.GetDetails(ctx, 1610612747, false); err != nil {
		t.Fatalf("GetDetails: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("server hit %d times, want 1 (second call should be served from cache)", hits.Load())
	}
}

func TestFetcher_BatchGetDetails_CollectsAllResults(t *testing.T) {
	t.Parallel()

	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"teamId":1}`))
	})

	result, err := f.BatchGetDetails(context.Background(), HardcodedTeamIDs[:3], false)
	if err != nil {
		t.Fatalf("BatchGetDetails: %v", err)
	}
	if len(result.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(result.Results))
	}
	if len(result.Failed) != 0 {
		t.Fatalf("got %d failures, want 0", len(result.Failed))
	}
}

func TestFetcher_GetLogo_FallsBackToPNGWhenSVGMissing(t *testing.T) {
	t.Parallel()

	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	var sawSVG, sawPNG bool
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case len(r.URL.Path) >= 4 && r.URL.Path[len(r.URL.Path)-4:] == ".svg":
			sawSVG = true
			w.WriteHeader(http.StatusNotFound)
		case len(r.URL.Path) >= 4 && r.URL.Path[len(r.URL.Path)-4:] == ".png":
			sawPNG = true
			w.Write([]byte("png-bytes"))
		}
	}))
	defer srv2.Close()

	data, err := f.GetLogo(context.Background(), srv2.URL, "LAL")
	if err != nil {
		t.Fatalf("GetLogo: %v", err)
	}
	if !sawSVG || !sawPNG {
		t.Fatalf("expected both svg and png to be attempted, sawSVG=%v sawPNG=%v", sawSVG, sawPNG)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("got %q, want png-bytes", data)
	}
}

func TestFetcher_GetLogo_ErrorsWhenBothFormatsFail(t *testing.T) {
	t.Parallel()

	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv2.Close()

	if _, err := f.GetLogo(context.Background(), srv2.URL, "LAL"); err == nil {
		t.Fatalf("expected error when neither svg nor png is available")
	}
}
