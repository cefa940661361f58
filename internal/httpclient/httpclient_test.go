package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_Get_RetriesOn5xxThenSucceeds(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(time.Second,
		WithRetryPolicy(RetryPolicy{
			MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, BackoffFactor: 2, JitterFactor: 0,
		}),
		WithHostRPS(1000),
	)

	body, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("got %q, want ok", body)
	}
	if hits.Load() != 3 {
		t.Fatalf("server hit %d times, want 3 (2 failures + 1 success)", hits.Load())
	}
}

func TestClient_Get_DoesNotRetryOn4xx(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(time.Second,
		WithRetryPolicy(RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, BackoffFactor: 2}),
		WithHostRPS(1000),
	)

	if _, err := c.Get(context.Background(), srv.URL, nil); err == nil {
		t.Fatalf("expected error for 404 response")
	}
	if hits.Load() != 1 {
		t.Fatalf("server hit %d times, want 1 (4xx is not retryable)", hits.Load())
	}
}

func TestClient_Get_FallsBackToMirrorHostAfterRetriesExhausted(t *testing.T) {
	t.Parallel()

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer primary.Close()
	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mirror-ok"))
	}))
	defer mirror.Close()

	c := New(time.Second,
		WithRetryPolicy(RetryPolicy{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}),
		WithFallbacks(map[string]string{primary.URL: mirror.URL}),
	)

	body, err := c.Get(context.Background(), primary.URL+"/stats/team", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "mirror-ok" {
		t.Fatalf("got %q, want mirror-ok", body)
	}
}

func TestClient_Get_EncodesParams(t *testing.T) {
	t.Parallel()

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(time.Second)
	params := url.Values{"Season": []string{"2024-25"}}
	if _, err := c.Get(context.Background(), srv.URL, params); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotQuery != "Season=2024-25" {
		t.Fatalf("query = %q, want Season=2024-25", gotQuery)
	}
}

func TestClient_GetJSON_DecodesBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"teamId":1610612747}`))
	}))
	defer srv.Close()

	c := New(time.Second)
	var out struct {
		TeamID int `json:"teamId"`
	}
	if err := c.GetJSON(context.Background(), srv.URL, nil, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.TeamID != 1610612747 {
		t.Fatalf("got %d, want 1610612747", out.TeamID)
	}
}

func TestRetryPolicy_Delay_RespectsMaxDelay(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{BaseDelay: time.Second, MaxDelay: 2 * time.Second, BackoffFactor: 10, JitterFactor: 0}
	d := p.delay(5, false) // would be far beyond MaxDelay without the cap
	if d != 2*time.Second {
		t.Fatalf("delay = %v, want capped at MaxDelay 2s", d)
	}
}

func TestRetryPolicy_Delay_DoublesAfter429(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{BaseDelay: time.Second, MaxDelay: time.Minute, BackoffFactor: 2, JitterFactor: 0}
	plain := p.delay(1, false)
	after429 := p.delay(1, true)
	if after429 != 2*plain {
		t.Fatalf("delay after 429 = %v, want double the plain delay %v", after429, plain)
	}
}

func TestRetryPolicy_Delay_429DoublingRespectsMaxDelay(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{BaseDelay: time.Second, MaxDelay: 3 * time.Second, BackoffFactor: 2, JitterFactor: 0}
	d := p.delay(1, true) // plain would be 2s; doubled to 4s, clamped to MaxDelay
	if d != 3*time.Second {
		t.Fatalf("delay = %v, want capped at MaxDelay 3s", d)
	}
}

func TestClient_Get_DoublesDelayAfterA429(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	var gotSecondAttemptAt time.Time
	start := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		gotSecondAttemptAt = time.Now()
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(time.Second,
		WithRetryPolicy(RetryPolicy{
			MaxRetries: 1, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2, JitterFactor: 0,
		}),
		WithHostRPS(1000),
	)

	if _, err := c.Get(context.Background(), srv.URL, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("server hit %d times, want 2", hits.Load())
	}
	// Base delay for attempt 0 is 50ms; after a 429 it must be at least
	// doubled to 100ms before the retry fires.
	if elapsed := gotSecondAttemptAt.Sub(start); elapsed < 100*time.Millisecond {
		t.Fatalf("retry after 429 fired after %v, want at least 100ms (doubled delay)", elapsed)
	}
}
