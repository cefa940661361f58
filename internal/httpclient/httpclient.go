// Package httpclient implements the shared HTTP transport used by every
// endpoint fetcher: one connection-pooled client, a per-host rate governor,
// exponential backoff with jitter on retry, and a single fallback-host
// substitution attempt once retries are exhausted.
//
// Grounded on utils/http_handler.py's HTTPRequestManager/rate_limit, using
// golang.org/x/time/rate for the per-host token-bucket pacing.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RetryPolicy controls how a failed request is retried before the client
// gives up (or falls back to a mirror host).
type RetryPolicy struct {
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFactor  float64
}

// DefaultRetryPolicy matches the defaults in utils/http_handler.py's
// HTTPConfig.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:    3,
	BaseDelay:     time.Second,
	MaxDelay:      60 * time.Second,
	BackoffFactor: 2.0,
	JitterFactor:  0.1,
}

// delay returns the backoff delay before retry attempt n (0-indexed),
// exponential with multiplicative jitter. If the previous attempt failed
// with a 429, the computed delay is at least doubled before the jitter and
// max-delay clamp are applied, honoring the rate limiter's own backoff hint.
func (p RetryPolicy) delay(n int, was429 bool) time.Duration {
	d := float64(p.BaseDelay) * pow(p.BackoffFactor, n)
	if was429 {
		d *= 2
	}
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	jitter := 1 + p.JitterFactor*(rand.Float64()*2-1)
	return time.Duration(d * jitter)
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

// hostGovernor paces requests to a single host.
type hostGovernor struct {
	limiter *rate.Limiter
}

// Client is the shared HTTP transport for all endpoint fetchers.
type Client struct {
	http       *http.Client
	headers    map[string]string
	retry      RetryPolicy
	fallbacks  map[string]string // longest-prefix-match host/path -> mirror
	governors  sync.Map          // host -> *hostGovernor
	hostRPS    float64
	logger     *slog.Logger
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithHeaders sets default headers sent with every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) { c.headers = h }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithFallbacks registers host/path-prefix -> mirror-prefix substitutions.
func WithFallbacks(m map[string]string) Option {
	return func(c *Client) { c.fallbacks = m }
}

// WithHostRPS sets the steady-state requests-per-second cap applied per
// distinct host.
func WithHostRPS(rps float64) Option {
	return func(c *Client) { c.hostRPS = rps }
}

// WithLogger attaches a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client with the given timeout and options.
func New(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: timeout},
		retry:   DefaultRetryPolicy,
		hostRPS: 2.0,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) governor(host string) *hostGovernor {
	if g, ok := c.governors.Load(host); ok {
		return g.(*hostGovernor)
	}
	g := &hostGovernor{limiter: rate.NewLimiter(rate.Limit(c.hostRPS), 1)}
	actual, _ := c.governors.LoadOrStore(host, g)
	return actual.(*hostGovernor)
}

// fallbackURL substitutes the longest matching registered prefix in rawURL
// with its mirror, or returns ("", false) if nothing matches.
func (c *Client) fallbackURL(rawURL string) (string, bool) {
	best := ""
	bestMirror := ""
	for prefix, mirror := range c.fallbacks {
		if strings.Contains(rawURL, prefix) && len(prefix) > len(best) {
			best = prefix
			bestMirror = mirror
		}
	}
	if best == "" {
		return "", false
	}
	return strings.Replace(rawURL, best, bestMirror, 1), true
}

// Get performs a GET request against rawURL with params, retrying on
// transport errors and 429/5xx responses, then attempting exactly one
// fallback-host substitution if every retry is exhausted.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	full := rawURL
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(full, "?") {
			sep = "&"
		}
		full = full + sep + params.Encode()
	}

	body, err := c.doWithRetry(ctx, full)
	if err == nil {
		return body, nil
	}

	if fallback, ok := c.fallbackURL(full); ok {
		c.logger.Warn("primary host exhausted, trying fallback", "url", full, "fallback", fallback)
		fu, fbErr := url.Parse(fallback)
		if fbErr == nil {
			fbErr = c.governor(fu.Host).limiter.Wait(ctx)
		}
		if fbErr == nil {
			var fbBody []byte
			fbBody, _, _, fbErr = c.doOnce(ctx, fallback)
			if fbErr == nil {
				return fbBody, nil
			}
		}
		return nil, fmt.Errorf("primary failed (%w); fallback also failed: %v", err, fbErr)
	}

	return nil, err
}

// GetJSON performs Get and unmarshals the response body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	body, err := c.Get(ctx, rawURL, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) doWithRetry(ctx context.Context, fullURL string) ([]byte, error) {
	u, err := url.Parse(fullURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %s: %w", fullURL, err)
	}

	var lastErr error
	lastWas429 := false
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retry.delay(attempt-1, lastWas429)):
			}
		}

		if err := c.governor(u.Host).limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		body, retryable, was429, err := c.doOnce(ctx, fullURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		lastWas429 = was429
		if !retryable {
			return nil, err
		}
		c.logger.Debug("request failed, retrying", "url", fullURL, "attempt", attempt, "error", err, "status_429", was429)
	}
	return nil, fmt.Errorf("exhausted %d retries: %w", c.retry.MaxRetries, lastErr)
}

// doOnce issues a single request. The first bool reports whether the
// failure (if any) is worth retrying; the second reports whether it was a
// 429, which forces the next retry's delay to at least double.
func (c *Client) doOnce(ctx context.Context, fullURL string) ([]byte, bool, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, false, false, fmt.Errorf("build request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, false, fmt.Errorf("do request %s: %w", fullURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, false, fmt.Errorf("read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, false, false, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, true, fmt.Errorf("%s returned %d: %s", fullURL, resp.StatusCode, truncate(body, 200))
	case resp.StatusCode >= 500:
		return nil, true, false, fmt.Errorf("%s returned %d: %s", fullURL, resp.StatusCode, truncate(body, 200))
	default:
		return nil, false, false, fmt.Errorf("%s returned %d: %s", fullURL, resp.StatusCode, truncate(body, 200))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
