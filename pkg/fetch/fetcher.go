// Package fetch provides the resilient upstream HTTP fetcher with response
// caching, pacing, per-attempt timeouts, and retry with backoff.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/ztnlabs/nexus/pkg/cache"
	"github.com/ztnlabs/nexus/pkg/pacing"
)

// Config holds the fetcher configuration.
type Config struct {
	// MaxAttempts is the total number of attempts per fetch (including the
	// first).
	MaxAttempts int

	// AttemptTimeout is the cancellation deadline applied to each attempt.
	AttemptTimeout time.Duration

	// RateLimitBackoff is the base backoff on HTTP 429; attempt n sleeps
	// RateLimitBackoff * 2^n.
	RateLimitBackoff time.Duration

	// RetryDelay is the flat delay before retrying any other failure.
	RetryDelay time.Duration

	// CacheTTL is how long successful responses stay fresh.
	CacheTTL time.Duration

	// UserAgent is sent on every upstream request.
	UserAgent string
}

// DefaultConfig returns the fetch policy used against the Roblox platform.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:      4,
		AttemptTimeout:   15 * time.Second,
		RateLimitBackoff: 500 * time.Millisecond,
		RetryDelay:       200 * time.Millisecond,
		CacheTTL:         cache.DefaultTTL,
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	}
}

// Fetcher performs upstream calls with caching, pacing, and retries.
// Failure after retry exhaustion is reported as ErrUnavailable, never a
// panic; callers degrade to empty results and continue.
type Fetcher struct {
	httpClient *http.Client
	store      cache.Store
	gate       *pacing.Gate
	config     Config
	logger     zerolog.Logger
}

// New creates a fetcher backed by the given cache store and pacing gate.
func New(store cache.Store, gate *pacing.Gate, cfg Config, logger zerolog.Logger) *Fetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 15 * time.Second
	}
	if cfg.RateLimitBackoff <= 0 {
		cfg.RateLimitBackoff = 500 * time.Millisecond
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}

	return &Fetcher{
		httpClient: &http.Client{},
		store:      store,
		gate:       gate,
		config:     cfg,
		logger:     logger,
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (f *Fetcher) SetHTTPClient(client *http.Client) {
	f.httpClient = client
}

// Get fetches a URL, consulting the response cache first and populating it
// on success.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (json.RawMessage, error) {
	return f.do(ctx, http.MethodGet, rawURL, nil)
}

// Post issues a POST with a JSON body. POST responses are not cached but the
// call still goes through the pacing gate and retry policy.
func (f *Fetcher) Post(ctx context.Context, rawURL string, body any) (json.RawMessage, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return f.do(ctx, http.MethodPost, rawURL, encoded)
}

// GetJSON fetches a URL and decodes the response into T.
func GetJSON[T any](ctx context.Context, f *Fetcher, rawURL string) (*T, error) {
	raw, err := f.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// do runs the full fetch sequence: cache lookup, pacing, attempt loop with
// per-attempt deadline, backoff on 429, flat retry on other failures, cache
// population on success.
func (f *Fetcher) do(ctx context.Context, method, rawURL string, body []byte) (json.RawMessage, error) {
	endpoint := endpointLabel(rawURL)

	startTime := time.Now()
	defer func() {
		upstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check cache (GET only)
	cacheable := method == http.MethodGet && f.store != nil
	var sig cache.Signature
	if cacheable {
		var err error
		sig, err = cache.NewSignature(method, rawURL)
		if err != nil {
			return nil, fmt.Errorf("build signature: %w", err)
		}

		if payload, err := f.store.Get(ctx, sig); err == nil {
			f.logger.Debug().
				Str("endpoint", endpoint).
				Bool("cache_hit", true).
				Msg("Serving upstream response from cache")
			return payload, nil
		} else if err != cache.ErrCacheMiss {
			f.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	// Step 2: Pacing gate
	if f.gate != nil {
		if err := f.gate.Acquire(ctx); err != nil {
			return nil, err
		}
	}

	// Step 3: Attempt loop
	var lastClass ErrorClass
	for attempt := 0; attempt < f.config.MaxAttempts; attempt++ {
		payload, retry, err := f.attempt(ctx, method, rawURL, body, endpoint, attempt)
		if err == nil {
			if cacheable {
				if cacheErr := f.store.Set(ctx, sig, payload); cacheErr != nil {
					f.logger.Warn().Err(cacheErr).Str("endpoint", endpoint).Msg("Failed to cache response")
				}
			}
			if attempt > 0 {
				f.logger.Info().
					Str("endpoint", endpoint).
					Int("attempt", attempt+1).
					Msg("Request succeeded after retry")
			}
			return payload, nil
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch %s: %w", endpoint, ctx.Err())
		}

		var ue *UpstreamError
		if uerr, ok := err.(*UpstreamError); ok {
			ue = uerr
			lastClass = ue.Class
		} else {
			lastClass = ErrorClassNetwork
		}

		// Last attempt: no delay, fall through to exhaustion.
		if attempt >= f.config.MaxAttempts-1 || !retry {
			break
		}

		delay := f.config.RetryDelay
		if ue != nil && ue.Class == ErrorClassRateLimit {
			delay = f.config.RateLimitBackoff << uint(attempt)
		}

		retriesTotal.WithLabelValues(string(lastClass)).Inc()
		retryBackoffSeconds.WithLabelValues(string(lastClass)).Observe(delay.Seconds())

		f.logger.Warn().
			Str("endpoint", endpoint).
			Str("error_class", string(lastClass)).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Msg("Retrying upstream request after backoff")

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	// Retries exhausted
	retryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	f.logger.Warn().
		Str("endpoint", endpoint).
		Str("error_class", string(lastClass)).
		Int("max_attempts", f.config.MaxAttempts).
		Msg("Retry attempts exhausted")

	return nil, fmt.Errorf("%w: %s after %d attempts", ErrUnavailable, endpoint, f.config.MaxAttempts)
}

// attempt performs a single upstream call under the attempt deadline.
// The bool result reports whether the failure is worth retrying.
func (f *Fetcher) attempt(ctx context.Context, method, rawURL string, body []byte, endpoint string, attempt int) (json.RawMessage, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.config.AttemptTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, rawURL, reader)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.config.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		upstreamRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		f.logger.Warn().
			Err(err).
			Str("endpoint", endpoint).
			Int("attempt", attempt+1).
			Msg("Upstream request failed")
		return nil, true, &UpstreamError{Class: ErrorClassNetwork, Message: "transport error", Err: err}
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		class := classifyStatus(resp.StatusCode)
		upstreamErrorsTotal.WithLabelValues(string(class)).Inc()

		f.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Int("attempt", attempt+1).
			Msg("Upstream request error")

		return nil, true, &UpstreamError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    resp.Status,
		}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, true, &UpstreamError{Class: ErrorClassNetwork, Message: "read body", Err: err}
	}

	if !json.Valid(payload) {
		// Malformed payload is treated like any other permanent failure.
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassServer)).Inc()
		return nil, true, &UpstreamError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassServer,
			Message:    "malformed response body",
		}
	}

	return json.RawMessage(payload), false, nil
}

// sleep waits for d with context cancellation support.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// endpointLabel reduces a URL to its path for metric labels.
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}
