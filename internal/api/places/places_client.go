package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout       = 8 * time.Second
	defaultMaxConcurrent = 4
)

// ClientConfig configures one provider adapter.
type ClientConfig struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	MaxConcurrent     int64
	RequestsPerSecond float64
	Language          string
}

// httpClient bounds in-flight requests and, optionally, request rate for a
// single upstream.
type httpClient struct {
	client  *http.Client
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	timeout time.Duration
}

func newHTTPClient(cfg ClientConfig, transport http.RoundTripper) *httpClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if transport == nil {
		transport = http.DefaultTransport
	}

	c := &httpClient{
		client:  &http.Client{Transport: otelhttp.NewTransport(transport)},
		sem:     semaphore.NewWeighted(cfg.MaxConcurrent),
		timeout: cfg.Timeout,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// errCallTimeout marks a request that exceeded its per-call timeout while the
// caller's context was still live.
var errCallTimeout = errors.New("provider call timed out")

// getJSON issues a GET and decodes a 2xx body into dst. It returns the HTTP
// status code whenever a response was received.
func (c *httpClient) getJSON(ctx context.Context, url string, headers map[string]string, dst any) (int, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer c.sem.Release(1)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, err
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return 0, errCallTimeout
		}
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return resp.StatusCode, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return resp.StatusCode, errCallTimeout
		}
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
