package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits; the board only ever talks to a single host
const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 2
	defaultMaxConnsPerHost     = 2
	defaultIdleConnTimeout     = 60 * time.Second // conservative: matches common ALB defaults
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "defconboard"

// Client is an HTTP client wrapper for fetching status pages.
//
// Client uses per-request timeouts via context rather than a global timeout,
// so the caller decides how long a single attempt may take. A response body
// larger than 1MB fails the fetch rather than being truncated. Client never retries; each [Client.Fetch] call is
// exactly one attempt.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new fetching [Client].
//
// The transport is wrapped with otelhttp so each fetch becomes a client span
// when a tracer provider is installed. With no provider the wrapper is a no-op.
// An empty userAgent falls back to [DefaultUserAgent].
func NewClient(userAgent string) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{
			// no default timeout - we use per-request timeouts via context
			Transport: otelhttp.NewTransport(&http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			}),
		},
		userAgent: userAgent,
	}
}

// Fetch performs a single GET request and returns the response body.
//
// The timeout is applied via context cancellation. Any status outside 2xx is
// reported as a [FetchError] of kind [KindNonSuccessStatus]; a request that
// exceeds its timeout is reported as [KindTimeout]; everything else is
// [KindNetwork], including a body over 1MB ([ErrBodyTooLarge]). Fetch does
// not touch any shared state.
func (c *Client) Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{Kind: KindNonSuccessStatus, URL: url, Code: resp.StatusCode}
	}

	// one extra byte tells an oversized page apart from one exactly at the limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize+1))
	if err != nil {
		return nil, classify(ctx, url, fmt.Errorf("failed to read response body: %w", err))
	}
	if len(body) > maxResponseBodySize {
		return nil, &FetchError{Kind: KindNetwork, URL: url, Err: ErrBodyTooLarge}
	}

	return body, nil
}

// classify maps a transport error to a FetchError. A deadline is only a
// timeout when the caller's own context is still alive; a cancelled parent
// is a network error wrapping context.Canceled.
func classify(parent context.Context, url string, err error) *FetchError {
	if parent.Err() != nil {
		return &FetchError{Kind: KindNetwork, URL: url, Err: parent.Err()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: KindTimeout, URL: url, Err: err}
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: KindTimeout, URL: url, Err: err}
	}
	return &FetchError{Kind: KindNetwork, URL: url, Err: err}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}
