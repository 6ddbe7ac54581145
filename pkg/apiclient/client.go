// Package apiclient wraps the media platform HTTP API behind an
// authenticated client that normalizes every response into an Envelope.
//
// Usage:
//
//	client, err := apiclient.New(config.BaseURL(), config.APIToken())
//	if err != nil {
//	    log.Fatal(err) // missing target is a configuration error
//	}
//
//	env, err := client.Get(ctx, "/coupon", url.Values{"group": {groupID}})
//	records, _ := env.Records()
//
// Every call is a single real network request — no retries, no caching.
// The platform signals errors through the domain status tag in the body,
// not the transport code, so callers must branch on env.Status.
package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shashiranjanraj/mediaprobe/pkg/metrics"
)

// defaultTransport is the connection-pooled transport used against the real
// platform. Tests swap the whole *http.Client via WithHTTPClient.
var defaultTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
}

const tokenHeader = "X-API-Token"

// Client issues authenticated requests against one media platform instance.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	timeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout (the action timeout).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying *http.Client. Tests use this to
// point the client at an httptest server transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New builds a Client for baseURL authenticated with token.
// Both are hard preconditions: an empty value is a configuration error and
// the run must not start.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("apiclient: base URL is not set")
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("apiclient: API token is not set")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Transport: defaultTransport},
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get issues a GET with params serialized as the query string.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (*Envelope, error) {
	return c.do(ctx, http.MethodGet, endpoint, params, nil)
}

// PostForm issues a POST with fields as an application/x-www-form-urlencoded
// body. The platform does not accept JSON bodies on write endpoints.
func (c *Client) PostForm(ctx context.Context, endpoint string, fields url.Values) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, endpoint, nil, fields)
}

// Delete issues a DELETE against endpoint.
func (c *Client) Delete(ctx context.Context, endpoint string) (*Envelope, error) {
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// ─── Internals ────────────────────────────────────────────────────────────────

func (c *Client) do(ctx context.Context, method, endpoint string, params, form url.Values) (*Envelope, error) {
	u, err := c.buildURL(endpoint, params)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(tokenHeader, c.token)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordProbeCall(method, "transport_error", start)
		return nil, fmt.Errorf("apiclient: %s %s: %w", method, endpoint, err)
	}
	metrics.RecordProbeCall(method, strconv.Itoa(resp.StatusCode), start)

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("apiclient: read body: %w", err)
	}

	env, err := decodeEnvelope(resp.StatusCode, raw)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %s %s: %w", method, endpoint, err)
	}
	return env, nil
}

// buildURL joins endpoint onto the base URL and appends params plus the
// token query fallback. The token travels both as a header and a query
// parameter: some platform edges strip custom headers on redirects.
func (c *Client) buildURL(endpoint string, params url.Values) (string, error) {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}

	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return "", fmt.Errorf("apiclient: bad endpoint %q: %w", endpoint, err)
	}

	q := u.Query()
	for key, vals := range params {
		for _, v := range vals {
			q.Add(key, v)
		}
	}
	q.Set("token", c.token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
