// Package directus reads and writes the desk collections held in the
// Directus CMS.
package directus

import (
	"context"
	"fmt"
	"strings"
	"time"

	drepo "DeskPortal/internal/domain/repository"
	xhttp "DeskPortal/pkg/http"
	"DeskPortal/pkg/metrics"
)

const serviceName = "directus"

// Option configures Client.
type Option func(*Client)

// Client is the shared Directus transport used by every repository in this
// package.
type Client struct {
	baseURL string
	ticker  string
	http    *xhttp.Client
	metrics drepo.Metrics
	now     func() time.Time
}

// NewClient creates a Directus client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		ticker:  "JABRA",
		metrics: metrics.Nop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient()
	}
	return c
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithDeskTicker sets the ticker of the desk's own counterparty record.
func WithDeskTicker(ticker string) Option {
	return func(c *Client) {
		if ticker != "" {
			c.ticker = ticker
		}
	}
}

// WithMetrics records call latency and failures.
func WithMetrics(m drepo.Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithClock overrides the clock used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// envelope is the {data: ...} wrapper of every Directus response.
type envelope[T any] struct {
	Data T `json:"data"`
}

type call struct {
	op     string
	method string
	path   string
	query  *Query
	token  string
	body   interface{}
}

func (c *Client) do(ctx context.Context, req call, dest interface{}) error {
	u := c.baseURL + req.path
	if q := req.query.Encode(); q != "" {
		u += "?" + q
	}
	headers := map[string]string{}
	if req.token != "" {
		headers["Authorization"] = "Bearer " + req.token
	}

	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  req.method,
		URL:     u,
		Headers: headers,
		Body:    req.body,
	}, dest)
	c.metrics.RecordUpstream(serviceName, req.op, time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("directus %s: %w", req.op, xhttp.UpstreamError(err))
	}
	return nil
}

// get decodes the data of a GET response into dest.
func get[T any](ctx context.Context, c *Client, op, path, token string, q *Query) (T, error) {
	var env envelope[T]
	err := c.do(ctx, call{op: op, method: xhttp.MethodGet, path: path, query: q, token: token}, &env)
	return env.Data, err
}
