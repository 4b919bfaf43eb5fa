// Package services holds the HTTP clients of the pricer, Coinbase and the
// desk gateway.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	drepo "DeskPortal/internal/domain/repository"
	xhttp "DeskPortal/pkg/http"
	"DeskPortal/pkg/metrics"
)

// HTTPServiceBase centralizes client construction, auth headers and metrics
// for the upstream JSON services.
type HTTPServiceBase struct {
	name    string
	baseURL string
	client  *xhttp.Client
	metrics drepo.Metrics
}

// NewHTTPServiceBase builds a client named name against baseURL. A zero
// timeout keeps the client default.
func NewHTTPServiceBase(name, baseURL string, timeout time.Duration, m drepo.Metrics) *HTTPServiceBase {
	opts := []xhttp.ClientOption{}
	if timeout > 0 {
		opts = append(opts, xhttp.WithTimeout(timeout))
	}
	if m == nil {
		m = metrics.Nop{}
	}
	return &HTTPServiceBase{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(opts...),
		metrics: m,
	}
}

// BaseURL returns the configured root URL.
func (b *HTTPServiceBase) BaseURL() string { return b.baseURL }

// Do sends a request to path under baseURL and decodes the JSON answer into
// dest. token, when set, travels as a bearer token.
func (b *HTTPServiceBase) Do(ctx context.Context, method, op, path, token string, payload, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("%s http client not initialized", b.name)
	}
	headers := map[string]string{"Content-Type": "application/json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	start := time.Now()
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  method,
		URL:     b.baseURL + path,
		Headers: headers,
		Body:    payload,
	}, dest)
	b.metrics.RecordUpstream(b.name, op, time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("%s %s: %w", b.name, path, xhttp.UpstreamError(err))
	}
	return nil
}

// PostJSON posts payload to path and decodes the answer into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, op, path, token string, payload, dest interface{}) error {
	return b.Do(ctx, xhttp.MethodPost, op, path, token, payload, dest)
}

// PostJSONWithRetry posts JSON with up to attempts tries. Only transport
// failures are retried; an upstream answer is final.
func (b *HTTPServiceBase) PostJSONWithRetry(ctx context.Context, op, path, token string, payload, dest interface{}, attempts int) error {
	if attempts <= 1 {
		return b.PostJSON(ctx, op, path, token, payload, dest)
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = b.PostJSON(ctx, op, path, token, payload, dest)
		if err == nil || !retryable(err) {
			return err
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func retryable(err error) bool {
	var ae *xhttp.AppError
	if errors.As(err, &ae) {
		return ae.Code == xhttp.CodeRequest
	}
	return true
}
