// internal/api/client.go
// Package api provides the client for the remote social backend. The
// backend is consumed as an opaque HTTP API; every call takes a context,
// uses bounded timeouts, and maps upstream failures to typed errors.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/glimpselabs/glimpse-client-go/internal/metrics"
	"github.com/google/uuid"
)

// Client for the remote social backend.
type Client struct {
	base    string           // Base URL of the backend, no trailing slash
	hc      *http.Client     // HTTP client with custom configuration
	metrics *metrics.Metrics // Call counters and durations
}

// ErrNotFound is returned when the backend reports a missing resource.
var ErrNotFound = errors.New("backend resource not found")

// requestTimeout bounds the JSON calls. Media uploads are not subject to
// it; their duration scales with the file and is bounded by the caller's
// context instead.
const requestTimeout = 30 * time.Second

// New creates a backend client with the specified base URL.
// The http.Client carries no global deadline; JSON calls apply
// requestTimeout per request and uploads run under the caller's context.
func New(baseURL string) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
	}
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Transport: transport},
		metrics: metrics.NewMetrics(),
	}
}

// do executes a request against the backend, stamping a correlation ID so
// upstream logs can be matched to facade request logs.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("X-Correlation-Id") == "" {
		req.Header.Set("X-Correlation-Id", uuid.New().String())
	}

	start := time.Now()
	resp, err := c.hc.Do(req)

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	endpoint := endpointLabel(req.URL.Path)
	c.metrics.BackendCallTotal.WithLabelValues(endpoint, status).Inc()
	c.metrics.BackendCallDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())

	return resp, err
}

// endpointLabel collapses numeric path segments so per-resource IDs do not
// blow up the metric cardinality.
func endpointLabel(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if _, err := strconv.ParseInt(part, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

// getJSON issues a GET and decodes the JSON response body into out.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// sendJSON issues a request with a JSON body and decodes the response into
// out when out is non-nil.
func (c *Client) sendJSON(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// decodeResponse maps the response status and decodes the body into out.
func decodeResponse(resp *http.Response, out interface{}) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		// Backend error bodies are {"detail": "..."}; fall back to the
		// status line when the body is unreadable.
		var detail struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&detail); err == nil && detail.Detail != "" {
			return fmt.Errorf("backend request failed: %s: %s", resp.Status, detail.Detail)
		}
		return fmt.Errorf("backend request failed: %s", resp.Status)
	}
	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
