// Package api talks to the prodiplan backend over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// APIError is a failed request, either a non-2xx status or an envelope with
// success=false.
type APIError struct {
	Status  int
	Code    ErrCode
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// Client sends JSON requests and unwraps the response envelope.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client for baseURL, e.g. http://localhost:4001.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "api").Logger()
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Do sends body (if non-nil) as JSON and decodes the envelope's data into
// out (if non-nil). A non-empty token is sent as a bearer credential.
func (c *Client) Do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("api call")

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode envelope: %w", err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("API Error: %d", resp.StatusCode)}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Fields = env.Error.Fields
			if env.Error.Message != "" {
				apiErr.Message = env.Error.Message
			}
		}
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	var h HealthData
	if err := c.Do(ctx, http.MethodGet, PathHealth, "", nil, &h); err != nil {
		return err
	}
	if h.Status != "ok" {
		return fmt.Errorf("backend unhealthy: %q", h.Status)
	}
	return nil
}
