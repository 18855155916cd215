// Package marketclock is a Go client for the marketclock-server HTTP API.
package marketclock

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marketclock/internal/dashboard"
	"marketclock/internal/httpapi"
	"marketclock/internal/util"
)

// Response types, re-exported so callers outside this module can name them.
type (
	Snapshot      = dashboard.Snapshot
	MarketView    = dashboard.MarketView
	ClockView     = dashboard.ClockView
	Health        = httpapi.HealthResponse
	ThemeResponse = httpapi.ThemeResponse
)

// Query filters market listings. Empty fields match everything.
type Query struct {
	Search  string
	Country string
	Status  string // all, open or closed
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Country != "" {
		v.Set("country", q.Country)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	return v
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketclock API: %d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client provides a Go SDK for interacting with the marketclock-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
}

// NewClient creates a new marketclock API client. Requests failing with a
// transport error or a 5xx status are retried up to three times.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		attempts:   3,
		backoff:    200 * time.Millisecond,
	}
}

// Health retrieves GET /api/health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &out)
	return out, err
}

// Snapshot retrieves the full dashboard state.
func (c *Client) Snapshot(ctx context.Context, q Query) (Snapshot, error) {
	var out Snapshot
	err := c.do(ctx, http.MethodGet, "/api/snapshot", q.values(), nil, &out)
	return out, err
}

// Markets retrieves the filtered market cards.
func (c *Client) Markets(ctx context.Context, q Query) ([]MarketView, error) {
	var out []MarketView
	err := c.do(ctx, http.MethodGet, "/api/markets", q.values(), nil, &out)
	return out, err
}

// Market retrieves one market card by exact name.
func (c *Client) Market(ctx context.Context, name string) (MarketView, error) {
	var out MarketView
	err := c.do(ctx, http.MethodGet, "/api/markets/"+url.PathEscape(name), nil, nil, &out)
	return out, err
}

// Clocks retrieves the world-clock tiles.
func (c *Client) Clocks(ctx context.Context) ([]ClockView, error) {
	var out []ClockView
	err := c.do(ctx, http.MethodGet, "/api/clocks", nil, nil, &out)
	return out, err
}

// Countries retrieves the distinct market countries.
func (c *Client) Countries(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/api/countries", nil, nil, &out)
	return out, err
}

// Theme retrieves the active theme.
func (c *Client) Theme(ctx context.Context) (ThemeResponse, error) {
	var out ThemeResponse
	err := c.do(ctx, http.MethodGet, "/api/theme", nil, nil, &out)
	return out, err
}

// SetTheme saves theme ("light" or "dark").
func (c *Client) SetTheme(ctx context.Context, theme string) (ThemeResponse, error) {
	var out ThemeResponse
	err := c.do(ctx, http.MethodPut, "/api/theme", nil, httpapi.ThemeRequest{Theme: theme}, &out)
	return out, err
}

// ToggleTheme flips the saved theme.
func (c *Client) ToggleTheme(ctx context.Context) (ThemeResponse, error) {
	var out ThemeResponse
	err := c.do(ctx, http.MethodPost, "/api/theme/toggle", nil, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	return util.Retry(ctx, c.attempts, c.backoff, func() error {
		req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
		if err != nil {
			return util.Permanent(err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return util.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
			if resp.StatusCode < 500 {
				return util.Permanent(apiErr)
			}
			return apiErr
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return util.Permanent(fmt.Errorf("decoding %s: %w", path, err))
		}
		return nil
	})
}

func readErrorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var e httpapi.ErrorResponse
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}
