// Package backend talks to the store backend that owns fridge, recipe and
// group data.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fridgewatch/fridgewatch/backend/internal/model"
)

const (
	fridgePath  = "/api/fridge/"
	recipesPath = "/api/recipes/"

	maxResponseBytes = 8 << 20
	maxErrorBody     = 512
)

// ErrUnauthorized is matched by StatusErrors for 401 and 403 responses.
var ErrUnauthorized = errors.New("store backend rejected credentials")

// StatusError is returned when the store backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("store backend returned status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// Recorder observes outbound requests. metrics.Collector implements it.
type Recorder interface {
	RecordBackendRequest(endpoint, outcome string, d time.Duration)
}

// Config configures the store backend client.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client is the HTTP client for the store backend's JSON API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	recorder   Recorder
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRecorder reports every request to r.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a Client for cfg.BaseURL.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend base url %q is not absolute", cfg.BaseURL)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type fridgeResponse struct {
	Items []model.FridgeItem `json:"items"`
}

// ListFridgeItems returns the inventory of a group. An empty groupID omits
// the filter so the store backend falls back to the user's default group.
func (c *Client) ListFridgeItems(ctx context.Context, token, groupID string) ([]model.FridgeItem, error) {
	q := url.Values{}
	if groupID != "" {
		q.Set("group_id", groupID)
	}

	var resp fridgeResponse
	if err := c.getJSON(ctx, "fridge", fridgePath, q, token, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return []model.FridgeItem{}, nil
	}
	return resp.Items, nil
}

// ListRecipes returns every recipe visible to the caller. Both a bare array
// and a paginated {"results": [...]} body are accepted.
func (c *Client) ListRecipes(ctx context.Context, token string) ([]model.Recipe, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "recipes", recipesPath, nil, token, &raw); err != nil {
		return nil, err
	}

	recipes := []model.Recipe{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &recipes); err != nil {
			return nil, fmt.Errorf("decode recipes: %w", err)
		}
		return recipes, nil
	}

	var page struct {
		Results []model.Recipe `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	if page.Results != nil {
		recipes = page.Results
	}
	return recipes, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, token string, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.recorder != nil {
			c.recorder.RecordBackendRequest(endpoint, outcome(err), time.Since(start))
		}
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for backend rate limiter: %w", err)
	}

	u := c.baseURL.JoinPath(path)
	// JoinPath drops the trailing slash the backend routes require.
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("store backend request failed",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("store backend returned error status",
			slog.String("endpoint", endpoint),
			slog.Int("http_status", resp.StatusCode),
		)
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func outcome(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &se):
		return fmt.Sprintf("status_%d", se.StatusCode)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
