// Package client talks to the TriMetric HTTP API. It implements the editor's
// score transport, so a View can run against a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/raysh454/trimetric/internal/logging"
	"github.com/raysh454/trimetric/internal/model"
	"github.com/raysh454/trimetric/internal/score"
)

// DefaultTimeout bounds every request unless overridden.
const DefaultTimeout = 30 * time.Second

// Client is a net/http backed API client.
type Client struct {
	base   *url.URL
	client *http.Client
	logger logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTimeout sets the request timeout. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http or https, got %q", baseURL)
	}
	c := &Client{
		base:   u,
		client: &http.Client{Timeout: DefaultTimeout},
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logging.Field{Key: "component", Value: "client"})
	return c, nil
}

// Timeout reports the effective request timeout.
func (c *Client) Timeout() time.Duration { return c.client.Timeout }

// FetchScores is the fetch-score endpoint.
func (c *Client) FetchScores(ctx context.Context, firmID string) (*model.ScoresData, error) {
	var doc model.ScoresData
	if err := c.do(ctx, http.MethodGet, firmPath(firmID, "scores"), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateFactor is the partial-update endpoint. It returns the whole document.
func (c *Client) UpdateFactor(ctx context.Context, u model.FactorUpdate) (*model.ScoresData, error) {
	var doc model.ScoresData
	if err := c.do(ctx, http.MethodPatch, firmPath(u.FirmID, "scores"), u, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) CreateFirm(ctx context.Context, in model.NewFirm) (*model.Firm, error) {
	var f model.Firm
	if err := c.do(ctx, http.MethodPost, "/firms", in, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) ListFirms(ctx context.Context) ([]model.Firm, error) {
	var firms []model.Firm
	if err := c.do(ctx, http.MethodGet, "/firms", nil, &firms); err != nil {
		return nil, err
	}
	return firms, nil
}

func (c *Client) GetFirm(ctx context.Context, firm string) (*model.Firm, error) {
	var f model.Firm
	if err := c.do(ctx, http.MethodGet, firmPath(firm), nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// SetPTIScore sets or, with nil, clears the display-only PTI score.
func (c *Client) SetPTIScore(ctx context.Context, firm string, pti *float64) (*model.ScoresData, error) {
	var doc model.ScoresData
	body := struct {
		PTIScore *float64 `json:"ptiScore"`
	}{pti}
	if err := c.do(ctx, http.MethodPut, firmPath(firm, "pti"), body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) Summary(ctx context.Context, firm string) (*score.Breakdown, error) {
	var b score.Breakdown
	if err := c.do(ctx, http.MethodGet, firmPath(firm, "scores", "summary"), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) Integrity(ctx context.Context, firm string) ([]score.Issue, error) {
	var issues []score.Issue
	if err := c.do(ctx, http.MethodGet, firmPath(firm, "scores", "integrity"), nil, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (c *Client) History(ctx context.Context, firm string, limit int) ([]model.ScoreEvent, error) {
	p := firmPath(firm, "scores", "history")
	if limit > 0 {
		p += "?limit=" + strconv.Itoa(limit)
	}
	var events []model.ScoreEvent
	if err := c.do(ctx, http.MethodGet, p, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("sending http request",
		logging.Field{Key: "method", Value: method},
		logging.Field{Key: "path", Value: path})

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("http request failed",
			logging.Field{Key: "method", Value: method},
			logging.Field{Key: "path", Value: path},
			logging.Err(err))
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		re := &model.RemoteError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, re)
		re.Status = resp.StatusCode
		return re
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func firmPath(firm string, rest ...string) string {
	parts := append([]string{"firms", url.PathEscape(firm)}, rest...)
	return "/" + strings.Join(parts, "/")
}
