// Package mattermost is a small REST client for the chat server's team APIs.
package mattermost

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

	"go.uber.org/zap"

	"github.com/oktel/attendance-report/internal/service"
)

// Team is the subset of the chat server's team object the console needs.
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type teamPage struct {
	Teams      []Team `json:"teams"`
	TotalCount int64  `json:"total_count"`
}

// Client talks to {baseURL}/api/v4.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	metrics *service.MetricsService
	logger  *zap.Logger
}

// NewClient builds a client. An empty token sends no Authorization header.
func NewClient(baseURL, token string, timeout time.Duration, metrics *service.MetricsService, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		metrics: metrics,
		logger:  logger,
	}
}

// GetTeams lists one page of teams.
func (c *Client) GetTeams(ctx context.Context, page, perPage int) ([]Team, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("include_total_count", "true")

	var out teamPage
	if err := c.doJSON(ctx, http.MethodGet, "/api/v4/teams?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Teams, nil
}

// SearchTeams runs a server-side team search.
func (c *Client) SearchTeams(ctx context.Context, term string, page, perPage int) ([]Team, error) {
	body := map[string]interface{}{"term": term, "page": page, "per_page": perPage}
	var out teamPage
	if err := c.doJSON(ctx, http.MethodPost, "/api/v4/teams/search", body, &out); err != nil {
		return nil, err
	}
	return out.Teams, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
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
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream("mattermost", 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	c.metrics.ObserveUpstream("mattermost", resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Warn("mattermost call failed", zap.String("path", req.URL.Path), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("api error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
