// Package botclient calls the bot-service attendance and upload endpoints on
// behalf of the console.
package botclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oktel/attendance-report/internal/models"
	"github.com/oktel/attendance-report/internal/service"
	"github.com/oktel/attendance-report/pkg/middleware/requestid"
)

// TokenSource supplies the bearer token for outbound calls. An empty token
// sends no Authorization header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

// Token returns the token itself.
func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// StatusError reports a non-2xx reply. Its message is what the console shows.
type StatusError struct {
	Kind   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: %d", e.Kind, e.Status)
}

// Config wires the client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Tokens  TokenSource
	Metrics *service.MetricsService
	Logger  *zap.Logger
}

// Client is a bot-service HTTP client with credentialed cookie semantics.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	metrics *service.MetricsService
	logger  *zap.Logger
}

// New builds a client. It keeps no cookies: one client serves many callers
// and identity travels only in the per-request bearer token.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if _, err := url.ParseRequestURI(base); err != nil || base == "" {
		return nil, fmt.Errorf("invalid bot-service base url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Tokens == nil {
		cfg.Tokens = StaticToken("")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  cfg.Tokens,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}, nil
}

// FetchStats loads the aggregate counters for [from, to].
func (c *Client) FetchStats(ctx context.Context, filter models.ReportFilter) (*models.AttendanceStats, error) {
	var stats models.AttendanceStats
	if err := c.getJSON(ctx, "Stats", "/bot-service/attendance/stats", filter, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// FetchReport loads the per-user report for [from, to].
func (c *Client) FetchReport(ctx context.Context, filter models.ReportFilter) (*models.AttendanceReport, error) {
	var report models.AttendanceReport
	if err := c.getJSON(ctx, "Report", "/bot-service/attendance/report", filter, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// FetchAll issues both calls concurrently and fails if either fails.
func (c *Client) FetchAll(ctx context.Context, filter models.ReportFilter) (*models.AttendanceStats, *models.AttendanceReport, error) {
	var (
		stats  *models.AttendanceStats
		report *models.AttendanceReport
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = c.FetchStats(gCtx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		report, err = c.FetchReport(gCtx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return stats, report, nil
}

// UploadFile posts one file as multipart field "files" with channel_id and
// returns the id of the first stored file.
func (c *Client) UploadFile(ctx context.Context, channelID, filename string, content io.Reader) (string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("channel_id", channelID); err != nil {
		return "", fmt.Errorf("write channel_id: %w", err)
	}
	part, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/files", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		FileInfos []models.FileInfo `json:"file_infos"`
	}
	if err := c.do(req, "Upload", &out); err != nil {
		return "", err
	}
	if len(out.FileInfos) == 0 || out.FileInfos[0].ID == "" {
		return "", errors.New("upload response carried no file_infos")
	}
	return out.FileInfos[0].ID, nil
}

func (c *Client) getJSON(ctx context.Context, kind, path string, filter models.ReportFilter, dest interface{}) error {
	q := url.Values{}
	q.Set("from", filter.From)
	q.Set("to", filter.To)
	if filter.TeamID != "" {
		q.Set("team_id", filter.TeamID)
	}
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, kind, dest)
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, kind string, dest interface{}) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(strings.ToLower(kind), 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	c.metrics.ObserveUpstream(strings.ToLower(kind), resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Warn("bot-service call failed", zap.String("kind", kind), zap.String("url", req.URL.Path), zap.Int("status", resp.StatusCode))
		return &StatusError{Kind: kind, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s response: %w", strings.ToLower(kind), err)
	}
	return nil
}
