package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/joescharf/checkin/internal/models"
)

// ErrNotConfigured is returned by Ping when no endpoint URL is set.
var ErrNotConfigured = errors.New("sheet endpoint URL not configured")

// Client records check-ins on the remote sheet endpoint.
//
// Both actions are POSTed as JSON with a text/plain content type and the
// response body is always read (readable-response mode). Every failure is
// logged and turned into false; callers never see an error.
type Client struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a client for the endpoint at url. A zero timeout means
// requests are bounded only by the caller's context.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger.With("component", "sheets"),
	}
}

// Configured reports whether an endpoint URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

// CheckExists asks the endpoint whether identity already has a row for period.
// Any failure or ambiguous answer yields false.
func (c *Client) CheckExists(ctx context.Context, identity, period string) bool {
	if !c.Configured() {
		c.logger.Warn("sheet endpoint not configured, relying on local reviews only")
		return false
	}

	resp, err := c.post(ctx, Request{Action: ActionCheck, Email: identity, MonthID: period})
	if err != nil {
		c.logger.Warn("remote check failed", "email", identity, "month_id", period, "error", err)
		return false
	}
	if !resp.Success {
		c.logger.Warn("remote check returned an error", "error", resp.Error)
		return false
	}
	if resp.Exists == nil {
		c.logger.Warn("remote check response has no exists field")
		return false
	}

	c.logger.Debug("remote check", "email", identity, "month_id", period, "exists", *resp.Exists)
	return *resp.Exists
}

// Append sends review to the endpoint and reports whether it was accepted.
func (c *Client) Append(ctx context.Context, review *models.Review) bool {
	if !c.Configured() {
		c.logger.Warn("sheet endpoint not configured, review kept locally only")
		return false
	}

	resp, err := c.post(ctx, Request{Action: ActionAppend, Data: models.SheetRowFromReview(review)})
	if errors.Is(err, errUnreadableBody) {
		// The row was delivered; only the answer is unreadable.
		c.logger.Info("review sent to sheet (non-JSON response)", "email", review.Identity)
		return true
	}
	if err != nil {
		c.logger.Warn("remote append failed", "email", review.Identity, "error", err)
		return false
	}
	if !resp.Success {
		c.logger.Warn("remote append rejected", "email", review.Identity, "error", resp.Error)
		return false
	}

	c.logger.Info("review saved to sheet", "email", review.Identity, "row", resp.Row)
	return true
}

// Ping fetches the endpoint's status message.
func (c *Client) Ping(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("endpoint error: %s", resp.Error)
	}
	return resp.Message, nil
}

var errUnreadableBody = errors.New("response body is not JSON")

func (c *Client) post(ctx context.Context, body Request) (*Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	// text/plain keeps browsers from sending a CORS preflight the endpoint may not answer.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", errUnreadableBody, err)
	}
	return &out, nil
}
