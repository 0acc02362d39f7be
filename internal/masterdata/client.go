// Package masterdata talks to the master-data and run submission API:
// dependent option lists, uniqueness checks and run submission.
package masterdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/drillrun/runwiz/internal/dependency"
	"github.com/drillrun/runwiz/internal/logger"
	"github.com/drillrun/runwiz/internal/runrecord"
)

// DefaultTimeout bounds each request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("api: %d %s (request %s)", e.Status, msg, e.RequestID)
}

// Conflict reports whether the API rejected a duplicate.
func (e *APIError) Conflict() bool { return e.Status == http.StatusConflict }

// Client calls the API rooted at a base URL such as
// http://127.0.0.1:8080/api.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the options of tier below parent.
func (c *Client) Fetch(ctx context.Context, tier, parent string) ([]dependency.Option, error) {
	q := url.Values{}
	if parent != "" {
		q.Set("parent", parent)
	}
	var opts []dependency.Option
	if err := c.do(ctx, http.MethodGet, "/options/"+url.PathEscape(tier), q, nil, nil, &opts); err != nil {
		return nil, fmt.Errorf("fetching %s options: %w", tier, err)
	}
	return opts, nil
}

// CheckUnique reports whether value is already used for field.
func (c *Client) CheckUnique(ctx context.Context, field, value string) (bool, error) {
	var out struct {
		Exists bool `json:"exists"`
	}
	q := url.Values{"value": {value}}
	if err := c.do(ctx, http.MethodGet, "/unique/"+url.PathEscape(field), q, nil, nil, &out); err != nil {
		return false, fmt.Errorf("checking %s: %w", field, err)
	}
	return out.Exists, nil
}

// Submit posts the run. The payload id is sent as the idempotency key, so
// a retried submission is recorded once.
func (c *Client) Submit(ctx context.Context, p runrecord.Payload) error {
	hdr := http.Header{"Idempotency-Key": {p.ID}}
	if err := c.do(ctx, http.MethodPost, "/runs", nil, hdr, p, nil); err != nil {
		return fmt.Errorf("submitting run: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, hdr http.Header, body, out any) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header[k] = v
	}

	logger.Debug("api %s %s (request %s)", method, u, reqID)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, RequestID: reqID}
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
