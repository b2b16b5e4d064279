/*
client.go - Remote sync client for the spreadsheet-backed endpoint

PURPOSE:
  Stateless request/response conduit to a single HTTP endpoint (usually a
  spreadsheet web-app proxy) that keeps the store of record.

PROTOCOL:
  Save:      POST <endpoint>               {"action":"save","data":<record>}
  Fetch-all: GET  <endpoint>?action=getAll  -> {"data":[<record>, ...]}
  Delete:    POST <endpoint>               {"action":"delete","date":"..."}

CONFIGURATION:
  The endpoint is injected at construction. An empty endpoint is the
  expected "not configured" state: every call returns immediately without
  touching the network.

WRITE MODES:
  confirm:  Read the response status. 2xx -> confirmed, else failed.
  dispatch: Send and do not inspect the response. A request that left
            without a transport error is "dispatched", which says nothing
            about whether the remote side applied it.

SEE ALSO:
  - result.go: Result states
  - syncer/syncer.go: Policy built on top of this client
*/
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/warp/opsreport/report"
)

// DefaultTimeout bounds every remote call.
const DefaultTimeout = 10 * time.Second

// WriteMode selects how write responses are treated.
type WriteMode string

const (
	WriteModeConfirm  WriteMode = "confirm"
	WriteModeDispatch WriteMode = "dispatch"
)

// Config configures a Client.
type Config struct {
	Endpoint  string
	Timeout   time.Duration
	WriteMode WriteMode
}

// Client talks to the remote endpoint.
type Client struct {
	endpoint string
	mode     WriteMode
	timeout  time.Duration
	http     *http.Client
	logger   *log.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client. An empty cfg.Endpoint yields a not-configured client.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		endpoint: cfg.Endpoint,
		mode:     cfg.WriteMode,
		timeout:  cfg.Timeout,
	}
	if c.mode == "" {
		c.mode = WriteModeConfirm
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.logger == nil {
		c.logger = log.New(os.Stderr, "[remote] ", log.LstdFlags)
	}
	return c
}

// Configured reports whether an endpoint is set.
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

// Endpoint returns the configured endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type saveRequest struct {
	Action string        `json:"action"`
	Data   report.Record `json:"data"`
}

type deleteRequest struct {
	Action string `json:"action"`
	Date   string `json:"date"`
}

type getAllResponse struct {
	Data []report.Record `json:"data"`
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Push sends a save request for one record.
func (c *Client) Push(ctx context.Context, rec report.Record) Result {
	if !c.Configured() {
		return NotConfigured()
	}
	res := c.post(ctx, saveRequest{Action: "save", Data: rec})
	if res.Status == StatusFailed {
		c.logger.Printf("WARNING: sync of %s failed: %s", rec.Date, res.Reason)
	}
	return res
}

// Delete sends a best-effort delete request. Failures are logged and
// reported in the result, never as an error.
func (c *Client) Delete(ctx context.Context, date string) Result {
	if !c.Configured() {
		return NotConfigured()
	}
	res := c.post(ctx, deleteRequest{Action: "delete", Date: date})
	if res.Status == StatusFailed {
		c.logger.Printf("WARNING: remote delete of %s failed: %s", date, res.Reason)
	}
	return res
}

// PullAll fetches every record from the endpoint.
//
// A nil error means the remote answered; the slice may be empty.
// ErrNotConfigured and ErrUnreachable distinguish "no remote" and
// "remote did not answer usefully" from "remote has no data".
func (c *Client) PullAll(ctx context.Context) ([]report.Record, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := c.url(url.Values{"action": {"getAll"}})
	if err != nil {
		return nil, unreachable(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, unreachable(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("WARNING: fetch failed: %v", err)
		return nil, unreachable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("HTTP %d", resp.StatusCode)
		c.logger.Printf("WARNING: fetch failed: %v", err)
		return nil, unreachable(err)
	}

	var body getAllResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Printf("WARNING: fetch returned malformed payload: %v", err)
		return nil, unreachable(fmt.Errorf("malformed payload: %w", err))
	}
	if body.Data == nil {
		body.Data = []report.Record{}
	}
	return body.Data, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Client) post(ctx context.Context, payload any) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return Failed(err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Failed(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Failed(err.Error())
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if c.mode == WriteModeDispatch {
		return Dispatched()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Failed(fmt.Sprintf("HTTP %d", resp.StatusCode))
	}
	return Confirmed()
}

func (c *Client) url(extra url.Values) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
