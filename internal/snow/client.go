// Package snow is a minimal ServiceNow Table API client. It covers
// exactly the surface the sync engine consumes: query records by field
// value and update fields on an existing record. It never creates or
// deletes records.
package snow

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
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 15 * time.Second
	defaultRPS     = 5
	defaultBurst   = 5

	// maxResponseBytes bounds how much of a Table API response is read.
	// Script bodies are text; anything past 4 MiB is not a script.
	maxResponseBytes = 4 << 20
)

// Config holds connection settings for one instance.
type Config struct {
	URL      string
	Username string
	Password string
	RPS      float64       // requests per second, 0 = default
	Burst    int           // limiter burst, 0 = default
	Timeout  time.Duration // per-request timeout, 0 = default
	Logger   *slog.Logger
}

// Client talks to a single ServiceNow instance. It is safe for
// concurrent use.
type Client struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// New validates the config and returns a ready client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("instance URL is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid instance URL %q: %w", cfg.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("instance URL %q must be http or https", cfg.URL)
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("instance username is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = defaultRPS
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		logger:   logger.With(slog.String("component", "snow")),
	}, nil
}

// listResponse is the Table API envelope for collection reads.
type listResponse struct {
	Result []Record `json:"result"`
}

// recordResponse is the Table API envelope for single-record writes.
type recordResponse struct {
	Result Record `json:"result"`
}

// errorResponse is the Table API error envelope.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	} `json:"error"`
}

// Query returns the records of table matching q. Zero matches is not an
// error; the Table API reports it as an empty result list.
func (c *Client) Query(ctx context.Context, table string, q Query) ([]Record, error) {
	if table == "" {
		return nil, fmt.Errorf("table is required")
	}

	params := url.Values{}
	if len(q.Match) > 0 {
		terms := make([]string, 0, len(q.Match))
		for field, value := range q.Match {
			terms = append(terms, field+"="+value)
		}
		sort.Strings(terms)
		params.Set("sysparm_query", strings.Join(terms, "^"))
	}
	if q.Limit > 0 {
		params.Set("sysparm_limit", strconv.Itoa(q.Limit))
	}
	if len(q.Fields) > 0 {
		params.Set("sysparm_fields", strings.Join(q.Fields, ","))
	}

	reqURL := c.baseURL + "/api/now/table/" + url.PathEscape(table)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	body, err := c.doRequest(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse query response: %w", err)
	}
	return resp.Result, nil
}

// Update patches fields on an existing record and returns the updated
// row as the instance reports it.
func (c *Client) Update(ctx context.Context, table, sysID string, fields map[string]string) (Record, error) {
	if table == "" {
		return nil, fmt.Errorf("table is required")
	}
	if sysID == "" {
		return nil, fmt.Errorf("sys_id is required")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode update payload: %w", err)
	}

	reqURL := c.baseURL + "/api/now/table/" + url.PathEscape(table) + "/" + url.PathEscape(sysID)
	body, err := c.doRequest(ctx, http.MethodPatch, reqURL, bytes.NewReader(payload))
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			nf.Table = table
			nf.ID = sysID
		}
		return nil, err
	}

	var resp recordResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse update response: %w", err)
	}
	return resp.Result, nil
}

// TestConnection issues a one-row query against sys_script to verify the
// URL and credentials without touching any data.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Query(ctx, "sys_script", Query{Limit: 1, Fields: []string{"sys_id"}})
	return err
}

// doRequest executes one HTTP call with rate limiting, auth, and status
// mapping. The caller owns interpretation of the returned body.
func (c *Client) doRequest(ctx context.Context, method, reqURL string, body io.Reader) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("requesting", slog.String("method", method), slog.String("url", reqURL))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("instance unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &NotFoundError{}
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		return nil, &StatusError{Code: resp.StatusCode, Detail: readErrorDetail(resp.Body)}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

// readErrorDetail extracts the instance's error message from a failed
// response body, falling back to the raw text.
func readErrorDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 8*1024))
	if err != nil {
		return ""
	}
	var e errorResponse
	if json.Unmarshal(data, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return strings.TrimSpace(string(data))
}
