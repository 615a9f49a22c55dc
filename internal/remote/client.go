// Implements the record service client with request throttling.

package remote

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

	"golang.org/x/time/rate"

	"github.com/maruel/propertyhub/internal/records"
)

// maxResponseBytes caps the size of a response body.
const maxResponseBytes = 16 << 20

// Client is a records.Store talking to a remote record service.
type Client struct {
	baseURL    string
	projectID  string
	key        []byte
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient returns a client for the service at baseURL. Consecutive
// requests are spaced by at least minInterval; zero disables throttling.
func NewClient(baseURL, projectID string, key []byte, minInterval time.Duration) *Client {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		projectID:  projectID,
		key:        key,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Fetch implements records.Store.
func (c *Client) Fetch(ctx context.Context, table string, q records.Query) ([]records.Record, error) {
	env, err := c.do(ctx, http.MethodPost, tablePath(table)+"/fetch", q)
	if err != nil {
		return nil, err
	}
	var out []records.Record
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse fetch response: %w", err)
	}
	return out, nil
}

// Get implements records.Store.
func (c *Client) Get(ctx context.Context, table string, id int64, fields []string) (records.Record, error) {
	p := tablePath(table) + "/" + strconv.FormatInt(id, 10)
	if len(fields) > 0 {
		p += "?" + url.Values{"fields": {strings.Join(fields, ",")}}.Encode()
	}
	env, err := c.do(ctx, http.MethodGet, p, nil)
	if err != nil {
		return nil, err
	}
	var out records.Record
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return nil, fmt.Errorf("failed to parse get response: %w", err)
		}
	}
	return out, nil
}

// Create implements records.Store.
func (c *Client) Create(ctx context.Context, table string, recs []records.Record) ([]records.Result, error) {
	return c.results(ctx, http.MethodPost, table, &mutateRequest{Records: recs}, len(recs))
}

// Update implements records.Store.
func (c *Client) Update(ctx context.Context, table string, recs []records.Record) ([]records.Result, error) {
	return c.results(ctx, http.MethodPatch, table, &mutateRequest{Records: recs}, len(recs))
}

// Delete implements records.Store.
func (c *Client) Delete(ctx context.Context, table string, ids []int64) ([]records.Result, error) {
	return c.results(ctx, http.MethodDelete, table, &deleteRequest{RecordIDs: ids}, len(ids))
}

func (c *Client) results(ctx context.Context, method, table string, body any, n int) ([]records.Result, error) {
	env, err := c.do(ctx, method, tablePath(table), body)
	if err != nil {
		return nil, err
	}
	if len(env.Results) != n {
		return nil, fmt.Errorf("expected %d results, got %d", n, len(env.Results))
	}
	return env.Results, nil
}

// do performs a throttled, authenticated request and decodes the envelope.
// A failed envelope is returned as a *records.RemoteError.
func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if len(c.key) > 0 {
		tok, err := signToken(c.projectID, c.key, time.Now())
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &records.RemoteError{Message: fmt.Sprintf("status %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))}
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.StatusCode >= 400 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &records.RemoteError{Message: msg}
	}
	return &env, nil
}

func tablePath(table string) string {
	return "/records/" + url.PathEscape(table)
}
