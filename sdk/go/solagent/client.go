// Package solagent is a small Go client for the SolAgent Kit REST API.
package solagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

// DefaultHTTPTimeout is used by clients created without a custom http.Client.
const DefaultHTTPTimeout = 30 * time.Second

// Client wraps the HTTP interactions with the SolAgent Kit REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	apiKey     string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithAPIKey attaches a static API key to every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// NewClient builds a client for the given base URL.
func NewClient(rawURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	client := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// ToolDefinition describes one server-side tool.
type ToolDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// InvokeResponse carries a synchronous tool result.
type InvokeResponse struct {
	Tool   string          `json:"tool"`
	Result json.RawMessage `json:"result"`
}

// Operation mirrors the server-side operation record.
type Operation struct {
	ID         string          `json:"id"`
	Tool       string          `json:"tool"`
	Args       json.RawMessage `json:"args,omitempty"`
	Status     string          `json:"status"`
	Attempts   int             `json:"attempts"`
	MaxRetries int             `json:"max_retries"`
	LastError  string          `json:"last_error,omitempty"`
	ErrorCode  string          `json:"error_code,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	CreatedAt  int64           `json:"created_at"`
	UpdatedAt  int64           `json:"updated_at"`
}

// Terminal reports whether the operation reached a final state.
func (o Operation) Terminal() bool {
	return o.Status == "succeeded" || o.Status == "failed"
}

// OperationStats aggregates operation counts.
type OperationStats struct {
	Total           int64 `json:"total"`
	Pending         int64 `json:"pending"`
	Running         int64 `json:"running"`
	Succeeded       int64 `json:"succeeded"`
	Failed          int64 `json:"failed"`
	OldestUpdatedAt int64 `json:"oldest_updated_at"`
	NewestUpdatedAt int64 `json:"newest_updated_at"`
}

// ListQuery filters operation listings. Zero values are omitted.
type ListQuery struct {
	Statuses []string
	Tool     string
	Limit    int
	Offset   int
	Order    string
}

// APIError represents a server-side failure.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return fmt.Sprintf("solagent api error (%d): %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("solagent api error (%d): %s", e.StatusCode, e.Message)
}

// Tools lists the registered tools.
func (c *Client) Tools(ctx context.Context) ([]ToolDefinition, error) {
	var body struct {
		Tools []ToolDefinition `json:"tools"`
	}
	if err := c.get(ctx, "/api/v1/tools", &body); err != nil {
		return nil, err
	}
	return body.Tools, nil
}

// Invoke runs one tool synchronously.
func (c *Client) Invoke(ctx context.Context, tool string, args any) (*InvokeResponse, error) {
	payload := struct {
		Tool string `json:"tool"`
		Args any    `json:"args,omitempty"`
	}{Tool: tool, Args: args}
	var out InvokeResponse
	if err := c.post(ctx, "/api/v1/invoke", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitOperation enqueues one asynchronous tool invocation. A non-empty id
// makes the submission idempotent.
func (c *Client) SubmitOperation(ctx context.Context, id, tool string, args any) (*Operation, error) {
	payload := struct {
		ID   string `json:"id,omitempty"`
		Tool string `json:"tool"`
		Args any    `json:"args,omitempty"`
	}{ID: id, Tool: tool, Args: args}
	var out Operation
	if err := c.post(ctx, "/api/v1/operations", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOperation fetches one operation by ID.
func (c *Client) GetOperation(ctx context.Context, id string) (*Operation, error) {
	var out Operation
	if err := c.get(ctx, "/api/v1/operations/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOperations fetches matching operations.
func (c *Client) ListOperations(ctx context.Context, query ListQuery) ([]Operation, error) {
	var body struct {
		Operations []Operation `json:"operations"`
	}
	if err := c.get(ctx, "/api/v1/operations"+query.encode(), &body); err != nil {
		return nil, err
	}
	return body.Operations, nil
}

// OperationStats fetches aggregate counts.
func (c *Client) OperationStats(ctx context.Context, query ListQuery) (*OperationStats, error) {
	var out OperationStats
	if err := c.get(ctx, "/api/v1/operations/stats"+query.encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitForOperation polls until the operation reaches a terminal state.
func (c *Client) WaitForOperation(ctx context.Context, id string, interval time.Duration) (*Operation, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		op, err := c.GetOperation(ctx, id)
		if err != nil {
			return nil, err
		}
		if op.Terminal() {
			return op, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (q ListQuery) encode() string {
	values := url.Values{}
	if len(q.Statuses) > 0 {
		values.Set("status", strings.Join(q.Statuses, ","))
	}
	if q.Tool != "" {
		values.Set("tool", q.Tool)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Order != "" {
		values.Set("order", q.Order)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	pathPart := endpoint
	query := ""
	if idx := strings.IndexByte(endpoint, '?'); idx >= 0 {
		pathPart, query = endpoint[:idx], endpoint[idx+1:]
	}
	rel := &url.URL{Path: path.Join(c.baseURL.Path, pathPart), RawQuery: query}
	u := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return fmt.Errorf("read error response: %w", readErr)
		}
		if len(data) > 0 {
			_ = json.Unmarshal(data, apiErr)
		}
		if apiErr.Message == "" {
			apiErr.Message = string(bytes.TrimSpace(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
