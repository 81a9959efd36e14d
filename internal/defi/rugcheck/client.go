// Package rugcheck wraps the rugcheck.xyz token risk report API.
package rugcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	xerrors "SolAgent-Kit/internal/errors"
)

const (
	defaultBaseURL = "https://api.rugcheck.xyz/v1"
	defaultTimeout = 30 * time.Second
)

// Config carries the report API endpoint.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the risk report API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a risk report client from config.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Risk is one flagged issue on a token report.
type Risk struct {
	Name        string  `json:"name"`
	Value       string  `json:"value,omitempty"`
	Description string  `json:"description,omitempty"`
	Level       string  `json:"level,omitempty"`
	Score       float64 `json:"score,omitempty"`
}

// Summary is the condensed risk report for a mint. Higher scores mean
// higher risk.
type Summary struct {
	Score float64 `json:"score"`
	Risks []Risk  `json:"risks"`
}

// ReportSummary fetches the condensed report for a mint address.
func (c *Client) ReportSummary(ctx context.Context, mint string) (*Summary, error) {
	mint = strings.TrimSpace(mint)
	if mint == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "mint address is required")
	}

	endpoint := fmt.Sprintf("%s/tokens/%s/report/summary", c.baseURL, url.PathEscape(mint))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build report request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeProviderFailure, err, "call risk report service")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, xerrors.New(xerrors.CodeNotFound,
			fmt.Sprintf("no risk report for mint %s", mint))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, xerrors.New(xerrors.CodeProviderFailure,
			fmt.Sprintf("risk report service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	var summary Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeProviderFailure, err, "decode risk report")
	}
	return &summary, nil
}
