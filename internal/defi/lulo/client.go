// Package lulo wraps the Lulo lending action service, which builds the
// deposit transaction server side.
package lulo

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

	"github.com/gagliardetto/solana-go"

	xerrors "SolAgent-Kit/internal/errors"
)

const (
	defaultBaseURL = "https://blink.lulo.fi"
	defaultTimeout = 30 * time.Second
)

// Config carries the action service endpoint.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the lending action service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a lending client from config.
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

// Deposit requests a lending deposit transaction for the given account.
// Amount is in display units of the symbol. Returns the unsigned
// transaction, base64 encoded.
func (c *Client) Deposit(ctx context.Context, account solana.PublicKey, amount float64, symbol string) (string, error) {
	if amount <= 0 {
		return "", xerrors.New(xerrors.CodeInvalidArgument, "deposit amount must be positive")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		symbol = "USDC"
	}

	body, err := json.Marshal(map[string]string{"account": account.String()})
	if err != nil {
		return "", fmt.Errorf("encode deposit request: %w", err)
	}

	query := url.Values{}
	query.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))
	query.Set("symbol", symbol)
	endpoint := c.baseURL + "/actions?" + query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build deposit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeProviderFailure, err, "call lending service")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", xerrors.New(xerrors.CodeProviderFailure,
			fmt.Sprintf("lending service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	var decoded struct {
		Transaction string `json:"transaction"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", xerrors.Wrap(xerrors.CodeProviderFailure, err, "decode lending response")
	}
	if strings.TrimSpace(decoded.Transaction) == "" {
		return "", xerrors.New(xerrors.CodeProviderFailure, "lending service returned no transaction")
	}
	return decoded.Transaction, nil
}
