// Package meteora wraps a DLMM pool transaction builder service plus the
// bin grid math needed to position a new pool's active bin.
package meteora

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	xerrors "SolAgent-Kit/internal/errors"
)

const defaultTimeout = 30 * time.Second

// Config carries the builder service endpoint. There is no production
// default; pool creation is disabled until an endpoint is configured.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the pool builder service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a pool builder client from config.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a builder endpoint is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// CreatePoolRequest describes the customizable pool to initialise.
// ActivationPoint is a slot or unix timestamp depending on ActivationType;
// nil means immediate activation.
type CreatePoolRequest struct {
	Creator         solana.PublicKey
	BaseMint        solana.PublicKey
	QuoteMint       solana.PublicKey
	BinStep         uint16
	ActiveBin       int32
	PricePerLamport float64
	FeeBPS          uint16
	AlphaVault      bool
	ActivationType  string
	ActivationPoint *uint64
}

// BuildCreatePool asks the builder for the pool initialisation transaction.
// Returns the unsigned transaction, base64 encoded.
func (c *Client) BuildCreatePool(ctx context.Context, req CreatePoolRequest) (string, error) {
	if !c.Enabled() {
		return "", xerrors.New(xerrors.CodeInvalidArgument, "pool builder endpoint is not configured")
	}

	payload := map[string]any{
		"creator":         req.Creator.String(),
		"baseMint":        req.BaseMint.String(),
		"quoteMint":       req.QuoteMint.String(),
		"binStep":         req.BinStep,
		"activeBin":       req.ActiveBin,
		"pricePerLamport": req.PricePerLamport,
		"feeBps":          req.FeeBPS,
		"alphaVault":      req.AlphaVault,
	}
	if req.ActivationType != "" {
		payload["activationType"] = req.ActivationType
	}
	if req.ActivationPoint != nil {
		payload["activationPoint"] = *req.ActivationPoint
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode pool request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pools", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build pool request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeProviderFailure, err, "call pool builder")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", xerrors.New(xerrors.CodeProviderFailure,
			fmt.Sprintf("pool builder returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	var decoded struct {
		Transaction string `json:"transaction"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", xerrors.Wrap(xerrors.CodeProviderFailure, err, "decode pool builder response")
	}
	if strings.TrimSpace(decoded.Transaction) == "" {
		return "", xerrors.New(xerrors.CodeProviderFailure, "pool builder returned no transaction")
	}
	return decoded.Transaction, nil
}
