// Package pumpfun wraps the pump.fun launchpad: token metadata is pinned to
// IPFS through the site's upload endpoint, then the launch transaction is
// built by the trade-local service.
package pumpfun

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	xerrors "SolAgent-Kit/internal/errors"
)

const (
	defaultIPFSURL  = "https://pump.fun/api/ipfs"
	defaultTradeURL = "https://pumpportal.fun/api/trade-local"
	defaultTimeout  = 60 * time.Second

	// Launches trade against the bonding curve, so the tolerance is wide.
	defaultSlippagePercent = 5
	defaultPriorityFeeSOL  = 0.00005

	maxImageBytes = 8 << 20
)

// Config carries the launchpad endpoints.
type Config struct {
	IPFSURL  string
	TradeURL string
	Timeout  time.Duration
}

// Client talks to the launchpad services over HTTP.
type Client struct {
	ipfsURL    string
	tradeURL   string
	httpClient *http.Client
}

// NewClient builds a launchpad client from config.
func NewClient(cfg Config) *Client {
	ipfsURL := strings.TrimSpace(cfg.IPFSURL)
	if ipfsURL == "" {
		ipfsURL = defaultIPFSURL
	}
	tradeURL := strings.TrimSpace(cfg.TradeURL)
	if tradeURL == "" {
		tradeURL = defaultTradeURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		ipfsURL:    ipfsURL,
		tradeURL:   tradeURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// TokenMetadata is what gets pinned alongside the token image.
type TokenMetadata struct {
	Name        string
	Symbol      string
	Description string
	Twitter     string
	Telegram    string
	Website     string
}

// UploadMetadata fetches the image at imageURL, pins it with the metadata
// and returns the resulting metadata URI.
func (c *Client) UploadMetadata(ctx context.Context, meta TokenMetadata, imageURL string) (string, error) {
	if strings.TrimSpace(meta.Name) == "" || strings.TrimSpace(meta.Symbol) == "" {
		return "", xerrors.New(xerrors.CodeInvalidArgument, "token name and symbol are required")
	}
	if strings.TrimSpace(imageURL) == "" {
		return "", xerrors.New(xerrors.CodeInvalidArgument, "token image URL is required")
	}

	image, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		return "", err
	}

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	fields := map[string]string{
		"name":        meta.Name,
		"symbol":      meta.Symbol,
		"description": meta.Description,
		"twitter":     meta.Twitter,
		"telegram":    meta.Telegram,
		"website":     meta.Website,
		"showName":    "true",
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return "", fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	part, err := writer.CreateFormFile("file", "token-image")
	if err != nil {
		return "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("write image part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalise upload form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ipfsURL, &form)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeProviderFailure, err, "upload token metadata")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", xerrors.New(xerrors.CodeProviderFailure,
			fmt.Sprintf("metadata upload returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	var decoded struct {
		MetadataURI string `json:"metadataUri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", xerrors.Wrap(xerrors.CodeProviderFailure, err, "decode metadata upload response")
	}
	if strings.TrimSpace(decoded.MetadataURI) == "" {
		return "", xerrors.New(xerrors.CodeProviderFailure, "metadata upload returned no URI")
	}
	return decoded.MetadataURI, nil
}

func (c *Client) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "token image URL is malformed")
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeProviderFailure, err, "fetch token image")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, xerrors.New(xerrors.CodeProviderFailure,
			fmt.Sprintf("token image fetch returned status %d", resp.StatusCode))
	}
	image, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeProviderFailure, err, "read token image")
	}
	if len(image) == 0 {
		return nil, xerrors.New(xerrors.CodeProviderFailure, "token image is empty")
	}
	return image, nil
}

// LaunchRequest describes the launch transaction to build.
type LaunchRequest struct {
	User            solana.PublicKey
	Mint            solana.PublicKey
	Name            string
	Symbol          string
	MetadataURI     string
	DevBuySOL       float64
	SlippagePercent float64
	PriorityFeeSOL  float64
}

// BuildLaunchTransaction asks trade-local for the create transaction. The
// response body is the serialized transaction, signed later by the creator
// and the mint keypair.
func (c *Client) BuildLaunchTransaction(ctx context.Context, req LaunchRequest) ([]byte, error) {
	if strings.TrimSpace(req.MetadataURI) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "metadata URI is required")
	}
	slippage := req.SlippagePercent
	if slippage <= 0 {
		slippage = defaultSlippagePercent
	}
	priorityFee := req.PriorityFeeSOL
	if priorityFee <= 0 {
		priorityFee = defaultPriorityFeeSOL
	}

	body, err := json.Marshal(map[string]any{
		"publicKey": req.User.String(),
		"action":    "create",
		"tokenMetadata": map[string]string{
			"name":   req.Name,
			"symbol": req.Symbol,
			"uri":    req.MetadataURI,
		},
		"mint":             req.Mint.String(),
		"denominatedInSol": strconv.FormatBool(true),
		"amount":           req.DevBuySOL,
		"slippage":         slippage,
		"priorityFee":      priorityFee,
		"pool":             "pump",
	})
	if err != nil {
		return nil, fmt.Errorf("encode launch request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tradeURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build launch request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeProviderFailure, err, "call launch builder")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, xerrors.New(xerrors.CodeProviderFailure,
			fmt.Sprintf("launch builder returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeProviderFailure, err, "read launch transaction")
	}
	if len(raw) == 0 {
		return nil, xerrors.New(xerrors.CodeProviderFailure, "launch builder returned no transaction")
	}
	return raw, nil
}
