// Package jupiter wraps the Jupiter aggregator: swap quotes, swap
// transaction building, the jupSOL staking blink and the price feed.
package jupiter

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
	"SolAgent-Kit/internal/tokens"
)

const (
	defaultQuoteURL = "https://quote-api.jup.ag/v6"
	defaultPriceURL = "https://api.jup.ag/price/v2"
	defaultStakeURL = "https://worker.jup.ag/blinks/swap"
	defaultTimeout  = 30 * time.Second

	// DefaultSlippageBPS caps price movement at 3% when a request does not
	// set its own tolerance.
	DefaultSlippageBPS = 300

	// Route constraints keep the built transaction small enough to sign
	// and submit without address lookup tables.
	maxRouteAccounts = 20
)

// Config carries the aggregator endpoints. Empty fields use production URLs.
type Config struct {
	QuoteURL string
	PriceURL string
	StakeURL string
	Timeout  time.Duration
}

// Client talks to the aggregator over HTTP.
type Client struct {
	quoteURL   string
	priceURL   string
	stakeURL   string
	httpClient *http.Client
}

// NewClient builds an aggregator client from config.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		quoteURL:   normalizeURL(cfg.QuoteURL, defaultQuoteURL),
		priceURL:   normalizeURL(cfg.PriceURL, defaultPriceURL),
		stakeURL:   normalizeURL(cfg.StakeURL, defaultStakeURL),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func normalizeURL(configured, fallback string) string {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		configured = fallback
	}
	return strings.TrimRight(configured, "/")
}

// QuoteRequest describes the route to price.
type QuoteRequest struct {
	InputMint   solana.PublicKey
	OutputMint  solana.PublicKey
	Amount      uint64
	SlippageBPS uint64
}

// Quote fetches a swap route. The raw quote document is returned opaque so
// it can be passed back verbatim when building the swap transaction.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (json.RawMessage, error) {
	if req.Amount == 0 {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "swap amount must be positive")
	}
	slippage := req.SlippageBPS
	if slippage == 0 {
		slippage = DefaultSlippageBPS
	}

	query := url.Values{}
	query.Set("inputMint", req.InputMint.String())
	query.Set("outputMint", req.OutputMint.String())
	query.Set("amount", strconv.FormatUint(req.Amount, 10))
	query.Set("slippageBps", strconv.FormatUint(slippage, 10))
	query.Set("onlyDirectRoutes", "true")
	query.Set("maxAccounts", strconv.Itoa(maxRouteAccounts))

	endpoint := c.quoteURL + "/quote?" + query.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}

	var quote json.RawMessage
	if err := c.do(httpReq, &quote); err != nil {
		return nil, err
	}
	return quote, nil
}

// Swap asks the aggregator to assemble the swap transaction for a quote.
// Returns the unsigned transaction, base64 encoded.
func (c *Client) Swap(ctx context.Context, quote json.RawMessage, user solana.PublicKey) (string, error) {
	if len(quote) == 0 {
		return "", xerrors.New(xerrors.CodeInvalidArgument, "quote is empty")
	}

	body, err := json.Marshal(map[string]any{
		"quoteResponse":             quote,
		"userPublicKey":             user.String(),
		"wrapAndUnwrapSol":          true,
		"dynamicComputeUnitLimit":   true,
		"prioritizationFeeLamports": "auto",
	})
	if err != nil {
		return "", fmt.Errorf("encode swap request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.quoteURL+"/swap", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build swap request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var decoded struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	if err := c.do(httpReq, &decoded); err != nil {
		return "", err
	}
	if strings.TrimSpace(decoded.SwapTransaction) == "" {
		return "", xerrors.New(xerrors.CodeProviderFailure, "aggregator returned no swap transaction")
	}
	return decoded.SwapTransaction, nil
}

// Stake requests the SOL to jupSOL staking transaction from the blink
// endpoint. Returns the unsigned transaction, base64 encoded.
func (c *Client) Stake(ctx context.Context, account solana.PublicKey, lamports uint64) (string, error) {
	if lamports == 0 {
		return "", xerrors.New(xerrors.CodeInvalidArgument, "stake amount must be positive")
	}

	body, err := json.Marshal(map[string]string{"account": account.String()})
	if err != nil {
		return "", fmt.Errorf("encode stake request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/%d", c.stakeURL, tokens.WSOL, tokens.JupSOL, lamports)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build stake request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var decoded struct {
		Transaction string `json:"transaction"`
	}
	if err := c.do(httpReq, &decoded); err != nil {
		return "", err
	}
	if strings.TrimSpace(decoded.Transaction) == "" {
		return "", xerrors.New(xerrors.CodeProviderFailure, "staking blink returned no transaction")
	}
	return decoded.Transaction, nil
}

// Prices fetches USD prices for the given mints. Mints the feed does not
// know are absent from the result.
func (c *Client) Prices(ctx context.Context, mints ...solana.PublicKey) (map[string]string, error) {
	if len(mints) == 0 {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "no mints requested")
	}

	ids := make([]string, len(mints))
	for i, mint := range mints {
		ids[i] = mint.String()
	}
	endpoint := c.priceURL + "?ids=" + url.QueryEscape(strings.Join(ids, ","))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build price request: %w", err)
	}

	var decoded struct {
		Data map[string]*struct {
			Price string `json:"price"`
		} `json:"data"`
	}
	if err := c.do(httpReq, &decoded); err != nil {
		return nil, err
	}

	prices := make(map[string]string, len(decoded.Data))
	for mint, entry := range decoded.Data {
		if entry != nil && strings.TrimSpace(entry.Price) != "" {
			prices[mint] = entry.Price
		}
	}
	return prices, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeProviderFailure, err, "call aggregator")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return xerrors.New(xerrors.CodeProviderFailure,
			fmt.Sprintf("aggregator returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return xerrors.Wrap(xerrors.CodeProviderFailure, err, "decode aggregator response")
	}
	return nil
}
