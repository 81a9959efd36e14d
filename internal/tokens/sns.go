package tokens

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	xerrors "SolAgent-Kit/internal/errors"
)

const snsDefaultTimeout = 15 * time.Second

// IsDomain reports whether name looks like a name-service domain rather
// than a raw address.
func IsDomain(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".sol")
}

// SNSConfig points the resolver at a JSON-RPC endpoint that serves the
// name-service methods. Empty leaves resolution disabled.
type SNSConfig struct {
	RPCURL  string
	Timeout time.Duration
}

// SNSResolver maps .sol domains to wallet addresses through the
// sns_resolveDomain RPC method.
type SNSResolver struct {
	rpcURL     string
	httpClient *http.Client
}

// NewSNSResolver builds a resolver from config.
func NewSNSResolver(cfg SNSConfig) *SNSResolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = snsDefaultTimeout
	}
	return &SNSResolver{
		rpcURL:     strings.TrimSpace(cfg.RPCURL),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a resolver endpoint is configured.
func (r *SNSResolver) Enabled() bool {
	return r != nil && r.rpcURL != ""
}

// Resolve returns the wallet address a domain points at.
func (r *SNSResolver) Resolve(ctx context.Context, domain string) (solana.PublicKey, error) {
	if !r.Enabled() {
		return solana.PublicKey{}, xerrors.New(xerrors.CodeInvalidArgument,
			"domain resolver endpoint is not configured")
	}
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return solana.PublicKey{}, xerrors.New(xerrors.CodeInvalidArgument, "domain is required")
	}

	body, err := json.Marshal(map[string]any{
		"id":      42,
		"jsonrpc": "2.0",
		"method":  "sns_resolveDomain",
		"params":  []string{domain},
	})
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("encode resolve request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.rpcURL, bytes.NewReader(body))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("build resolve request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return solana.PublicKey{}, xerrors.Wrap(xerrors.CodeProviderFailure, err, "call domain resolver")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return solana.PublicKey{}, xerrors.New(xerrors.CodeProviderFailure,
			fmt.Sprintf("domain resolver returned status %d", resp.StatusCode))
	}

	var decoded struct {
		Result string `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return solana.PublicKey{}, xerrors.Wrap(xerrors.CodeProviderFailure, err, "decode resolver response")
	}
	if decoded.Error != nil {
		return solana.PublicKey{}, xerrors.New(xerrors.CodeNotFound,
			fmt.Sprintf("resolve %s: %s", domain, decoded.Error.Message))
	}
	address, err := solana.PublicKeyFromBase58(strings.TrimSpace(decoded.Result))
	if err != nil {
		return solana.PublicKey{}, xerrors.Wrap(xerrors.CodeProviderFailure, err,
			"resolver returned an invalid address")
	}
	return address, nil
}
