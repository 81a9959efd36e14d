package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"SolAgent-Kit/internal/agent"
	xerrors "SolAgent-Kit/internal/errors"
)

// FetchPriceRequest reads the USD price of an asset. Source selects the
// feed: "jupiter" (default) resolves the asset to a mint, "pyth" treats the
// asset as an oracle price-account address.
type FetchPriceRequest struct {
	Asset  string `json:"asset"`
	Source string `json:"source,omitempty"`
}

// Validate checks the request before any network interaction.
func (r FetchPriceRequest) Validate() error {
	if strings.TrimSpace(r.Asset) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "asset is required")
	}
	switch strings.ToLower(strings.TrimSpace(r.Source)) {
	case "", "jupiter", "pyth":
	default:
		return xerrors.New(xerrors.CodeInvalidArgument, "price source must be jupiter or pyth")
	}
	return nil
}

// FetchPriceResult carries the price as reported by the feed. The value is
// kept as a decimal string to avoid float drift in downstream consumers.
// Confidence and Status are only set by the oracle source.
type FetchPriceResult struct {
	Asset      string `json:"asset"`
	Source     string `json:"source"`
	Mint       string `json:"mint,omitempty"`
	PriceUSD   string `json:"price_usd"`
	Confidence string `json:"confidence,omitempty"`
	Status     string `json:"status,omitempty"`
}

// FetchPrice resolves the asset and queries the selected feed.
func FetchPrice(ctx context.Context, kit *agent.Kit, req FetchPriceRequest) (*FetchPriceResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if strings.ToLower(strings.TrimSpace(req.Source)) == "pyth" {
		return fetchOraclePrice(ctx, kit, req)
	}

	mint, err := kit.Tokens().Resolve(req.Asset)
	if err != nil {
		return nil, err
	}
	prices, err := kit.Jupiter().Prices(ctx, mint)
	if err != nil {
		return nil, err
	}
	price, ok := prices[mint.String()]
	if !ok {
		return nil, xerrors.New(xerrors.CodeNotFound,
			fmt.Sprintf("price feed has no quote for %s", kit.Tokens().Symbol(mint)))
	}
	return &FetchPriceResult{
		Asset:    kit.Tokens().Symbol(mint),
		Source:   "jupiter",
		Mint:     mint.String(),
		PriceUSD: price,
	}, nil
}

func fetchOraclePrice(ctx context.Context, kit *agent.Kit, req FetchPriceRequest) (*FetchPriceResult, error) {
	account, err := solana.PublicKeyFromBase58(strings.TrimSpace(req.Asset))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err,
			"pyth source takes a price account address")
	}
	quote, err := kit.Pyth().Price(ctx, account)
	if err != nil {
		return nil, err
	}
	return &FetchPriceResult{
		Asset:      account.String(),
		Source:     "pyth",
		PriceUSD:   quote.Price,
		Confidence: quote.Confidence,
		Status:     quote.Status,
	}, nil
}
