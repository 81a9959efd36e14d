package ops

import (
	"context"
	"strings"

	"SolAgent-Kit/internal/agent"
	"SolAgent-Kit/internal/chain"
	"SolAgent-Kit/internal/defi/pumpfun"
	xerrors "SolAgent-Kit/internal/errors"
	"SolAgent-Kit/internal/wallet"
)

// LaunchTokenRequest creates a token on the launchpad bonding curve,
// optionally buying in with DevBuySOL at launch.
type LaunchTokenRequest struct {
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol"`
	Description     string  `json:"description,omitempty"`
	ImageURL        string  `json:"image_url"`
	Twitter         string  `json:"twitter,omitempty"`
	Telegram        string  `json:"telegram,omitempty"`
	Website         string  `json:"website,omitempty"`
	DevBuySOL       float64 `json:"dev_buy_sol,omitempty"`
	SlippagePercent float64 `json:"slippage_percent,omitempty"`
	PriorityFeeSOL  float64 `json:"priority_fee_sol,omitempty"`
}

// Validate checks the request before any network interaction.
func (r LaunchTokenRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "token name is required")
	}
	if strings.TrimSpace(r.Symbol) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "token symbol is required")
	}
	if strings.TrimSpace(r.ImageURL) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "token image URL is required")
	}
	if r.DevBuySOL < 0 {
		return xerrors.New(xerrors.CodeInvalidArgument, "dev buy amount must not be negative")
	}
	return nil
}

// LaunchTokenResult reports the confirmed launch.
type LaunchTokenResult struct {
	Signature   string `json:"signature"`
	Mint        string `json:"mint"`
	MetadataURI string `json:"metadata_uri"`
}

// LaunchToken pins the metadata, lets the launchpad build the create
// transaction for a fresh mint keypair, then signs with both keys and
// submits.
func LaunchToken(ctx context.Context, kit *agent.Kit, req LaunchTokenRequest) (*LaunchTokenResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	metadataURI, err := kit.Pumpfun().UploadMetadata(ctx, pumpfun.TokenMetadata{
		Name:        req.Name,
		Symbol:      req.Symbol,
		Description: req.Description,
		Twitter:     req.Twitter,
		Telegram:    req.Telegram,
		Website:     req.Website,
	}, req.ImageURL)
	if err != nil {
		return nil, err
	}

	mint := wallet.Generate()
	raw, err := kit.Pumpfun().BuildLaunchTransaction(ctx, pumpfun.LaunchRequest{
		User:            kit.Wallet().PublicKey(),
		Mint:            mint.PublicKey(),
		Name:            req.Name,
		Symbol:          req.Symbol,
		MetadataURI:     metadataURI,
		DevBuySOL:       req.DevBuySOL,
		SlippagePercent: req.SlippagePercent,
		PriorityFeeSOL:  req.PriorityFeeSOL,
	})
	if err != nil {
		return nil, err
	}
	tx, err := decodeTransactionBytes(raw)
	if err != nil {
		return nil, err
	}

	sig, err := signSendConfirm(ctx, kit, tx, chain.SendOptions{}, mint)
	if err != nil {
		return nil, err
	}
	return &LaunchTokenResult{
		Signature:   sig.String(),
		Mint:        mint.PublicKey().String(),
		MetadataURI: metadataURI,
	}, nil
}
