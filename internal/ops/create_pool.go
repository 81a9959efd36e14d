package ops

import (
	"context"
	"strings"

	"github.com/gagliardetto/solana-go"

	"SolAgent-Kit/internal/agent"
	"SolAgent-Kit/internal/chain"
	"SolAgent-Kit/internal/defi/meteora"
	xerrors "SolAgent-Kit/internal/errors"
	"SolAgent-Kit/internal/tokens"
)

// CreatePoolRequest initialises a customizable DLMM pool for a token pair.
// InitialPrice is quote per base in display units.
type CreatePoolRequest struct {
	BaseAsset       string  `json:"base_asset"`
	QuoteAsset      string  `json:"quote_asset"`
	BinStep         uint16  `json:"bin_step"`
	InitialPrice    float64 `json:"initial_price"`
	FeeBPS          uint16  `json:"fee_bps,omitempty"`
	AlphaVault      bool    `json:"alpha_vault,omitempty"`
	PriceRounds     string  `json:"price_rounding,omitempty"`
	ActivationType  string  `json:"activation_type,omitempty"`
	ActivationPoint *uint64 `json:"activation_point,omitempty"`
}

// Validate checks the request before any network interaction.
func (r CreatePoolRequest) Validate() error {
	if strings.TrimSpace(r.BaseAsset) == "" || strings.TrimSpace(r.QuoteAsset) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "base and quote assets are required")
	}
	if r.BinStep == 0 {
		return xerrors.New(xerrors.CodeInvalidArgument, "bin step must be positive")
	}
	if r.InitialPrice <= 0 {
		return xerrors.New(xerrors.CodeInvalidArgument, "initial price must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(r.PriceRounds)) {
	case "", "down", "up":
	default:
		return xerrors.New(xerrors.CodeInvalidArgument, "price rounding must be down or up")
	}
	switch strings.ToLower(strings.TrimSpace(r.ActivationType)) {
	case "", "slot", "timestamp":
	default:
		return xerrors.New(xerrors.CodeInvalidArgument, "activation type must be slot or timestamp")
	}
	if r.ActivationPoint != nil && strings.TrimSpace(r.ActivationType) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "activation point requires an activation type")
	}
	return nil
}

// CreatePoolResult reports the confirmed pool initialisation.
type CreatePoolResult struct {
	Signature string `json:"signature"`
	BaseMint  string `json:"base_mint"`
	QuoteMint string `json:"quote_mint"`
	BinStep   uint16 `json:"bin_step"`
	ActiveBin int32  `json:"active_bin"`
}

// CreatePool positions the active bin from the initial price, has the
// builder assemble the initialisation transaction, then signs and submits.
func CreatePool(ctx context.Context, kit *agent.Kit, req CreatePoolRequest) (*CreatePoolResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	baseMint, err := kit.Tokens().Resolve(req.BaseAsset)
	if err != nil {
		return nil, err
	}
	quoteMint, err := kit.Tokens().Resolve(req.QuoteAsset)
	if err != nil {
		return nil, err
	}
	if baseMint.Equals(quoteMint) {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "base and quote assets are the same")
	}

	baseDecimals, err := mintDecimals(ctx, kit, baseMint)
	if err != nil {
		return nil, err
	}
	quoteDecimals, err := mintDecimals(ctx, kit, quoteMint)
	if err != nil {
		return nil, err
	}

	lamportPrice := meteora.PricePerLamport(req.InitialPrice, baseDecimals, quoteDecimals)
	roundDown := strings.ToLower(strings.TrimSpace(req.PriceRounds)) != "up"
	activeBin, err := meteora.BinIDFromPrice(lamportPrice, req.BinStep, roundDown)
	if err != nil {
		return nil, err
	}

	encoded, err := kit.Meteora().BuildCreatePool(ctx, meteora.CreatePoolRequest{
		Creator:         kit.Wallet().PublicKey(),
		BaseMint:        baseMint,
		QuoteMint:       quoteMint,
		BinStep:         req.BinStep,
		ActiveBin:       activeBin,
		PricePerLamport: lamportPrice,
		FeeBPS:          req.FeeBPS,
		AlphaVault:      req.AlphaVault,
		ActivationType:  strings.ToLower(strings.TrimSpace(req.ActivationType)),
		ActivationPoint: req.ActivationPoint,
	})
	if err != nil {
		return nil, err
	}
	tx, err := decodeTransactionBase64(encoded)
	if err != nil {
		return nil, err
	}
	if err := refreshBlockhash(ctx, kit, tx); err != nil {
		return nil, err
	}

	sig, err := signSendConfirm(ctx, kit, tx, chain.SendOptions{})
	if err != nil {
		return nil, err
	}
	return &CreatePoolResult{
		Signature: sig.String(),
		BaseMint:  baseMint.String(),
		QuoteMint: quoteMint.String(),
		BinStep:   req.BinStep,
		ActiveBin: activeBin,
	}, nil
}

func mintDecimals(ctx context.Context, kit *agent.Kit, mint solana.PublicKey) (uint8, error) {
	if mint.Equals(tokens.WSOL) {
		return 9, nil
	}
	info, err := kit.Chain().MintInfo(ctx, mint)
	if err != nil {
		return 0, err
	}
	return info.Decimals, nil
}
