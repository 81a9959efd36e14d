package ops

import (
	"context"
	"strings"

	"github.com/gagliardetto/solana-go"

	"SolAgent-Kit/internal/agent"
	xerrors "SolAgent-Kit/internal/errors"
)

// BalanceRequest reads the wallet's balance. Asset left empty means native
// SOL; otherwise the wallet's associated token account for that asset.
type BalanceRequest struct {
	Asset string `json:"asset,omitempty"`
}

// BalanceResult reports a balance in both raw and display units.
type BalanceResult struct {
	Owner     string  `json:"owner"`
	Asset     string  `json:"asset"`
	RawAmount uint64  `json:"raw_amount"`
	Decimals  uint8   `json:"decimals"`
	UIAmount  float64 `json:"ui_amount"`
}

// Balance queries the ledger for the wallet's holdings of one asset.
func Balance(ctx context.Context, kit *agent.Kit, req BalanceRequest) (*BalanceResult, error) {
	owner := kit.Wallet().PublicKey()

	if strings.TrimSpace(req.Asset) == "" || strings.EqualFold(strings.TrimSpace(req.Asset), "SOL") {
		lamports, err := kit.Chain().Balance(ctx, owner)
		if err != nil {
			return nil, err
		}
		return &BalanceResult{
			Owner:     owner.String(),
			Asset:     "SOL",
			RawAmount: lamports,
			Decimals:  9,
			UIAmount:  float64(lamports) / float64(solana.LAMPORTS_PER_SOL),
		}, nil
	}

	mint, err := kit.Tokens().Resolve(req.Asset)
	if err != nil {
		return nil, err
	}
	account, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "derive token account")
	}
	amount, err := kit.Chain().TokenBalance(ctx, account)
	if err != nil {
		return nil, err
	}

	ui := float64(amount.Amount)
	for i := uint8(0); i < amount.Decimals; i++ {
		ui /= 10
	}
	return &BalanceResult{
		Owner:     owner.String(),
		Asset:     kit.Tokens().Symbol(mint),
		RawAmount: amount.Amount,
		Decimals:  amount.Decimals,
		UIAmount:  ui,
	}, nil
}
