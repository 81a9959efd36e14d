package ops

import (
	"context"
	"strings"

	"SolAgent-Kit/internal/agent"
	"SolAgent-Kit/internal/chain"
	xerrors "SolAgent-Kit/internal/errors"
)

// LendRequest deposits an asset into the lending protocol. Symbol left
// empty defaults to USDC.
type LendRequest struct {
	Amount float64 `json:"amount"`
	Symbol string  `json:"symbol,omitempty"`
}

// Validate checks the request before any network interaction.
func (r LendRequest) Validate() error {
	if r.Amount <= 0 {
		return xerrors.New(xerrors.CodeInvalidArgument, "deposit amount must be positive")
	}
	return nil
}

// LendResult reports the confirmed deposit.
type LendResult struct {
	Signature string  `json:"signature"`
	Symbol    string  `json:"symbol"`
	Amount    float64 `json:"amount"`
}

// Lend fetches the deposit transaction from the lending service, signs and
// submits it.
func Lend(ctx context.Context, kit *agent.Kit, req LendRequest) (*LendResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		symbol = "USDC"
	}

	encoded, err := kit.Lulo().Deposit(ctx, kit.Wallet().PublicKey(), req.Amount, symbol)
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
	return &LendResult{Signature: sig.String(), Symbol: symbol, Amount: req.Amount}, nil
}
