package ops

import (
	"context"

	"SolAgent-Kit/internal/agent"
	"SolAgent-Kit/internal/chain"
	xerrors "SolAgent-Kit/internal/errors"
)

// StakeRequest converts SOL into jupSOL through the staking blink.
type StakeRequest struct {
	Amount float64 `json:"amount"`
}

// Validate checks the request before any network interaction.
func (r StakeRequest) Validate() error {
	if r.Amount <= 0 {
		return xerrors.New(xerrors.CodeInvalidArgument, "stake amount must be positive")
	}
	return nil
}

// StakeResult reports the confirmed stake.
type StakeResult struct {
	Signature string  `json:"signature"`
	Amount    float64 `json:"amount"`
}

// Stake requests the staking transaction, re-stamps the blockhash, signs
// and submits it.
func Stake(ctx context.Context, kit *agent.Kit, req StakeRequest) (*StakeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	lamports, err := solToLamports(req.Amount)
	if err != nil {
		return nil, err
	}

	encoded, err := kit.Jupiter().Stake(ctx, kit.Wallet().PublicKey(), lamports)
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
	return &StakeResult{Signature: sig.String(), Amount: req.Amount}, nil
}
