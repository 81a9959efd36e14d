package ops

import (
	"context"

	"SolAgent-Kit/internal/agent"
	xerrors "SolAgent-Kit/internal/errors"
)

// Devnet faucets hand out at most 5 SOL per request.
const defaultFaucetSOL = 5

// FaucetRequest asks a test cluster faucet for SOL. Amount left zero
// defaults to 5 SOL.
type FaucetRequest struct {
	Amount float64 `json:"amount,omitempty"`
}

// Validate checks the request before any network interaction.
func (r FaucetRequest) Validate() error {
	if r.Amount < 0 {
		return xerrors.New(xerrors.CodeInvalidArgument, "airdrop amount must not be negative")
	}
	if r.Amount > defaultFaucetSOL {
		return xerrors.New(xerrors.CodeInvalidArgument, "airdrop amount exceeds the faucet limit of 5 SOL")
	}
	return nil
}

// FaucetResult reports the confirmed airdrop.
type FaucetResult struct {
	Signature string  `json:"signature"`
	Amount    float64 `json:"amount"`
}

// Faucet requests the airdrop and waits for commitment. Mainnet clusters
// reject the call; the node error passes through classified.
func Faucet(ctx context.Context, kit *agent.Kit, req FaucetRequest) (*FaucetResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	amount := req.Amount
	if amount == 0 {
		amount = defaultFaucetSOL
	}
	lamports, err := solToLamports(amount)
	if err != nil {
		return nil, err
	}

	sig, err := kit.Chain().RequestAirdrop(ctx, kit.Wallet().PublicKey(), lamports)
	if err != nil {
		return nil, err
	}
	if err := kit.Chain().ConfirmTransaction(ctx, sig); err != nil {
		return nil, err
	}
	return &FaucetResult{Signature: sig.String(), Amount: amount}, nil
}
