package ops

import (
	"context"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"SolAgent-Kit/internal/agent"
	"SolAgent-Kit/internal/chain"
	xerrors "SolAgent-Kit/internal/errors"
	"SolAgent-Kit/internal/tokens"
)

// TransferRequest moves SOL or an SPL token from the kit wallet to another
// address. Asset left empty means native SOL. The recipient may be a .sol
// domain when a name resolver is configured.
type TransferRequest struct {
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
	Asset  string  `json:"asset,omitempty"`
}

// Validate checks the request before any network interaction.
func (r TransferRequest) Validate() error {
	to := strings.TrimSpace(r.To)
	if to == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "recipient address is required")
	}
	if !tokens.IsDomain(to) {
		if _, err := solana.PublicKeyFromBase58(to); err != nil {
			return xerrors.Wrap(xerrors.CodeInvalidArgument, err, "recipient address is malformed")
		}
	}
	if r.Amount <= 0 {
		return xerrors.New(xerrors.CodeInvalidArgument, "amount must be positive")
	}
	return nil
}

// TransferResult reports the confirmed transfer.
type TransferResult struct {
	Signature string  `json:"signature"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Asset     string  `json:"asset"`
	Amount    float64 `json:"amount"`
}

// Transfer executes the transfer and waits for commitment.
func Transfer(ctx context.Context, kit *agent.Kit, req TransferRequest) (*TransferResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	to := strings.TrimSpace(req.To)
	var recipient solana.PublicKey
	if tokens.IsDomain(to) {
		resolved, err := kit.Names().Resolve(ctx, to)
		if err != nil {
			return nil, err
		}
		recipient = resolved
	} else {
		recipient = solana.MustPublicKeyFromBase58(to)
	}

	var (
		instr solana.Instruction
		asset = "SOL"
	)
	if strings.TrimSpace(req.Asset) == "" || strings.EqualFold(strings.TrimSpace(req.Asset), "SOL") {
		lamports, err := solToLamports(req.Amount)
		if err != nil {
			return nil, err
		}
		instr = system.NewTransferInstruction(lamports, kit.Wallet().PublicKey(), recipient).Build()
	} else {
		mint, err := kit.Tokens().Resolve(req.Asset)
		if err != nil {
			return nil, err
		}
		asset = kit.Tokens().Symbol(mint)

		info, err := kit.Chain().MintInfo(ctx, mint)
		if err != nil {
			return nil, err
		}
		raw, err := displayToRaw(req.Amount, info.Decimals)
		if err != nil {
			return nil, err
		}

		source, _, err := solana.FindAssociatedTokenAddress(kit.Wallet().PublicKey(), mint)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "derive sender token account")
		}
		dest, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "derive recipient token account")
		}
		instr = token.NewTransferCheckedInstruction(
			raw, info.Decimals, source, mint, dest, kit.Wallet().PublicKey(), nil,
		).Build()
	}

	latest, err := kit.Chain().LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := solana.NewTransaction(
		[]solana.Instruction{instr},
		latest.Hash,
		solana.TransactionPayer(kit.Wallet().PublicKey()),
	)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "assemble transfer")
	}

	sig, err := signSendConfirm(ctx, kit, tx, chain.SendOptions{})
	if err != nil {
		return nil, err
	}
	return &TransferResult{
		Signature: sig.String(),
		From:      kit.Wallet().PublicKey().String(),
		To:        recipient.String(),
		Asset:     asset,
		Amount:    req.Amount,
	}, nil
}
