package ops

import (
	"context"
	"strings"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/token"

	"SolAgent-Kit/internal/agent"
	"SolAgent-Kit/internal/chain"
	xerrors "SolAgent-Kit/internal/errors"
)

const (
	burnCloseComputeUnits          = 50_000
	burnClosePriorityMicroLamports = 1_000
)

// BurnCloseRequest burns the remaining balance of one of the wallet's token
// accounts and closes it, reclaiming the rent lamports.
type BurnCloseRequest struct {
	TokenAccount string `json:"token_account"`
}

// Validate checks the request before any network interaction.
func (r BurnCloseRequest) Validate() error {
	if strings.TrimSpace(r.TokenAccount) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "token account is required")
	}
	if _, err := solana.PublicKeyFromBase58(strings.TrimSpace(r.TokenAccount)); err != nil {
		return xerrors.Wrap(xerrors.CodeInvalidArgument, err, "token account address is malformed")
	}
	return nil
}

// BurnCloseResult reports one burned and closed account.
type BurnCloseResult struct {
	Signature    string `json:"signature"`
	TokenAccount string `json:"token_account"`
	BurnedAmount uint64 `json:"burned_amount"`
}

// BurnClose burns any remaining balance, then closes the account in the
// same transaction. Accounts not owned by the wallet are rejected before
// submission.
func BurnClose(ctx context.Context, kit *agent.Kit, req BurnCloseRequest) (*BurnCloseResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	account := solana.MustPublicKeyFromBase58(strings.TrimSpace(req.TokenAccount))

	info, err := kit.Chain().TokenAccountInfo(ctx, account)
	if err != nil {
		return nil, err
	}
	owner := kit.Wallet().PublicKey()
	if !info.Owner.Equals(owner) {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "token account is not owned by this wallet")
	}

	// A burn plus close stays well under this ceiling; the explicit budget
	// keeps the cleanup cheap to prioritise on a congested cluster.
	instrs := []solana.Instruction{
		computebudget.NewSetComputeUnitLimitInstruction(burnCloseComputeUnits).Build(),
		computebudget.NewSetComputeUnitPriceInstruction(burnClosePriorityMicroLamports).Build(),
	}
	if info.Amount > 0 {
		instrs = append(instrs, token.NewBurnInstruction(
			info.Amount, account, info.Mint, owner, nil,
		).Build())
	}
	instrs = append(instrs, token.NewCloseAccountInstruction(
		account, owner, owner, nil,
	).Build())

	latest, err := kit.Chain().LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := solana.NewTransaction(instrs, latest.Hash, solana.TransactionPayer(owner))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "assemble burn and close")
	}

	sig, err := signSendConfirm(ctx, kit, tx, chain.SendOptions{})
	if err != nil {
		return nil, err
	}
	return &BurnCloseResult{
		Signature:    sig.String(),
		TokenAccount: account.String(),
		BurnedAmount: info.Amount,
	}, nil
}

// BurnCloseBatchRequest processes several token accounts independently.
type BurnCloseBatchRequest struct {
	TokenAccounts []string `json:"token_accounts"`
}

// Validate checks the request before any network interaction.
func (r BurnCloseBatchRequest) Validate() error {
	if len(r.TokenAccounts) == 0 {
		return xerrors.New(xerrors.CodeInvalidArgument, "no token accounts listed")
	}
	for _, account := range r.TokenAccounts {
		if err := (BurnCloseRequest{TokenAccount: account}).Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BurnCloseBatchEntry is the per-account outcome of a batch run.
type BurnCloseBatchEntry struct {
	TokenAccount string           `json:"token_account"`
	Result       *BurnCloseResult `json:"result,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// BurnCloseBatchResult aggregates the batch outcome.
type BurnCloseBatchResult struct {
	Entries   []BurnCloseBatchEntry `json:"entries"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

// BurnCloseBatch runs BurnClose per account, continuing past individual
// failures so one bad account cannot block the rest of the cleanup.
func BurnCloseBatch(ctx context.Context, kit *agent.Kit, req BurnCloseBatchRequest) (*BurnCloseBatchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	out := &BurnCloseBatchResult{Entries: make([]BurnCloseBatchEntry, 0, len(req.TokenAccounts))}
	for _, account := range req.TokenAccounts {
		if err := ctx.Err(); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeTimeout, err, "batch interrupted")
		}
		entry := BurnCloseBatchEntry{TokenAccount: account}
		result, err := BurnClose(ctx, kit, BurnCloseRequest{TokenAccount: account})
		if err != nil {
			entry.Error = err.Error()
			out.Failed++
		} else {
			entry.Result = result
			out.Succeeded++
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}
