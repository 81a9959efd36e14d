// Package ops implements the toolkit operations. Every adapter follows the
// same shape: validate the request before touching the network, make one
// protocol or ledger call, sign locally when a transaction comes back, then
// submit and wait for commitment.
package ops

import (
	"context"
	"math"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"SolAgent-Kit/internal/agent"
	"SolAgent-Kit/internal/chain"
	xerrors "SolAgent-Kit/internal/errors"
	"SolAgent-Kit/internal/wallet"
)

// swapSendRetries is how often the node retransmits a submitted swap before
// the blockhash window runs out.
var swapSendRetries = uint(3)

// decodeTransactionBase64 parses a protocol-built transaction.
func decodeTransactionBase64(encoded string) (*solana.Transaction, error) {
	tx, err := solana.TransactionFromBase64(encoded)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeProviderFailure, err, "decode built transaction")
	}
	return tx, nil
}

// decodeTransactionBytes parses a protocol-built transaction from raw bytes.
func decodeTransactionBytes(raw []byte) (*solana.Transaction, error) {
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeProviderFailure, err, "decode built transaction")
	}
	return tx, nil
}

// refreshBlockhash stamps a fresh blockhash onto tx before signing.
func refreshBlockhash(ctx context.Context, kit *agent.Kit, tx *solana.Transaction) error {
	latest, err := kit.Chain().LatestBlockhash(ctx)
	if err != nil {
		return err
	}
	tx.Message.RecentBlockhash = latest.Hash
	return nil
}

// signSendConfirm signs tx with the kit wallet (plus extras), submits it and
// waits until the cluster reaches the configured commitment.
func signSendConfirm(ctx context.Context, kit *agent.Kit, tx *solana.Transaction, opts chain.SendOptions, extra ...*wallet.Wallet) (solana.Signature, error) {
	if err := kit.Wallet().SignTransaction(tx, extra...); err != nil {
		return solana.Signature{}, err
	}
	sig, err := kit.Chain().SendTransaction(ctx, tx, opts)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := kit.Chain().ConfirmTransaction(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// displayToRaw converts a display amount into raw base units.
func displayToRaw(amount float64, decimals uint8) (uint64, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, xerrors.New(xerrors.CodeInvalidArgument, "amount must be positive")
	}
	raw := amount * math.Pow(10, float64(decimals))
	if raw >= math.MaxUint64 {
		return 0, xerrors.New(xerrors.CodeInvalidArgument, "amount overflows raw units")
	}
	return uint64(math.Round(raw)), nil
}

// solToLamports converts a SOL display amount into lamports.
func solToLamports(amount float64) (uint64, error) {
	return displayToRaw(amount, 9)
}
