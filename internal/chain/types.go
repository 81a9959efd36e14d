package chain

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Blockhash carries the recent blockhash and the height window in which a
// transaction referencing it stays valid.
type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// TokenAmount is a token balance in raw units plus display metadata.
type TokenAmount struct {
	Amount   uint64
	Decimals uint8
	UIAmount string
}

// MintInfo summarises an SPL mint account.
type MintInfo struct {
	Decimals uint8
	Supply   uint64
}

// TokenAccountInfo summarises an SPL token account.
type TokenAccountInfo struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// PerformanceSample is one throughput measurement reported by the ledger.
type PerformanceSample struct {
	Slot             uint64  `json:"slot"`
	NumTransactions  uint64  `json:"num_transactions"`
	SamplePeriodSecs uint64  `json:"sample_period_secs"`
	TPS              float64 `json:"tps"`
}

// SendOptions tune a single transaction submission.
type SendOptions struct {
	SkipPreflight bool
	MaxRetries    *uint
}

// Client is the ledger surface every operation adapter builds on. Errors
// returned by implementations are classified: transport problems surface as
// RPC_FAILURE, node-side rejections as CHAIN_REJECTED.
type Client interface {
	Balance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	TokenBalance(ctx context.Context, tokenAccount solana.PublicKey) (TokenAmount, error)
	MintInfo(ctx context.Context, mint solana.PublicKey) (MintInfo, error)
	TokenAccountInfo(ctx context.Context, account solana.PublicKey) (TokenAccountInfo, error)
	LatestBlockhash(ctx context.Context) (Blockhash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction, opts SendOptions) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature) error
	RequestAirdrop(ctx context.Context, to solana.PublicKey, lamports uint64) (solana.Signature, error)
	PerformanceSamples(ctx context.Context, limit uint) ([]PerformanceSample, error)
	MinimumRentExemption(ctx context.Context, dataSize uint64) (uint64, error)
	Close()
}
