package solanarpc

import (
	"context"
	stdErrors "errors"
	"strconv"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"SolAgent-Kit/internal/chain"
	xerrors "SolAgent-Kit/internal/errors"
)

// Config describes how to construct a ledger client.
type Config struct {
	Name           string
	Endpoint       string
	Commitment     string
	ConfirmTimeout time.Duration
	ConfirmPoll    time.Duration
}

// rpcAPI mirrors the subset of the RPC client the ledger client relies on,
// so tests can substitute a fake node.
type rpcAPI interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64, commitment rpc.CommitmentType) (solana.Signature, error)
	GetRecentPerformanceSamples(ctx context.Context, limit *uint) ([]*rpc.GetRecentPerformanceSamplesResult, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment rpc.CommitmentType) (uint64, error)
	Close() error
}

// Client implements chain.Client against a Solana JSON-RPC node.
type Client struct {
	name           string
	api            rpcAPI
	commitment     rpc.CommitmentType
	confirmTimeout time.Duration
	confirmPoll    time.Duration
}

// NewClient dials the configured RPC endpoint and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "rpc endpoint is not configured")
	}
	return newClient(rpc.New(endpoint), cfg), nil
}

func newClient(api rpcAPI, cfg Config) *Client {
	confirmTimeout := cfg.ConfirmTimeout
	if confirmTimeout <= 0 {
		confirmTimeout = 60 * time.Second
	}
	confirmPoll := cfg.ConfirmPoll
	if confirmPoll <= 0 {
		confirmPoll = 500 * time.Millisecond
	}
	return &Client{
		name:           cfg.Name,
		api:            api,
		commitment:     parseCommitment(cfg.Commitment),
		confirmTimeout: confirmTimeout,
		confirmPoll:    confirmPoll,
	}
}

func parseCommitment(value string) rpc.CommitmentType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}

// classify maps transport and node errors onto the failure taxonomy: a
// structured JSON-RPC error means the node saw and declined the request,
// anything else on the wire is a connectivity failure.
func classify(err error, msg string) error {
	if err == nil {
		return nil
	}
	var rpcErr *jsonrpc.RPCError
	if stdErrors.As(err, &rpcErr) {
		return xerrors.Wrap(xerrors.CodeChainRejected, err, msg,
			xerrors.WithMetadata("rpc_code", strconv.Itoa(rpcErr.Code)))
	}
	if stdErrors.Is(err, context.DeadlineExceeded) {
		return xerrors.Wrap(xerrors.CodeTimeout, err, msg)
	}
	return xerrors.Wrap(xerrors.CodeRPCFailure, err, msg)
}

// Balance returns the native balance of owner in lamports.
func (c *Client) Balance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	out, err := c.api.GetBalance(ctx, owner, c.commitment)
	if err != nil {
		return 0, classify(err, "fetch balance")
	}
	return out.Value, nil
}

// TokenBalance returns the balance held by a token account.
func (c *Client) TokenBalance(ctx context.Context, tokenAccount solana.PublicKey) (chain.TokenAmount, error) {
	out, err := c.api.GetTokenAccountBalance(ctx, tokenAccount, c.commitment)
	if err != nil {
		return chain.TokenAmount{}, classify(err, "fetch token balance")
	}
	if out == nil || out.Value == nil {
		return chain.TokenAmount{}, xerrors.New(xerrors.CodeChainRejected, "token account has no balance value")
	}
	raw, err := strconv.ParseUint(out.Value.Amount, 10, 64)
	if err != nil {
		return chain.TokenAmount{}, xerrors.Wrap(xerrors.CodeChainRejected, err, "token balance is not a valid amount")
	}
	return chain.TokenAmount{
		Amount:   raw,
		Decimals: out.Value.Decimals,
		UIAmount: out.Value.UiAmountString,
	}, nil
}

// MintInfo fetches and decodes an SPL mint account.
func (c *Client) MintInfo(ctx context.Context, mint solana.PublicKey) (chain.MintInfo, error) {
	out, err := c.api.GetAccountInfo(ctx, mint)
	if err != nil {
		return chain.MintInfo{}, classify(err, "fetch mint account")
	}
	if out == nil || out.Value == nil {
		return chain.MintInfo{}, xerrors.New(xerrors.CodeChainRejected, "mint account does not exist")
	}
	var decoded token.Mint
	if err := bin.NewBinDecoder(out.Value.Data.GetBinary()).Decode(&decoded); err != nil {
		return chain.MintInfo{}, xerrors.Wrap(xerrors.CodeChainRejected, err, "account is not an SPL mint")
	}
	return chain.MintInfo{Decimals: decoded.Decimals, Supply: decoded.Supply}, nil
}

// TokenAccountInfo fetches and decodes an SPL token account.
func (c *Client) TokenAccountInfo(ctx context.Context, account solana.PublicKey) (chain.TokenAccountInfo, error) {
	out, err := c.api.GetAccountInfo(ctx, account)
	if err != nil {
		return chain.TokenAccountInfo{}, classify(err, "fetch token account")
	}
	if out == nil || out.Value == nil {
		return chain.TokenAccountInfo{}, xerrors.New(xerrors.CodeChainRejected, "token account does not exist")
	}
	var decoded token.Account
	if err := bin.NewBinDecoder(out.Value.Data.GetBinary()).Decode(&decoded); err != nil {
		return chain.TokenAccountInfo{}, xerrors.Wrap(xerrors.CodeChainRejected, err, "account is not an SPL token account")
	}
	return chain.TokenAccountInfo{
		Mint:   decoded.Mint,
		Owner:  decoded.Owner,
		Amount: decoded.Amount,
	}, nil
}

// LatestBlockhash returns the most recent blockhash at the configured commitment.
func (c *Client) LatestBlockhash(ctx context.Context) (chain.Blockhash, error) {
	out, err := c.api.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return chain.Blockhash{}, classify(err, "fetch latest blockhash")
	}
	if out == nil || out.Value == nil {
		return chain.Blockhash{}, xerrors.New(xerrors.CodeRPCFailure, "node returned empty blockhash")
	}
	return chain.Blockhash{
		Hash:                 out.Value.Blockhash,
		LastValidBlockHeight: out.Value.LastValidBlockHeight,
	}, nil
}

// SendTransaction submits a signed transaction. Preflight simulation runs at
// the configured commitment unless the caller opts out.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction, opts chain.SendOptions) (solana.Signature, error) {
	sig, err := c.api.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: c.commitment,
		MaxRetries:          opts.MaxRetries,
	})
	if err != nil {
		return solana.Signature{}, classify(err, "send transaction")
	}
	return sig, nil
}

// ConfirmTransaction polls the signature status until it reaches the
// configured commitment, the node reports a failure, or the ceiling elapses.
func (c *Client) ConfirmTransaction(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.confirmPoll)
	defer ticker.Stop()

	for {
		out, err := c.api.GetSignatureStatuses(ctx, false, sig)
		if err == nil && out != nil && len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return xerrors.New(xerrors.CodeChainRejected, "transaction failed on chain",
					xerrors.WithMetadata("signature", sig.String()))
			}
			if confirmed(status.ConfirmationStatus, c.commitment) {
				return nil
			}
		} else if err != nil && stdErrors.Is(err, context.Canceled) {
			return classify(err, "confirm transaction")
		}

		select {
		case <-ctx.Done():
			if stdErrors.Is(ctx.Err(), context.DeadlineExceeded) {
				return xerrors.Wrap(xerrors.CodeTimeout, ctx.Err(), "transaction not confirmed in time",
					xerrors.WithMetadata("signature", sig.String()))
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func confirmed(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch want {
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	default:
		return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
	}
}

// RequestAirdrop asks the faucet for lamports. Only devnet and testnet honor it.
func (c *Client) RequestAirdrop(ctx context.Context, to solana.PublicKey, lamports uint64) (solana.Signature, error) {
	sig, err := c.api.RequestAirdrop(ctx, to, lamports, c.commitment)
	if err != nil {
		return solana.Signature{}, classify(err, "request airdrop")
	}
	return sig, nil
}

// PerformanceSamples returns recent throughput samples, newest first.
func (c *Client) PerformanceSamples(ctx context.Context, limit uint) ([]chain.PerformanceSample, error) {
	if limit == 0 {
		limit = 1
	}
	out, err := c.api.GetRecentPerformanceSamples(ctx, &limit)
	if err != nil {
		return nil, classify(err, "fetch performance samples")
	}
	if len(out) == 0 {
		return nil, xerrors.New(xerrors.CodeChainRejected, "no performance samples available")
	}
	samples := make([]chain.PerformanceSample, 0, len(out))
	for _, raw := range out {
		if raw == nil || raw.SamplePeriodSecs == 0 {
			continue
		}
		samples = append(samples, chain.PerformanceSample{
			Slot:             raw.Slot,
			NumTransactions:  raw.NumTransactions,
			SamplePeriodSecs: uint64(raw.SamplePeriodSecs),
			TPS:              float64(raw.NumTransactions) / float64(raw.SamplePeriodSecs),
		})
	}
	if len(samples) == 0 {
		return nil, xerrors.New(xerrors.CodeChainRejected, "performance samples were invalid")
	}
	return samples, nil
}

// MinimumRentExemption returns the lamports needed to rent-exempt an account.
func (c *Client) MinimumRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	lamports, err := c.api.GetMinimumBalanceForRentExemption(ctx, dataSize, c.commitment)
	if err != nil {
		return 0, classify(err, "fetch rent exemption")
	}
	return lamports, nil
}

// Close releases the underlying connection.
func (c *Client) Close() {
	if c == nil || c.api == nil {
		return
	}
	_ = c.api.Close()
}

var _ chain.Client = (*Client)(nil)
