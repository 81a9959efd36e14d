package solanarpc

import (
	"context"
	stdErrors "errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"SolAgent-Kit/internal/chain"
	xerrors "SolAgent-Kit/internal/errors"
)

type fakeNode struct {
	balance       uint64
	balanceErr    error
	statuses      []*rpc.SignatureStatusesResult
	statusCalls   int
	samples       []*rpc.GetRecentPerformanceSamplesResult
	sendSignature solana.Signature
	sendErr       error
}

func (f *fakeNode) GetBalance(context.Context, solana.PublicKey, rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return &rpc.GetBalanceResult{Value: f.balance}, nil
}

func (f *fakeNode) GetTokenAccountBalance(context.Context, solana.PublicKey, rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error) {
	return &rpc.GetTokenAccountBalanceResult{Value: &rpc.UiTokenAmount{Amount: "2500000", Decimals: 6, UiAmountString: "2.5"}}, nil
}

func (f *fakeNode) GetAccountInfo(context.Context, solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	return nil, stdErrors.New("not wired in this fake")
}

func (f *fakeNode) GetLatestBlockhash(context.Context, rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return &rpc.GetLatestBlockhashResult{Value: &rpc.LatestBlockhashResult{LastValidBlockHeight: 100}}, nil
}

func (f *fakeNode) SendTransactionWithOpts(context.Context, *solana.Transaction, rpc.TransactionOpts) (solana.Signature, error) {
	return f.sendSignature, f.sendErr
}

func (f *fakeNode) GetSignatureStatuses(context.Context, bool, ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	idx := f.statusCalls
	f.statusCalls++
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{f.statuses[idx]}}, nil
}

func (f *fakeNode) RequestAirdrop(context.Context, solana.PublicKey, uint64, rpc.CommitmentType) (solana.Signature, error) {
	return f.sendSignature, f.sendErr
}

func (f *fakeNode) GetRecentPerformanceSamples(context.Context, *uint) ([]*rpc.GetRecentPerformanceSamplesResult, error) {
	return f.samples, nil
}

func (f *fakeNode) GetMinimumBalanceForRentExemption(context.Context, uint64, rpc.CommitmentType) (uint64, error) {
	return 1461600, nil
}

func (f *fakeNode) Close() error { return nil }

func testClient(node *fakeNode) *Client {
	return newClient(node, Config{
		Commitment:     "confirmed",
		ConfirmTimeout: time.Second,
		ConfirmPoll:    time.Millisecond,
	})
}

func TestBalanceClassifiesTransportFailure(t *testing.T) {
	node := &fakeNode{balanceErr: stdErrors.New("dial tcp: connection refused")}
	client := testClient(node)

	_, err := client.Balance(context.Background(), solana.PublicKey{})
	if xerrors.CodeOf(err) != xerrors.CodeRPCFailure {
		t.Fatalf("transport failure should classify as RPC_FAILURE, got %s", xerrors.CodeOf(err))
	}
	if !xerrors.RetryableError(err) {
		t.Fatalf("connectivity failures should be retryable")
	}
}

func TestSendTransactionClassifiesNodeRejection(t *testing.T) {
	node := &fakeNode{sendErr: &jsonrpc.RPCError{Code: -32002, Message: "Transaction simulation failed: insufficient funds"}}
	client := testClient(node)

	_, err := client.SendTransaction(context.Background(), &solana.Transaction{}, chain.SendOptions{})
	if xerrors.CodeOf(err) != xerrors.CodeChainRejected {
		t.Fatalf("node rejection should classify as CHAIN_REJECTED, got %s", xerrors.CodeOf(err))
	}
	if xerrors.RetryableError(err) {
		t.Fatalf("protocol rejections must not be retryable")
	}
}

func TestConfirmTransactionWaitsForCommitment(t *testing.T) {
	node := &fakeNode{statuses: []*rpc.SignatureStatusesResult{
		{ConfirmationStatus: rpc.ConfirmationStatusProcessed},
		{ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
	}}
	client := testClient(node)

	if err := client.ConfirmTransaction(context.Background(), solana.Signature{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.statusCalls < 2 {
		t.Fatalf("expected at least two polls, got %d", node.statusCalls)
	}
}

func TestConfirmTransactionSurfacesOnChainFailure(t *testing.T) {
	node := &fakeNode{statuses: []*rpc.SignatureStatusesResult{
		{Err: map[string]any{"InstructionError": []any{0, "Custom"}}},
	}}
	client := testClient(node)

	err := client.ConfirmTransaction(context.Background(), solana.Signature{})
	if xerrors.CodeOf(err) != xerrors.CodeChainRejected {
		t.Fatalf("on-chain failure should classify as CHAIN_REJECTED, got %v", err)
	}
}

func TestPerformanceSamplesComputesTPS(t *testing.T) {
	node := &fakeNode{samples: []*rpc.GetRecentPerformanceSamplesResult{
		{Slot: 1000, NumTransactions: 3000, SamplePeriodSecs: 60},
	}}
	client := testClient(node)

	samples, err := client.PerformanceSamples(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 1 || samples[0].TPS != 50 {
		t.Fatalf("unexpected samples: %+v", samples)
	}
}

func TestTokenBalanceParsesRawAmount(t *testing.T) {
	client := testClient(&fakeNode{})
	amount, err := client.TokenBalance(context.Background(), solana.PublicKey{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount.Amount != 2500000 || amount.Decimals != 6 {
		t.Fatalf("unexpected token amount: %+v", amount)
	}
}
