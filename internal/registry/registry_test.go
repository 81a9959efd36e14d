package registry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gagliardetto/solana-go"

	"SolAgent-Kit/internal/agent"
	"SolAgent-Kit/internal/chain"
	xerrors "SolAgent-Kit/internal/errors"
	"SolAgent-Kit/internal/wallet"
)

type stubChain struct {
	balance uint64
}

func (s stubChain) Balance(context.Context, solana.PublicKey) (uint64, error) {
	return s.balance, nil
}
func (stubChain) TokenBalance(context.Context, solana.PublicKey) (chain.TokenAmount, error) {
	return chain.TokenAmount{}, nil
}
func (stubChain) MintInfo(context.Context, solana.PublicKey) (chain.MintInfo, error) {
	return chain.MintInfo{}, nil
}
func (stubChain) TokenAccountInfo(context.Context, solana.PublicKey) (chain.TokenAccountInfo, error) {
	return chain.TokenAccountInfo{}, nil
}
func (stubChain) LatestBlockhash(context.Context) (chain.Blockhash, error) {
	return chain.Blockhash{}, nil
}
func (stubChain) SendTransaction(context.Context, *solana.Transaction, chain.SendOptions) (solana.Signature, error) {
	return solana.Signature{}, nil
}
func (stubChain) ConfirmTransaction(context.Context, solana.Signature) error { return nil }
func (stubChain) RequestAirdrop(context.Context, solana.PublicKey, uint64) (solana.Signature, error) {
	return solana.Signature{}, nil
}
func (stubChain) PerformanceSamples(context.Context, uint) ([]chain.PerformanceSample, error) {
	return nil, nil
}
func (stubChain) MinimumRentExemption(context.Context, uint64) (uint64, error) { return 0, nil }
func (stubChain) Close()                                                       {}

func testKit(t *testing.T) *agent.Kit {
	t.Helper()
	kit, err := agent.New(agent.Options{
		Wallet: wallet.Generate(),
		Chain:  stubChain{balance: 1_000_000_000},
	})
	if err != nil {
		t.Fatal(err)
	}
	return kit
}

func TestRegistryListsEveryTool(t *testing.T) {
	reg := New()
	want := []string{
		"transfer", "trade", "stake", "lend", "deploy_token", "request_faucet",
		"burn_and_close", "burn_and_close_batch", "create_pool", "launch_token",
		"fetch_price", "network_stats", "get_balance", "create_image",
		"rugcheck", "resolve_domain",
	}
	defs := reg.Definitions()
	if len(defs) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(defs))
	}
	for i, name := range want {
		if defs[i].Name != name {
			t.Fatalf("tool %d: expected %s, got %s", i, name, defs[i].Name)
		}
		if defs[i].Description == "" {
			t.Fatalf("tool %s has no description", name)
		}
		if !reg.Has(name) {
			t.Fatalf("Has(%s) = false", name)
		}
	}
}

func TestInvokeUnknownToolIsNotFound(t *testing.T) {
	reg := New()
	_, err := reg.Invoke(context.Background(), testKit(t), "no_such_tool", nil)
	if xerrors.CodeOf(err) != xerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestInvokeRejectsUnknownFields(t *testing.T) {
	reg := New()
	args := json.RawMessage(`{"amount": 1, "bogus": true}`)
	_, err := reg.Invoke(context.Background(), testKit(t), "request_faucet", args)
	if xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestInvokeDispatchesToAdapter(t *testing.T) {
	reg := New()
	result, err := reg.Invoke(context.Background(), testKit(t), "get_balance", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Asset    string  `json:"asset"`
		UIAmount float64 `json:"ui_amount"`
	}
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Asset != "SOL" || decoded.UIAmount != 1 {
		t.Fatalf("unexpected result: %s", encoded)
	}
}

func TestFunctionToolsProjectEveryDefinition(t *testing.T) {
	reg := New()
	tools := reg.FunctionTools(testKit(t))
	if len(tools) != len(reg.Definitions()) {
		t.Fatalf("expected %d tools, got %d", len(reg.Definitions()), len(tools))
	}
	decl := tools[0].Declaration()
	if decl == nil || decl.Name != "transfer" {
		t.Fatalf("unexpected first declaration: %+v", decl)
	}
}
