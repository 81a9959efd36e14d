package lulo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"

	xerrors "SolAgent-Kit/internal/errors"
)

func TestDepositSendsAccountAndAmount(t *testing.T) {
	account := solana.NewWallet().PublicKey()
	var gotQuery map[string][]string
	var gotBody struct {
		Account string `json:"account"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode deposit body: %v", err)
		}
		w.Write([]byte(`{"transaction":"BASE64TX"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	tx, err := client.Deposit(context.Background(), account, 12.5, "usdt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx != "BASE64TX" {
		t.Fatalf("unexpected transaction: %s", tx)
	}
	if got := gotQuery["amount"]; len(got) != 1 || got[0] != "12.5" {
		t.Fatalf("amount not sent: %v", gotQuery)
	}
	if got := gotQuery["symbol"]; len(got) != 1 || got[0] != "USDT" {
		t.Fatalf("symbol not upper-cased: %v", gotQuery)
	}
	if gotBody.Account != account.String() {
		t.Fatalf("unexpected account: %s", gotBody.Account)
	}
}

func TestDepositDefaultsSymbolToUSDC(t *testing.T) {
	var gotSymbol string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSymbol = r.URL.Query().Get("symbol")
		w.Write([]byte(`{"transaction":"BASE64TX"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if _, err := client.Deposit(context.Background(), solana.NewWallet().PublicKey(), 1, "  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotSymbol != "USDC" {
		t.Fatalf("expected USDC default, got %s", gotSymbol)
	}
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Deposit(context.Background(), solana.NewWallet().PublicKey(), 0, "USDC")
	if xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestDepositProviderErrorsClassify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient pool capacity", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.Deposit(context.Background(), solana.NewWallet().PublicKey(), 1, "USDC")
	if xerrors.CodeOf(err) != xerrors.CodeProviderFailure {
		t.Fatalf("expected PROVIDER_FAILURE, got %v", err)
	}
}

func TestDepositRejectsEmptyTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transaction":""}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.Deposit(context.Background(), solana.NewWallet().PublicKey(), 1, "USDC")
	if xerrors.CodeOf(err) != xerrors.CodeProviderFailure {
		t.Fatalf("expected PROVIDER_FAILURE, got %v", err)
	}
}
