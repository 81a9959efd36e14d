package wallet

import (
	stdErrors "errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	xerrors "SolAgent-Kit/internal/errors"
)

func TestFromBase58RoundTrip(t *testing.T) {
	generated := solana.NewWallet()
	w, err := FromBase58(generated.PrivateKey.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.PublicKey().Equals(generated.PublicKey()) {
		t.Fatalf("public key mismatch: %s vs %s", w.PublicKey(), generated.PublicKey())
	}
}

func TestFromBase58RejectsGarbage(t *testing.T) {
	cases := []string{"", "not-base58-0OIl", "3mJr7AoUXx2Wqd"}
	for _, input := range cases {
		_, err := FromBase58(input)
		if err == nil {
			t.Fatalf("expected failure for %q", input)
		}
		if !stdErrors.Is(err, xerrors.New(xerrors.CodeCredentialFailure, "")) {
			t.Fatalf("expected CREDENTIAL_FAILURE for %q, got %v", input, err)
		}
	}
}

func TestSignersResolveExtraKeypairs(t *testing.T) {
	payer := Generate()
	mint := Generate()

	resolve := payer.Signers(mint)
	if resolve(payer.PublicKey()) == nil {
		t.Fatalf("payer key should resolve")
	}
	if resolve(mint.PublicKey()) == nil {
		t.Fatalf("extra keypair should resolve")
	}
	if resolve(Generate().PublicKey()) != nil {
		t.Fatalf("unknown key must not resolve")
	}
}
