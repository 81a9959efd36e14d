// Package wallet holds the signing credential of an agent context. The key
// is decoded once at construction and never mutated or re-exported.
package wallet

import (
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	xerrors "SolAgent-Kit/internal/errors"
)

// ed25519 secret keys serialise to 64 bytes (seed plus public half).
const secretKeyLength = 64

// Wallet wraps a decoded signing key. The zero value is unusable; construct
// via FromBase58 or Generate.
type Wallet struct {
	key solana.PrivateKey
}

// FromBase58 decodes base58-encoded key material. It fails with a credential
// error before any network interaction when the material is malformed.
func FromBase58(encoded string) (*Wallet, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, xerrors.New(xerrors.CodeCredentialFailure, "private key is empty")
	}
	raw, err := base58.Decode(encoded)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeCredentialFailure, err, "private key is not valid base58")
	}
	if len(raw) != secretKeyLength {
		return nil, xerrors.New(xerrors.CodeCredentialFailure, "private key has wrong length")
	}
	key, err := solana.PrivateKeyFromBase58(encoded)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeCredentialFailure, err, "private key rejected")
	}
	return &Wallet{key: key}, nil
}

// Generate creates a fresh keypair. Used for mint accounts, never for the
// session credential.
func Generate() *Wallet {
	account := solana.NewWallet()
	return &Wallet{key: account.PrivateKey}
}

// PublicKey returns the public half of the keypair.
func (w *Wallet) PublicKey() solana.PublicKey {
	return w.key.PublicKey()
}

// Signers returns a signer callback resolving this wallet plus any extras,
// in the shape solana.Transaction.Sign expects.
func (w *Wallet) Signers(extra ...*Wallet) func(solana.PublicKey) *solana.PrivateKey {
	return func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(w.key.PublicKey()) {
			return &w.key
		}
		for _, other := range extra {
			if other != nil && pub.Equals(other.key.PublicKey()) {
				return &other.key
			}
		}
		return nil
	}
}

// SignTransaction signs tx with this wallet and any extra keypairs. Every
// required signer must be resolvable or the call fails with a credential
// error.
func (w *Wallet) SignTransaction(tx *solana.Transaction, extra ...*Wallet) error {
	if tx == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "transaction is nil")
	}
	if _, err := tx.Sign(w.Signers(extra...)); err != nil {
		return xerrors.Wrap(xerrors.CodeCredentialFailure, err, "sign transaction")
	}
	return nil
}
