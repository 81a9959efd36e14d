package ops

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"SolAgent-Kit/internal/agent"
	"SolAgent-Kit/internal/chain"
	xerrors "SolAgent-Kit/internal/errors"
	"SolAgent-Kit/internal/wallet"
)

// SPL mint account layout size in bytes.
const mintAccountSize = 82

const defaultMintDecimals = 9

// DeployTokenRequest creates a new SPL mint with the kit wallet as mint
// authority. Decimals left nil defaults to 9.
type DeployTokenRequest struct {
	Decimals *uint8 `json:"decimals,omitempty"`
}

// Validate checks the request before any network interaction.
func (r DeployTokenRequest) Validate() error {
	if r.Decimals != nil && *r.Decimals > 9 {
		return xerrors.New(xerrors.CodeInvalidArgument, "decimals must be between 0 and 9")
	}
	return nil
}

// DeployTokenResult reports the new mint.
type DeployTokenResult struct {
	Signature string `json:"signature"`
	Mint      string `json:"mint"`
	Decimals  uint8  `json:"decimals"`
}

// DeployToken funds a fresh mint account and initialises it in a single
// transaction signed by the wallet and the mint keypair.
func DeployToken(ctx context.Context, kit *agent.Kit, req DeployTokenRequest) (*DeployTokenResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	decimals := uint8(defaultMintDecimals)
	if req.Decimals != nil {
		decimals = *req.Decimals
	}

	mint := wallet.Generate()
	rent, err := kit.Chain().MinimumRentExemption(ctx, mintAccountSize)
	if err != nil {
		return nil, err
	}

	createAccount := system.NewCreateAccountInstruction(
		rent,
		mintAccountSize,
		token.ProgramID,
		kit.Wallet().PublicKey(),
		mint.PublicKey(),
	).Build()

	initializeMint := token.NewInitializeMint2InstructionBuilder().
		SetDecimals(decimals).
		SetMintAuthority(kit.Wallet().PublicKey()).
		SetMintAccount(mint.PublicKey()).
		Build()

	latest, err := kit.Chain().LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := solana.NewTransaction(
		[]solana.Instruction{createAccount, initializeMint},
		latest.Hash,
		solana.TransactionPayer(kit.Wallet().PublicKey()),
	)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "assemble mint deployment")
	}

	sig, err := signSendConfirm(ctx, kit, tx, chain.SendOptions{}, mint)
	if err != nil {
		return nil, err
	}
	return &DeployTokenResult{
		Signature: sig.String(),
		Mint:      mint.PublicKey().String(),
		Decimals:  decimals,
	}, nil
}
