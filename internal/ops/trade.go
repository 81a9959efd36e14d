package ops

import (
	"context"
	"strings"

	"SolAgent-Kit/internal/agent"
	"SolAgent-Kit/internal/chain"
	"SolAgent-Kit/internal/defi/jupiter"
	xerrors "SolAgent-Kit/internal/errors"
)

// TradeRequest swaps InputAsset for OutputAsset through the aggregator.
// InputAsset left empty defaults to USDC.
type TradeRequest struct {
	OutputAsset string  `json:"output_asset"`
	InputAmount float64 `json:"input_amount"`
	InputAsset  string  `json:"input_asset,omitempty"`
	SlippageBPS uint64  `json:"slippage_bps,omitempty"`
}

// Validate checks the request before any network interaction.
func (r TradeRequest) Validate() error {
	if strings.TrimSpace(r.OutputAsset) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "output asset is required")
	}
	if r.InputAmount <= 0 {
		return xerrors.New(xerrors.CodeInvalidArgument, "input amount must be positive")
	}
	if r.SlippageBPS > 10000 {
		return xerrors.New(xerrors.CodeInvalidArgument, "slippage exceeds 100%")
	}
	return nil
}

// TradeResult reports the confirmed swap.
type TradeResult struct {
	Signature   string  `json:"signature"`
	InputAsset  string  `json:"input_asset"`
	OutputAsset string  `json:"output_asset"`
	InputAmount float64 `json:"input_amount"`
	SlippageBPS uint64  `json:"slippage_bps"`
}

// Trade quotes the route, has the aggregator build the swap, then signs and
// submits it. Preflight stays on and the node retransmits a few times
// within the blockhash window.
func Trade(ctx context.Context, kit *agent.Kit, req TradeRequest) (*TradeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inputAsset := strings.TrimSpace(req.InputAsset)
	if inputAsset == "" {
		inputAsset = "USDC"
	}
	inputMint, err := kit.Tokens().Resolve(inputAsset)
	if err != nil {
		return nil, err
	}
	outputMint, err := kit.Tokens().Resolve(req.OutputAsset)
	if err != nil {
		return nil, err
	}
	if inputMint.Equals(outputMint) {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "input and output assets are the same")
	}

	decimals, err := mintDecimals(ctx, kit, inputMint)
	if err != nil {
		return nil, err
	}
	rawAmount, err := displayToRaw(req.InputAmount, decimals)
	if err != nil {
		return nil, err
	}

	slippage := req.SlippageBPS
	if slippage == 0 {
		slippage = jupiter.DefaultSlippageBPS
	}
	quote, err := kit.Jupiter().Quote(ctx, jupiter.QuoteRequest{
		InputMint:   inputMint,
		OutputMint:  outputMint,
		Amount:      rawAmount,
		SlippageBPS: slippage,
	})
	if err != nil {
		return nil, err
	}

	encoded, err := kit.Jupiter().Swap(ctx, quote, kit.Wallet().PublicKey())
	if err != nil {
		return nil, err
	}
	tx, err := decodeTransactionBase64(encoded)
	if err != nil {
		return nil, err
	}

	sig, err := signSendConfirm(ctx, kit, tx, chain.SendOptions{MaxRetries: &swapSendRetries})
	if err != nil {
		return nil, err
	}
	return &TradeResult{
		Signature:   sig.String(),
		InputAsset:  kit.Tokens().Symbol(inputMint),
		OutputAsset: kit.Tokens().Symbol(outputMint),
		InputAmount: req.InputAmount,
		SlippageBPS: slippage,
	}, nil
}
