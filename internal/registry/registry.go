// Package registry holds the static tool table: every operation the toolkit
// exposes, addressable by name for raw-JSON dispatch and projectable into
// the agent-orchestration framework's tool contract.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"trpc.group/trpc-go/trpc-agent-go/tool"
	"trpc.group/trpc-go/trpc-agent-go/tool/function"

	"SolAgent-Kit/internal/agent"
	xerrors "SolAgent-Kit/internal/errors"
	"SolAgent-Kit/internal/ops"
)

// Handler dispatches raw JSON arguments to an operation adapter.
type Handler func(ctx context.Context, kit *agent.Kit, args json.RawMessage) (any, error)

// Definition describes one registered tool.
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	handler  Handler
	makeTool func(kit *agent.Kit, def Definition) tool.CallableTool
}

// Registry is the immutable tool table.
type Registry struct {
	defs   []Definition
	byName map[string]Definition
}

// New builds the full tool table. The set is fixed at compile time; there
// is no runtime registration.
func New() *Registry {
	defs := []Definition{
		entry("transfer",
			"Transfer SOL or an SPL token from the agent wallet to another address.",
			ops.Transfer),
		entry("trade",
			"Swap one asset for another through the Jupiter aggregator.",
			ops.Trade),
		entry("stake",
			"Stake SOL for jupSOL through the Jupiter staking blink.",
			ops.Stake),
		entry("lend",
			"Deposit an asset into the Lulo lending protocol.",
			ops.Lend),
		entry("deploy_token",
			"Create and initialise a new SPL token mint owned by the agent wallet.",
			ops.DeployToken),
		entry("request_faucet",
			"Request an airdrop of test SOL from the cluster faucet.",
			ops.Faucet),
		entry("burn_and_close",
			"Burn the remaining balance of a token account and close it to reclaim rent.",
			ops.BurnClose),
		entry("burn_and_close_batch",
			"Burn and close several token accounts, continuing past individual failures.",
			ops.BurnCloseBatch),
		entry("create_pool",
			"Create a Meteora DLMM pool for a token pair at an initial price.",
			ops.CreatePool),
		entry("launch_token",
			"Launch a token on the Pump.fun bonding curve with pinned metadata.",
			ops.LaunchToken),
		entry("fetch_price",
			"Fetch the USD price of an asset from the Jupiter price feed or a Pyth oracle account.",
			ops.FetchPrice),
		entry("network_stats",
			"Read recent cluster throughput and derive TPS figures.",
			ops.NetworkStats),
		entry("get_balance",
			"Read the agent wallet's SOL or token balance.",
			ops.Balance),
		entry("create_image",
			"Generate images from a prompt through the configured media provider.",
			ops.CreateImage),
		entry("rugcheck",
			"Fetch the rug-pull risk report summary for a token.",
			ops.RugReport),
		entry("resolve_domain",
			"Resolve a .sol name-service domain to its wallet address.",
			ops.ResolveDomain),
	}

	byName := make(map[string]Definition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}
	return &Registry{defs: defs, byName: byName}
}

// entry adapts a typed operation into a raw-JSON handler plus a framework
// tool factory, keeping both dispatch paths on the same function.
func entry[Req any, Res any](name, description string, fn func(context.Context, *agent.Kit, Req) (*Res, error)) Definition {
	return Definition{
		Name:        name,
		Description: description,
		handler: func(ctx context.Context, kit *agent.Kit, args json.RawMessage) (any, error) {
			var req Req
			if len(args) > 0 && !bytes.Equal(bytes.TrimSpace(args), []byte("null")) {
				decoder := json.NewDecoder(bytes.NewReader(args))
				decoder.DisallowUnknownFields()
				if err := decoder.Decode(&req); err != nil {
					return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err,
						fmt.Sprintf("decode %s arguments", name))
				}
			}
			return fn(ctx, kit, req)
		},
		makeTool: func(kit *agent.Kit, def Definition) tool.CallableTool {
			return function.NewFunctionTool(
				func(ctx context.Context, req Req) (*Res, error) {
					return fn(ctx, kit, req)
				},
				function.WithName(def.Name),
				function.WithDescription(def.Description),
			)
		},
	}
}

// Definitions lists the registered tools in registration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Invoke dispatches raw JSON arguments to the named tool.
func (r *Registry) Invoke(ctx context.Context, kit *agent.Kit, name string, args json.RawMessage) (any, error) {
	def, ok := r.byName[name]
	if !ok {
		return nil, xerrors.New(xerrors.CodeNotFound, fmt.Sprintf("tool %s is not registered", name))
	}
	return def.handler(ctx, kit, args)
}

// FunctionTools projects the table into framework tools bound to kit.
func (r *Registry) FunctionTools(kit *agent.Kit) []tool.CallableTool {
	out := make([]tool.CallableTool, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def.makeTool(kit, def))
	}
	return out
}
