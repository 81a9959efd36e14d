// Package agent assembles the toolkit context: one signing wallet, one
// ledger client and the protocol clients every operation adapter works
// through. The context is immutable after construction.
package agent

import (
	"fmt"
	"log/slog"

	"SolAgent-Kit/internal/chain"
	"SolAgent-Kit/internal/chain/provider"
	"SolAgent-Kit/internal/config"
	"SolAgent-Kit/internal/defi/jupiter"
	"SolAgent-Kit/internal/defi/lulo"
	"SolAgent-Kit/internal/defi/meteora"
	"SolAgent-Kit/internal/defi/pumpfun"
	"SolAgent-Kit/internal/defi/pyth"
	"SolAgent-Kit/internal/defi/rugcheck"
	xerrors "SolAgent-Kit/internal/errors"
	"SolAgent-Kit/internal/llm"
	"SolAgent-Kit/internal/llm/openai"
	"SolAgent-Kit/internal/tokens"
	"SolAgent-Kit/internal/wallet"
	"SolAgent-Kit/pkg/logger"
)

// Options lists the components a Kit is built from. Wallet and Chain are
// mandatory; everything else gets a usable default.
type Options struct {
	Wallet   *wallet.Wallet
	Chain    chain.Client
	Tokens   *tokens.Directory
	Jupiter  *jupiter.Client
	Lulo     *lulo.Client
	Pumpfun  *pumpfun.Client
	Meteora  *meteora.Client
	Pyth     *pyth.Client
	Rugcheck *rugcheck.Client
	Names    *tokens.SNSResolver
	Images   llm.ImageGenerator
}

// Kit is the per-wallet execution context shared by all operations.
type Kit struct {
	wallet   *wallet.Wallet
	chain    chain.Client
	tokens   *tokens.Directory
	jupiter  *jupiter.Client
	lulo     *lulo.Client
	pumpfun  *pumpfun.Client
	meteora  *meteora.Client
	pyth     *pyth.Client
	rugcheck *rugcheck.Client
	names    *tokens.SNSResolver
	images   llm.ImageGenerator
	log      *slog.Logger
}

// New validates the options and assembles a Kit.
func New(opts Options) (*Kit, error) {
	if opts.Wallet == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "wallet is not configured")
	}
	if opts.Chain == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "ledger client is not configured")
	}
	if opts.Tokens == nil {
		opts.Tokens = tokens.NewDirectory()
	}
	if opts.Jupiter == nil {
		opts.Jupiter = jupiter.NewClient(jupiter.Config{})
	}
	if opts.Lulo == nil {
		opts.Lulo = lulo.NewClient(lulo.Config{})
	}
	if opts.Pumpfun == nil {
		opts.Pumpfun = pumpfun.NewClient(pumpfun.Config{})
	}
	if opts.Meteora == nil {
		opts.Meteora = meteora.NewClient(meteora.Config{})
	}
	if opts.Pyth == nil {
		opts.Pyth = pyth.NewClient(pyth.Config{})
	}
	if opts.Rugcheck == nil {
		opts.Rugcheck = rugcheck.NewClient(rugcheck.Config{})
	}
	if opts.Names == nil {
		opts.Names = tokens.NewSNSResolver(tokens.SNSConfig{})
	}

	return &Kit{
		wallet:   opts.Wallet,
		chain:    opts.Chain,
		tokens:   opts.Tokens,
		jupiter:  opts.Jupiter,
		lulo:     opts.Lulo,
		pumpfun:  opts.Pumpfun,
		meteora:  opts.Meteora,
		pyth:     opts.Pyth,
		rugcheck: opts.Rugcheck,
		names:    opts.Names,
		images:   opts.Images,
		log:      logger.Named("agent"),
	}, nil
}

// FromConfig builds a Kit plus its cluster registry from daemon config.
// The returned cleanup closes every RPC connection.
func FromConfig(cfg *config.Config) (*Kit, *provider.Registry, func(), error) {
	material, err := cfg.Wallet.PrivateKey()
	if err != nil {
		return nil, nil, nil, xerrors.Wrap(xerrors.CodeCredentialFailure, err, "resolve wallet key")
	}
	signer, err := wallet.FromBase58(material)
	if err != nil {
		return nil, nil, nil, err
	}

	registry, err := provider.NewRegistry(cfg.Chain)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initialise cluster registry: %w", err)
	}
	client, err := registry.DefaultClient()
	if err != nil {
		registry.Close()
		return nil, nil, nil, err
	}

	directory, err := tokens.LoadDirectory(cfg.Providers.TokenDirectory)
	if err != nil {
		registry.Close()
		return nil, nil, nil, err
	}

	var images llm.ImageGenerator
	if key := cfg.Media.APIKeyFor(); key != "" {
		images, err = openai.NewClient(openai.Config{
			APIKey:  key,
			BaseURL: cfg.Media.BaseURL,
			Model:   cfg.Media.Model,
			Timeout: cfg.Media.Timeout(),
		})
		if err != nil {
			registry.Close()
			return nil, nil, nil, err
		}
	}

	kit, err := New(Options{
		Wallet: signer,
		Chain:  client,
		Tokens: directory,
		Jupiter: jupiter.NewClient(jupiter.Config{
			QuoteURL: cfg.Providers.JupiterQuoteURL,
			PriceURL: cfg.Providers.JupiterPriceURL,
			StakeURL: cfg.Providers.StakeBlinkURL,
		}),
		Lulo: lulo.NewClient(lulo.Config{BaseURL: cfg.Providers.LuloURL}),
		Pumpfun: pumpfun.NewClient(pumpfun.Config{
			IPFSURL:  cfg.Providers.PumpfunIPFSURL,
			TradeURL: cfg.Providers.PumpfunTradeURL,
		}),
		Meteora: meteora.NewClient(meteora.Config{BaseURL: cfg.Providers.MeteoraURL}),
		Pyth:    pyth.NewClient(pyth.Config{RPCURL: cfg.Providers.PythRPCURL}),
		Rugcheck: rugcheck.NewClient(rugcheck.Config{
			BaseURL: cfg.Providers.RugcheckURL,
		}),
		Names:  tokens.NewSNSResolver(tokens.SNSConfig{RPCURL: cfg.Providers.SNSRPCURL}),
		Images: images,
	})
	if err != nil {
		registry.Close()
		return nil, nil, nil, err
	}
	return kit, registry, registry.Close, nil
}

// Wallet returns the signing wallet.
func (k *Kit) Wallet() *wallet.Wallet { return k.wallet }

// Chain returns the ledger client.
func (k *Kit) Chain() chain.Client { return k.chain }

// Tokens returns the asset directory.
func (k *Kit) Tokens() *tokens.Directory { return k.tokens }

// Jupiter returns the aggregator client.
func (k *Kit) Jupiter() *jupiter.Client { return k.jupiter }

// Lulo returns the lending client.
func (k *Kit) Lulo() *lulo.Client { return k.lulo }

// Pumpfun returns the launchpad client.
func (k *Kit) Pumpfun() *pumpfun.Client { return k.pumpfun }

// Meteora returns the pool builder client.
func (k *Kit) Meteora() *meteora.Client { return k.meteora }

// Pyth returns the oracle price reader.
func (k *Kit) Pyth() *pyth.Client { return k.pyth }

// Rugcheck returns the token risk report client.
func (k *Kit) Rugcheck() *rugcheck.Client { return k.rugcheck }

// Names returns the domain name resolver. Disabled unless an endpoint is
// configured.
func (k *Kit) Names() *tokens.SNSResolver { return k.names }

// Images returns the optional image generator, nil when not configured.
func (k *Kit) Images() llm.ImageGenerator { return k.images }

// Log returns the context logger.
func (k *Kit) Log() *slog.Logger { return k.log }
