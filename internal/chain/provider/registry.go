package provider

import (
	"fmt"
	"sort"
	"strings"

	"SolAgent-Kit/internal/chain"
	"SolAgent-Kit/internal/chain/solanarpc"
	"SolAgent-Kit/internal/config"
	xerrors "SolAgent-Kit/internal/errors"
)

// Registry manages a set of ledger clients keyed by human readable names.
type Registry struct {
	defaultCluster string
	clients        map[string]chain.Client
}

// NewRegistry loads cluster definitions and instantiates concrete clients.
func NewRegistry(cfg config.ChainConfig) (*Registry, error) {
	defs, err := chain.LoadClusterDefinitions(cfg.ClusterConfig)
	if err != nil {
		return nil, err
	}

	clients := make(map[string]chain.Client)
	for name, def := range defs.Clusters {
		commitment := def.Commitment
		if commitment == "" {
			commitment = cfg.Commitment
		}
		client, err := solanarpc.NewClient(solanarpc.Config{
			Name:           name,
			Endpoint:       def.RPCURL,
			Commitment:     commitment,
			ConfirmTimeout: cfg.ConfirmTimeout(),
			ConfirmPoll:    cfg.ConfirmPoll(),
		})
		if err != nil {
			return nil, fmt.Errorf("initialise cluster %s: %w", name, err)
		}
		clients[name] = client
	}

	if len(clients) == 0 && strings.TrimSpace(cfg.RPCURL) != "" {
		client, err := solanarpc.NewClient(solanarpc.Config{
			Name:           "default",
			Endpoint:       cfg.RPCURL,
			Commitment:     cfg.Commitment,
			ConfirmTimeout: cfg.ConfirmTimeout(),
			ConfirmPoll:    cfg.ConfirmPoll(),
		})
		if err != nil {
			return nil, err
		}
		clients["default"] = client
		if cfg.DefaultCluster == "" {
			cfg.DefaultCluster = "default"
		}
	}

	if len(clients) == 0 {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "no cluster RPC endpoints configured")
	}

	defaultCluster := cfg.DefaultCluster
	if defaultCluster == "" {
		names := make([]string, 0, len(clients))
		for name := range clients {
			names = append(names, name)
		}
		sort.Strings(names)
		defaultCluster = names[0]
	}
	if _, ok := clients[defaultCluster]; !ok {
		return nil, fmt.Errorf("default cluster %s is not defined", defaultCluster)
	}

	return &Registry{defaultCluster: defaultCluster, clients: clients}, nil
}

// DefaultClient returns the client for the default cluster.
func (r *Registry) DefaultClient() (chain.Client, error) {
	return r.Client(r.defaultCluster)
}

// Client returns a client by cluster name.
func (r *Registry) Client(name string) (chain.Client, error) {
	client, ok := r.clients[name]
	if !ok {
		return nil, xerrors.New(xerrors.CodeNotFound, fmt.Sprintf("cluster %s is not configured", name))
	}
	return client, nil
}

// Names returns the configured cluster names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases every client's connection.
func (r *Registry) Close() {
	for _, client := range r.clients {
		client.Close()
	}
}
