package ops

import (
	"context"
	"strings"

	"SolAgent-Kit/internal/agent"
	xerrors "SolAgent-Kit/internal/errors"
)

// ResolveDomainRequest maps a name-service domain to a wallet address.
type ResolveDomainRequest struct {
	Domain string `json:"domain"`
}

// Validate checks the request before any network interaction.
func (r ResolveDomainRequest) Validate() error {
	if strings.TrimSpace(r.Domain) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "domain is required")
	}
	return nil
}

// ResolveDomainResult reports the resolved owner address.
type ResolveDomainResult struct {
	Domain  string `json:"domain"`
	Address string `json:"address"`
}

// ResolveDomain resolves the domain through the name service.
func ResolveDomain(ctx context.Context, kit *agent.Kit, req ResolveDomainRequest) (*ResolveDomainResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	address, err := kit.Names().Resolve(ctx, req.Domain)
	if err != nil {
		return nil, err
	}
	return &ResolveDomainResult{
		Domain:  strings.ToLower(strings.TrimSpace(req.Domain)),
		Address: address.String(),
	}, nil
}
