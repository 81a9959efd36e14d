package ops

import (
	"context"
	"strings"

	"SolAgent-Kit/internal/agent"
	xerrors "SolAgent-Kit/internal/errors"
)

// RugReportRequest fetches the risk report summary for an asset.
type RugReportRequest struct {
	Asset string `json:"asset"`
}

// Validate checks the request before any network interaction.
func (r RugReportRequest) Validate() error {
	if strings.TrimSpace(r.Asset) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "asset is required")
	}
	return nil
}

// RugRisk is one flagged issue on the report.
type RugRisk struct {
	Name        string  `json:"name"`
	Value       string  `json:"value,omitempty"`
	Level       string  `json:"level,omitempty"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score,omitempty"`
}

// RugReportResult is the condensed risk report. Higher scores mean higher
// risk.
type RugReportResult struct {
	Asset string    `json:"asset"`
	Mint  string    `json:"mint"`
	Score float64   `json:"score"`
	Risks []RugRisk `json:"risks"`
}

// RugReport resolves the asset and fetches its risk report summary.
func RugReport(ctx context.Context, kit *agent.Kit, req RugReportRequest) (*RugReportResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	mint, err := kit.Tokens().Resolve(req.Asset)
	if err != nil {
		return nil, err
	}

	summary, err := kit.Rugcheck().ReportSummary(ctx, mint.String())
	if err != nil {
		return nil, err
	}
	risks := make([]RugRisk, 0, len(summary.Risks))
	for _, risk := range summary.Risks {
		risks = append(risks, RugRisk{
			Name:        risk.Name,
			Value:       risk.Value,
			Level:       risk.Level,
			Description: risk.Description,
			Score:       risk.Score,
		})
	}
	return &RugReportResult{
		Asset: kit.Tokens().Symbol(mint),
		Mint:  mint.String(),
		Score: summary.Score,
		Risks: risks,
	}, nil
}
