package ops

import (
	"context"

	"SolAgent-Kit/internal/agent"
	"SolAgent-Kit/internal/chain"
	xerrors "SolAgent-Kit/internal/errors"
)

const maxPerformanceSamples = 720

// NetworkStatsRequest reads recent cluster throughput. Samples left zero
// defaults to 1, which yields the current TPS.
type NetworkStatsRequest struct {
	Samples uint `json:"samples,omitempty"`
}

// Validate checks the request before any network interaction.
func (r NetworkStatsRequest) Validate() error {
	if r.Samples > maxPerformanceSamples {
		return xerrors.New(xerrors.CodeInvalidArgument, "at most 720 samples are retained by the cluster")
	}
	return nil
}

// NetworkStatsResult aggregates the returned samples.
type NetworkStatsResult struct {
	CurrentTPS float64                   `json:"current_tps"`
	AverageTPS float64                   `json:"average_tps"`
	MaxTPS     float64                   `json:"max_tps"`
	Samples    []chain.PerformanceSample `json:"samples"`
}

// NetworkStats fetches performance samples and derives TPS figures. Samples
// covering an empty period are skipped, matching how validators report
// idle windows.
func NetworkStats(ctx context.Context, kit *agent.Kit, req NetworkStatsRequest) (*NetworkStatsResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	limit := req.Samples
	if limit == 0 {
		limit = 1
	}

	samples, err := kit.Chain().PerformanceSamples(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, xerrors.New(xerrors.CodeRPCFailure, "cluster returned no performance samples")
	}

	result := &NetworkStatsResult{Samples: samples}
	var total float64
	var counted int
	for _, sample := range samples {
		if sample.SamplePeriodSecs == 0 {
			continue
		}
		total += sample.TPS
		counted++
		if sample.TPS > result.MaxTPS {
			result.MaxTPS = sample.TPS
		}
	}
	if counted > 0 {
		result.AverageTPS = total / float64(counted)
	}
	result.CurrentTPS = samples[0].TPS
	return result, nil
}
