package sources

import (
	"context"
	"fmt"

	"github.com/web3-frozen/cosmos-defi/internal/history"
	"github.com/web3-frozen/cosmos-defi/internal/monitor"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

// Drop has no public rate endpoint; both the current rate and the yield
// come from its snapshot history.
type Drop struct {
	info
	history history.Loader
	policy  yield.Policy
}

func NewDrop(loader history.Loader) *Drop {
	return &Drop{
		info: info{
			name:     "drop",
			category: "liquid-staking",
			chain:    "Neutron",
			url:      "https://app.drop.money",
		},
		history: loader,
		policy:  yield.DefaultPolicy,
	}
}

func (d *Drop) FetchSnapshot(ctx context.Context) (*monitor.Snapshot, error) {
	if d.history == nil {
		return nil, fmt.Errorf("drop: no history loader")
	}
	points, err := d.history.Load(ctx, d.name)
	if err != nil {
		return nil, err
	}
	latest, ok := yield.Latest(points)
	if !ok {
		return nil, fmt.Errorf("drop: %w", yield.ErrInsufficientHistory)
	}

	snap := d.snapshot()
	snap.Metrics[monitor.MetricRate] = latest.Rate
	snap.Metrics["rate_age_seconds"] = snap.FetchedAt.Sub(latest.Timestamp).Seconds()
	snap.DataSources["history"] = d.name + ".json"

	res, err := yield.FromHistory(points, d.policy)
	if err != nil {
		snap.Notes["yield"] = err.Error()
		return snap, nil
	}
	setResult(snap, res)
	return snap, nil
}
