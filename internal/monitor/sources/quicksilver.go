package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/web3-frozen/cosmos-defi/internal/fetch"
	"github.com/web3-frozen/cosmos-defi/internal/history"
	"github.com/web3-frozen/cosmos-defi/internal/monitor"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

const quicksilverLCD = "https://quicksilver-api.polkachu.com"

// Quicksilver reads the qATOM redemption rate from the interchainstaking
// zones list.
type Quicksilver struct {
	info
	baseURL string
	client  *fetch.Client
	history history.Loader
	policy  yield.Policy
}

func NewQuicksilver(client *fetch.Client, loader history.Loader) *Quicksilver {
	return &Quicksilver{
		info: info{
			name:     "quicksilver",
			category: "liquid-staking",
			chain:    "Quicksilver",
			url:      "https://app.quicksilver.zone",
		},
		baseURL: quicksilverLCD,
		client:  client,
		history: loader,
		policy:  yield.DefaultPolicy,
	}
}

func (q *Quicksilver) WithBaseURL(u string) *Quicksilver {
	q.baseURL = strings.TrimRight(u, "/")
	return q
}

type quicksilverZones struct {
	Zones []struct {
		ChainID        string `json:"chain_id"`
		LocalDenom     string `json:"local_denom"`
		RedemptionRate string `json:"redemption_rate"`
	} `json:"zones"`
}

// RedemptionRate returns the current ATOM per qATOM rate.
func (q *Quicksilver) RedemptionRate(ctx context.Context) (float64, error) {
	resp, err := fetch.GetJSON[quicksilverZones](ctx, q.client, q.baseURL+"/quicksilver/interchainstaking/v1/zones")
	if err != nil {
		return 0, fmt.Errorf("quicksilver zones: %w", err)
	}
	for _, z := range resp.Zones {
		if z.ChainID != hostChainID {
			continue
		}
		rate, err := yield.ParseDecFloat(z.RedemptionRate)
		if err != nil {
			return 0, fmt.Errorf("quicksilver redemption rate: %w", err)
		}
		if rate <= 0 {
			return 0, yield.ErrZeroRate
		}
		return rate, nil
	}
	return 0, fmt.Errorf("quicksilver: no zone for %s", hostChainID)
}

func (q *Quicksilver) FetchSnapshot(ctx context.Context) (*monitor.Snapshot, error) {
	rate, err := q.RedemptionRate(ctx)
	if err != nil {
		return nil, err
	}
	snap := q.snapshot()
	snap.Metrics[monitor.MetricRate] = rate
	snap.DataSources["lcd"] = q.baseURL
	applyHistory(ctx, snap, q.history, rate, q.policy)
	return snap, nil
}
