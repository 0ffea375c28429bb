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

const strideLCD = "https://stride-api.polkachu.com"

// Stride reads the stATOM redemption rate from the stakeibc host zone.
type Stride struct {
	info
	baseURL string
	client  *fetch.Client
	history history.Loader
	policy  yield.Policy
}

func NewStride(client *fetch.Client, loader history.Loader) *Stride {
	return &Stride{
		info: info{
			name:     "stride",
			category: "liquid-staking",
			chain:    "Stride",
			url:      "https://app.stride.zone",
		},
		baseURL: strideLCD,
		client:  client,
		history: loader,
		policy:  yield.DefaultPolicy,
	}
}

// WithBaseURL points the source at another LCD.
func (s *Stride) WithBaseURL(u string) *Stride {
	s.baseURL = strings.TrimRight(u, "/")
	return s
}

type strideHostZone struct {
	HostZone struct {
		ChainID          string `json:"chain_id"`
		RedemptionRate   string `json:"redemption_rate"`
		TotalDelegations string `json:"total_delegations"`
		Halted           bool   `json:"halted"`
	} `json:"host_zone"`
}

// RedemptionRate returns the current ATOM per stATOM rate.
func (s *Stride) RedemptionRate(ctx context.Context) (float64, error) {
	url := s.baseURL + "/Stride-Labs/stride/stakeibc/host_zone/" + hostChainID
	resp, err := fetch.GetJSON[strideHostZone](ctx, s.client, url)
	if err != nil {
		return 0, fmt.Errorf("stride host zone: %w", err)
	}
	if resp.HostZone.Halted {
		return 0, fmt.Errorf("stride host zone %s is halted", hostChainID)
	}
	rate, err := yield.ParseDecFloat(resp.HostZone.RedemptionRate)
	if err != nil {
		return 0, fmt.Errorf("stride redemption rate: %w", err)
	}
	if rate <= 0 {
		return 0, yield.ErrZeroRate
	}
	return rate, nil
}

func (s *Stride) FetchSnapshot(ctx context.Context) (*monitor.Snapshot, error) {
	rate, err := s.RedemptionRate(ctx)
	if err != nil {
		return nil, err
	}
	snap := s.snapshot()
	snap.Metrics[monitor.MetricRate] = rate
	snap.DataSources["lcd"] = s.baseURL
	applyHistory(ctx, snap, s.history, rate, s.policy)
	return snap, nil
}
