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

const persistenceLCD = "https://rest.core.persistence.one"

// PStake reads the stkATOM c-value from liquidstakeibc. The c-value is
// stkATOM per ATOM, so the redemption rate is its inverse.
type PStake struct {
	info
	baseURL string
	client  *fetch.Client
	history history.Loader
	policy  yield.Policy
}

func NewPStake(client *fetch.Client, loader history.Loader) *PStake {
	return &PStake{
		info: info{
			name:     "pstake",
			category: "liquid-staking",
			chain:    "Persistence",
			url:      "https://app.pstake.finance/cosmos/stake",
		},
		baseURL: persistenceLCD,
		client:  client,
		history: loader,
		policy:  yield.DefaultPolicy,
	}
}

func (p *PStake) WithBaseURL(u string) *PStake {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

type pstakeHostChain struct {
	HostChain struct {
		ChainID string `json:"chain_id"`
		CValue  string `json:"c_value"`
		Active  bool   `json:"active"`
	} `json:"host_chain"`
}

// RedemptionRate returns ATOM per stkATOM.
func (p *PStake) RedemptionRate(ctx context.Context) (float64, error) {
	url := p.baseURL + "/pstake/liquidstakeibc/v1beta1/host_chain/" + hostChainID
	resp, err := fetch.GetJSON[pstakeHostChain](ctx, p.client, url)
	if err != nil {
		return 0, fmt.Errorf("pstake host chain: %w", err)
	}
	c, err := yield.ParseDecFloat(resp.HostChain.CValue)
	if err != nil {
		return 0, fmt.Errorf("pstake c_value: %w", err)
	}
	rate, err := yield.InvertRate(c)
	if err != nil {
		return 0, fmt.Errorf("pstake c_value: %w", err)
	}
	return rate, nil
}

func (p *PStake) FetchSnapshot(ctx context.Context) (*monitor.Snapshot, error) {
	rate, err := p.RedemptionRate(ctx)
	if err != nil {
		return nil, err
	}
	snap := p.snapshot()
	snap.Metrics[monitor.MetricRate] = rate
	snap.DataSources["lcd"] = p.baseURL
	applyHistory(ctx, snap, p.history, rate, p.policy)
	return snap, nil
}
