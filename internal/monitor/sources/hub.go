package sources

import (
	"context"
	"fmt"

	"github.com/web3-frozen/cosmos-defi/internal/chain"
	"github.com/web3-frozen/cosmos-defi/internal/monitor"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

// BlockRate reports the observed chain blocks per year (0 when unknown).
type BlockRate interface {
	BlocksPerYear() float64
}

// Hub computes the native ATOM staking APR from chain parameters.
type Hub struct {
	info
	lcd    *chain.LCD
	blocks BlockRate
}

func NewHub(lcd *chain.LCD, blocks BlockRate) *Hub {
	return &Hub{
		info: info{
			name:     "hub",
			category: "staking",
			chain:    "Cosmos Hub",
			url:      "https://wallet.keplr.app/chains/cosmos-hub",
		},
		lcd:    lcd,
		blocks: blocks,
	}
}

func (h *Hub) FetchSnapshot(ctx context.Context) (*monitor.Snapshot, error) {
	inflation, err := h.lcd.Inflation(ctx)
	if err != nil {
		return nil, err
	}
	pool, err := h.lcd.StakingPool(ctx)
	if err != nil {
		return nil, err
	}
	tax, err := h.lcd.CommunityTax(ctx)
	if err != nil {
		return nil, err
	}
	paramsBPY, err := h.lcd.BlocksPerYear(ctx)
	if err != nil {
		return nil, err
	}
	supply, err := h.lcd.Supply(ctx, chain.StakeDenom, chain.StakeExponent)
	if err != nil {
		return nil, err
	}

	params := yield.StakingParams{
		Inflation:           inflation,
		BondedTokens:        pool.Bonded,
		TotalSupply:         supply,
		CommunityTax:        tax,
		ParamsBlocksPerYear: paramsBPY,
	}
	if h.blocks != nil {
		params.ActualBlocksPerYear = h.blocks.BlocksPerYear()
	}

	apr, err := yield.StakingAPR(params)
	if err != nil {
		return nil, fmt.Errorf("staking apr: %w", err)
	}

	snap := h.snapshot()
	snap.Metrics[monitor.MetricAPR] = apr
	setAPY(snap, monitor.MetricAPY, apr, yield.Daily)
	snap.Metrics["inflation"] = inflation
	snap.Metrics["bonded_ratio"] = params.BondedRatio()
	snap.Metrics["bonded_atom"] = pool.Bonded
	snap.Metrics["community_tax"] = tax
	snap.Metrics["params_blocks_per_year"] = paramsBPY
	if params.ActualBlocksPerYear > 0 {
		snap.Metrics["observed_blocks_per_year"] = params.ActualBlocksPerYear
	} else {
		snap.Notes["blocks"] = "observed block rate unavailable; using mint params"
	}
	snap.DataSources["lcd"] = h.lcd.BaseURL()
	return snap, nil
}
