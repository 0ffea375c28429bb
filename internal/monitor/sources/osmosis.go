package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/web3-frozen/cosmos-defi/internal/fetch"
	"github.com/web3-frozen/cosmos-defi/internal/monitor"
)

const osmosisAPI = "https://public-osmosis-api.numia.xyz"

// Osmosis aggregates the ATOM pools on Osmosis from the pools REST API.
type Osmosis struct {
	info
	baseURL string
	client  *fetch.Client
	// minTVL drops dust pools whose fee APR is noise.
	minTVL float64
}

func NewOsmosis(client *fetch.Client) *Osmosis {
	return &Osmosis{
		info: info{
			name:     "osmosis",
			category: "liquidity",
			chain:    "Osmosis",
			url:      "https://app.osmosis.zone/pools",
		},
		baseURL: osmosisAPI,
		client:  client,
		minTVL:  10_000,
	}
}

func (o *Osmosis) WithBaseURL(u string) *Osmosis {
	o.baseURL = strings.TrimRight(u, "/")
	return o
}

type osmosisPool struct {
	PoolID       string   `json:"pool_id"`
	Symbols      []string `json:"token_symbols"`
	LiquidityUSD float64  `json:"liquidity_usd"`
	Fees24hUSD   float64  `json:"fees_24h_usd"`
	// IncentiveAPR is a percentage as returned by the API.
	IncentiveAPR float64 `json:"incentive_apr"`
}

func (o *Osmosis) FetchSnapshot(ctx context.Context) (*monitor.Snapshot, error) {
	list, err := fetch.GetJSON[[]osmosisPool](ctx, o.client, o.baseURL+"/pools?symbol=ATOM")
	if err != nil {
		return nil, fmt.Errorf("osmosis pools: %w", err)
	}

	var pools []pool
	for _, p := range list {
		if !hasSymbol(p.Symbols, "ATOM") || p.LiquidityUSD < o.minTVL {
			continue
		}
		pools = append(pools, pool{
			ID:        p.PoolID,
			TVL:       p.LiquidityUSD,
			Fees24h:   p.Fees24hUSD,
			RewardAPR: p.IncentiveAPR / 100,
		})
	}

	snap := o.snapshot()
	if err := applyPools(snap, pools); err != nil {
		return nil, err
	}
	snap.DataSources["api"] = o.baseURL
	return snap, nil
}
