package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/web3-frozen/cosmos-defi/internal/fetch"
	"github.com/web3-frozen/cosmos-defi/internal/monitor"
)

const (
	astroportGraphQL = "https://graphql.astroport.fi/graphql"
	neutronChainID   = "neutron-1"
)

const astroportPoolsQuery = `query Pools($chains: [String!]!) {
  pools(chains: $chains) {
    poolAddress
    tokenSymbols
    totalLiquidityUSD
    dayFeesUSD
    rewardApr
  }
}`

// Astroport aggregates the ATOM pools on Astroport (Neutron).
type Astroport struct {
	info
	baseURL string
	client  *fetch.Client
}

func NewAstroport(client *fetch.Client) *Astroport {
	return &Astroport{
		info: info{
			name:     "astroport",
			category: "liquidity",
			chain:    "Neutron",
			url:      "https://app.astroport.fi/pools",
		},
		baseURL: astroportGraphQL,
		client:  client,
	}
}

func (a *Astroport) WithBaseURL(u string) *Astroport {
	a.baseURL = strings.TrimRight(u, "/")
	return a
}

type astroportPools struct {
	Pools []struct {
		PoolAddress  string   `json:"poolAddress"`
		TokenSymbols []string `json:"tokenSymbols"`
		LiquidityUSD float64  `json:"totalLiquidityUSD"`
		DayFeesUSD   float64  `json:"dayFeesUSD"`
		// RewardAPR is a fraction (0.05 = 5%).
		RewardAPR float64 `json:"rewardApr"`
	} `json:"pools"`
}

func (a *Astroport) FetchSnapshot(ctx context.Context) (*monitor.Snapshot, error) {
	data, err := fetch.PostGraphQL[astroportPools](ctx, a.client, a.baseURL, astroportPoolsQuery,
		map[string]any{"chains": []string{neutronChainID}})
	if err != nil {
		return nil, fmt.Errorf("astroport pools: %w", err)
	}

	var pools []pool
	for _, p := range data.Pools {
		if !hasSymbol(p.TokenSymbols, "ATOM") {
			continue
		}
		pools = append(pools, pool{
			ID:        p.PoolAddress,
			TVL:       p.LiquidityUSD,
			Fees24h:   p.DayFeesUSD,
			RewardAPR: p.RewardAPR,
		})
	}

	snap := a.snapshot()
	if err := applyPools(snap, pools); err != nil {
		return nil, err
	}
	snap.DataSources["graphql"] = a.baseURL
	return snap, nil
}
