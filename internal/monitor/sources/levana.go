package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/web3-frozen/cosmos-defi/internal/fetch"
	"github.com/web3-frozen/cosmos-defi/internal/monitor"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

const (
	levanaIndexer  = "https://indexer-mainnet.levana.finance"
	levanaMarketID = "ATOM_USD"
	// fundingInterval is how often Levana settles funding payments.
	fundingInterval = time.Hour
)

// Levana reads the ATOM_USD perps market: LP yield plus the hourly funding
// rates paid by each side.
type Levana struct {
	info
	baseURL string
	client  *fetch.Client
}

func NewLevana(client *fetch.Client) *Levana {
	return &Levana{
		info: info{
			name:     "levana",
			category: "perpetuals",
			chain:    "Osmosis",
			url:      "https://trade.levana.finance",
		},
		baseURL: levanaIndexer,
		client:  client,
	}
}

func (l *Levana) WithBaseURL(u string) *Levana {
	l.baseURL = strings.TrimRight(u, "/")
	return l
}

type levanaMarkets struct {
	Markets []struct {
		MarketID string `json:"market_id"`
		// Funding rates are per settlement interval.
		FundingLong  string `json:"funding_rate_long"`
		FundingShort string `json:"funding_rate_short"`
		LPAPR        string `json:"lp_apr"`
		XLPAPR       string `json:"xlp_apr"`
		TVLUSD       string `json:"tvl_usd"`
	} `json:"markets"`
}

func (l *Levana) FetchSnapshot(ctx context.Context) (*monitor.Snapshot, error) {
	resp, err := fetch.GetJSON[levanaMarkets](ctx, l.client, l.baseURL+"/v1/perps/markets?network=osmosis-mainnet")
	if err != nil {
		return nil, fmt.Errorf("levana markets: %w", err)
	}

	for _, mk := range resp.Markets {
		if mk.MarketID != levanaMarketID {
			continue
		}
		vals := make(map[string]float64, 5)
		for name, raw := range map[string]string{
			"funding_long": mk.FundingLong, "funding_short": mk.FundingShort,
			"lp_apr": mk.LPAPR, "xlp_apr": mk.XLPAPR, "tvl": mk.TVLUSD,
		} {
			v, err := yield.ParseDecFloat(raw)
			if err != nil {
				return nil, fmt.Errorf("levana %s: %w", name, err)
			}
			vals[name] = v
		}

		snap := l.snapshot()
		snap.Metrics[monitor.MetricAPR] = vals["lp_apr"]
		setAPY(snap, monitor.MetricAPY, vals["lp_apr"], yield.Hourly)
		snap.Metrics[monitor.MetricTVL] = vals["tvl"]
		snap.Metrics["xlp_apr"] = vals["xlp_apr"]
		setAPY(snap, "xlp_apy", vals["xlp_apr"], yield.Hourly)
		snap.Metrics["funding_long_apr"] = yield.FundingAPR(vals["funding_long"], fundingInterval)
		snap.Metrics["funding_short_apr"] = yield.FundingAPR(vals["funding_short"], fundingInterval)
		snap.Notes["market"] = mk.MarketID
		snap.DataSources["indexer"] = l.baseURL
		return snap, nil
	}
	return nil, fmt.Errorf("levana: market %s not found", levanaMarketID)
}
