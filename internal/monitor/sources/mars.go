package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/web3-frozen/cosmos-defi/internal/fetch"
	"github.com/web3-frozen/cosmos-defi/internal/monitor"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

const marsAPI = "https://api.marsprotocol.io/v2/neutron"

// Mars reads the ATOM Red Bank market. Red Bank interest accrues every
// block, so APY uses continuous compounding.
type Mars struct {
	info
	baseURL string
	client  *fetch.Client
}

func NewMars(client *fetch.Client) *Mars {
	return &Mars{
		info: info{
			name:     "mars",
			category: "lending",
			chain:    "Neutron",
			url:      "https://app.marsprotocol.io/neutron/lend",
		},
		baseURL: marsAPI,
		client:  client,
	}
}

func (m *Mars) WithBaseURL(u string) *Mars {
	m.baseURL = strings.TrimRight(u, "/")
	return m
}

type marsMarkets struct {
	Markets []struct {
		Denom           string `json:"denom"`
		Symbol          string `json:"symbol"`
		LiquidityRate   string `json:"liquidity_rate"`
		BorrowRate      string `json:"borrow_rate"`
		UtilizationRate string `json:"utilization_rate"`
		DepositsUSD     string `json:"deposits_usd"`
	} `json:"markets"`
}

func (m *Mars) FetchSnapshot(ctx context.Context) (*monitor.Snapshot, error) {
	resp, err := fetch.GetJSON[marsMarkets](ctx, m.client, m.baseURL+"/redbank/markets")
	if err != nil {
		return nil, fmt.Errorf("mars markets: %w", err)
	}

	for _, mk := range resp.Markets {
		if !strings.EqualFold(mk.Symbol, "ATOM") {
			continue
		}
		supply, err := yield.ParseDecFloat(mk.LiquidityRate)
		if err != nil {
			return nil, fmt.Errorf("mars liquidity rate: %w", err)
		}
		borrow, err := yield.ParseDecFloat(mk.BorrowRate)
		if err != nil {
			return nil, fmt.Errorf("mars borrow rate: %w", err)
		}
		util, err := yield.ParseDecFloat(mk.UtilizationRate)
		if err != nil {
			return nil, fmt.Errorf("mars utilization: %w", err)
		}
		deposits, err := yield.ParseDecFloat(mk.DepositsUSD)
		if err != nil {
			return nil, fmt.Errorf("mars deposits: %w", err)
		}

		snap := m.snapshot()
		snap.Metrics[monitor.MetricAPR] = supply
		setAPY(snap, monitor.MetricAPY, supply, yield.Continuous)
		snap.Metrics[monitor.MetricTVL] = deposits
		snap.Metrics["borrow_apr"] = borrow
		setAPY(snap, "borrow_apy", borrow, yield.Continuous)
		snap.Metrics["utilization"] = util
		snap.Notes["denom"] = mk.Denom
		snap.DataSources["api"] = m.baseURL
		return snap, nil
	}
	return nil, fmt.Errorf("mars: no ATOM market")
}
