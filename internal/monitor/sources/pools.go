package sources

import (
	"fmt"

	"github.com/web3-frozen/cosmos-defi/internal/monitor"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

// pool is an AMM pool reduced to what the liquidity cards show.
type pool struct {
	ID        string
	TVL       float64
	Fees24h   float64
	RewardAPR float64
}

func (p pool) feeAPR() float64 { return yield.FeeAPR(p.Fees24h, p.TVL) }
func (p pool) apr() float64    { return p.feeAPR() + p.RewardAPR }

// applyPools fills snap with TVL-weighted APRs over pools and the largest
// pool's own figures.
func applyPools(snap *monitor.Snapshot, pools []pool) error {
	var tvl, feeW, rewardW float64
	var top pool
	for _, p := range pools {
		if p.TVL <= 0 {
			continue
		}
		tvl += p.TVL
		feeW += p.feeAPR() * p.TVL
		rewardW += p.RewardAPR * p.TVL
		if p.TVL > top.TVL {
			top = p
		}
	}
	if tvl <= 0 {
		return fmt.Errorf("%s: no ATOM pools with liquidity", snap.Source)
	}

	feeAPR := feeW / tvl
	rewardAPR := rewardW / tvl
	apr := feeAPR + rewardAPR

	snap.Metrics[monitor.MetricTVL] = tvl
	snap.Metrics[monitor.MetricAPR] = apr
	setAPY(snap, monitor.MetricAPY, apr, yield.Daily)
	snap.Metrics["fee_apr"] = feeAPR
	snap.Metrics["reward_apr"] = rewardAPR
	snap.Metrics["pool_count"] = float64(len(pools))
	snap.Metrics["top_pool_apr"] = top.apr()
	snap.Metrics["top_pool_tvl"] = top.TVL
	snap.Notes["top_pool"] = top.ID
	return nil
}
