package yield

// StakingParams holds the chain parameters needed for native staking APR.
type StakingParams struct {
	Inflation           float64 // annual, 0..1
	BondedTokens        float64
	TotalSupply         float64
	CommunityTax        float64 // 0..1
	ParamsBlocksPerYear float64 // mint module's assumption
	ActualBlocksPerYear float64 // observed; 0 when unknown
}

// BondedRatio returns bonded tokens over total supply.
func (p StakingParams) BondedRatio() float64 {
	if p.TotalSupply <= 0 {
		return 0
	}
	return p.BondedTokens / p.TotalSupply
}

// StakingAPR returns the nominal staking APR before validator commission.
// Minted rewards are paid per block, so when the observed block rate
// differs from the mint module's assumption the APR scales with it.
func StakingAPR(p StakingParams) (float64, error) {
	ratio := p.BondedRatio()
	if ratio <= 0 {
		return 0, ErrZeroRate
	}
	apr := p.Inflation * (1 - p.CommunityTax) / ratio
	if p.ParamsBlocksPerYear > 0 && p.ActualBlocksPerYear > 0 {
		apr *= p.ActualBlocksPerYear / p.ParamsBlocksPerYear
	}
	return checked(apr)
}
