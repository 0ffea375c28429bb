// Package yield converts raw exchange rates, redemption rates and snapshot
// histories into annualized APR and APY figures.
package yield

import (
	"errors"
	"math"
	"time"
)

// Year is the annualisation period used by every conversion in this package.
const Year = 365 * 24 * time.Hour

var (
	// ErrZeroRate is returned when a rate used as a divisor is zero or negative.
	ErrZeroRate = errors.New("yield: non-positive rate")
	// ErrNoInterval is returned when two observations are not separated in time.
	ErrNoInterval = errors.New("yield: non-positive interval")
	// ErrInsufficientHistory is returned when no window or fallback can be satisfied.
	ErrInsufficientHistory = errors.New("yield: insufficient history")
	// ErrOverflow is returned when an annualized figure is not representable.
	ErrOverflow = errors.New("yield: annualized value overflows")
	// ErrTotalLoss is returned when an APY of -100% or worse has no APR.
	ErrTotalLoss = errors.New("yield: apy at or below -100%")
)

// Compounding is the number of compounding periods per year.
type Compounding float64

const (
	None       Compounding = 0
	Daily      Compounding = 365
	Hourly     Compounding = 8760
	Continuous Compounding = Compounding(math.MaxFloat64)
)

func (c Compounding) String() string {
	switch c {
	case None:
		return "none"
	case Daily:
		return "daily"
	case Hourly:
		return "hourly"
	case Continuous:
		return "continuous"
	}
	return "custom"
}

// AnnualizedAPR returns the simple annualized growth between two rates.
func AnnualizedAPR(startRate, endRate float64, elapsed time.Duration) (float64, error) {
	if startRate <= 0 || endRate <= 0 {
		return 0, ErrZeroRate
	}
	if elapsed <= 0 {
		return 0, ErrNoInterval
	}
	return (endRate/startRate - 1) * (float64(Year) / float64(elapsed)), nil
}

// CompoundedAPY returns the growth between two rates compounded to one year.
func CompoundedAPY(startRate, endRate float64, elapsed time.Duration) (float64, error) {
	if startRate <= 0 || endRate <= 0 {
		return 0, ErrZeroRate
	}
	if elapsed <= 0 {
		return 0, ErrNoInterval
	}
	years := float64(elapsed) / float64(Year)
	return checked(math.Pow(endRate/startRate, 1/years) - 1)
}

// APRToAPY compounds a simple APR n times per year. ErrOverflow is
// returned when the compounded figure exceeds float64.
func APRToAPY(apr float64, n Compounding) (float64, error) {
	if math.IsNaN(apr) || math.IsInf(apr, 0) {
		return 0, ErrOverflow
	}
	switch {
	case n <= None:
		return apr, nil
	case n == Continuous:
		return checked(math.Expm1(apr))
	}
	periods := float64(n)
	if apr/periods <= -1 {
		return -1, nil
	}
	return checked(math.Pow(1+apr/periods, periods) - 1)
}

// APYToAPR is the inverse of APRToAPY. An APY of -100% or below has no
// finite APR under compounding and returns ErrTotalLoss.
func APYToAPR(apy float64, n Compounding) (float64, error) {
	if n <= None {
		return apy, nil
	}
	if apy <= -1 {
		return 0, ErrTotalLoss
	}
	if n == Continuous {
		return math.Log1p(apy), nil
	}
	periods := float64(n)
	return checked((math.Pow(1+apy, 1/periods) - 1) * periods)
}

// InvertRate converts a c-value (staked per derivative) into an exchange
// rate (underlying per derivative).
func InvertRate(cValue float64) (float64, error) {
	if cValue <= 0 {
		return 0, ErrZeroRate
	}
	return 1 / cValue, nil
}

// NetOfCommission deducts a validator commission (0..1) from a gross APR.
func NetOfCommission(apr, commission float64) float64 {
	if commission <= 0 {
		return apr
	}
	if commission >= 1 {
		return 0
	}
	return apr * (1 - commission)
}

// FeeAPR annualizes one day of trading fees against pool liquidity.
func FeeAPR(fees24h, tvl float64) float64 {
	if tvl <= 0 || fees24h <= 0 {
		return 0
	}
	return fees24h * 365 / tvl
}

// FundingAPR annualizes a funding or borrow rate charged once per interval.
func FundingAPR(ratePerInterval float64, interval time.Duration) float64 {
	if interval <= 0 {
		return 0
	}
	return ratePerInterval * float64(Year) / float64(interval)
}

func checked(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrOverflow
	}
	return v, nil
}
