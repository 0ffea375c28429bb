package yield

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

func TestAnnualizedAPR(t *testing.T) {
	tests := []struct {
		name    string
		start   float64
		end     float64
		elapsed time.Duration
		want    float64
		wantErr error
	}{
		{"one percent over a year", 1.0, 1.01, Year, 0.01, nil},
		{"one percent over a week", 1.0, 1.01, 7 * day, 0.01 * 365 / 7, nil},
		{"flat", 1.2, 1.2, day, 0, nil},
		{"negative growth", 1.0, 0.99, Year, -0.01, nil},
		{"zero start", 0, 1.01, day, 0, ErrZeroRate},
		{"negative end", 1, -1, day, 0, ErrZeroRate},
		{"zero interval", 1, 1.01, 0, 0, ErrNoInterval},
		{"negative interval", 1, 1.01, -day, 0, ErrNoInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AnnualizedAPR(tt.start, tt.end, tt.elapsed)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestCompoundedAPY(t *testing.T) {
	// 1% over half a year compounds to 1.01^2 - 1 over a full year.
	got, err := CompoundedAPY(1.0, 1.01, Year/2)
	require.NoError(t, err)
	assert.InDelta(t, 0.0201, got, 1e-9)

	_, err = CompoundedAPY(0, 1, Year)
	assert.True(t, errors.Is(err, ErrZeroRate))
}

func TestCompoundedAPYOverflow(t *testing.T) {
	tests := []struct {
		name    string
		end     float64
		elapsed time.Duration
	}{
		{"one percent in a second", 1.01, time.Second},
		{"doubling in a minute", 2, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompoundedAPY(1, tt.end, tt.elapsed)
			assert.ErrorIs(t, err, ErrOverflow)
		})
	}
}

func TestAPRToAPY(t *testing.T) {
	tests := []struct {
		name string
		apr  float64
		n    Compounding
		want float64
	}{
		{"no compounding", 0.10, None, 0.10},
		{"daily", 0.10, Daily, math.Pow(1+0.10/365, 365) - 1},
		{"hourly", 0.10, Hourly, math.Pow(1+0.10/8760, 8760) - 1},
		{"continuous", 0.10, Continuous, math.Exp(0.10) - 1},
		{"annual", 0.10, 1, 0.10},
		{"zero", 0, Daily, 0},
		{"wipeout", -400, Daily, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := APRToAPY(tt.apr, tt.n)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestAPRToAPYOverflow(t *testing.T) {
	tests := []struct {
		name string
		apr  float64
		n    Compounding
	}{
		{"continuous", 1000, Continuous},
		{"daily", 1e6, Daily},
		{"hourly", 1e7, Hourly},
		{"infinite input", math.Inf(1), None},
		{"nan input", math.NaN(), Daily},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := APRToAPY(tt.apr, tt.n)
			assert.ErrorIs(t, err, ErrOverflow)
		})
	}
}

func TestAPYToAPRRoundTrip(t *testing.T) {
	for _, n := range []Compounding{None, Daily, Hourly, Continuous, 12} {
		apy, err := APRToAPY(0.187, n)
		require.NoError(t, err)
		apr, err := APYToAPR(apy, n)
		require.NoError(t, err)
		assert.InDelta(t, 0.187, apr, 1e-9, "compounding %s", n)
	}
}

func TestAPYToAPRTotalLoss(t *testing.T) {
	for _, n := range []Compounding{Daily, Hourly, Continuous} {
		_, err := APYToAPR(-1, n)
		assert.ErrorIs(t, err, ErrTotalLoss, "compounding %s", n)
	}
	apr, err := APYToAPR(-1, None)
	require.NoError(t, err)
	assert.Equal(t, -1.0, apr)
}

func TestInvertRate(t *testing.T) {
	got, err := InvertRate(0.8)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, got, 1e-12)

	_, err = InvertRate(0)
	assert.ErrorIs(t, err, ErrZeroRate)
}

func TestNetOfCommission(t *testing.T) {
	assert.InDelta(t, 0.18, NetOfCommission(0.20, 0.10), 1e-12)
	assert.Equal(t, 0.20, NetOfCommission(0.20, 0))
	assert.Equal(t, 0.0, NetOfCommission(0.20, 1))
}

func TestFeeAPR(t *testing.T) {
	assert.InDelta(t, 0.365, FeeAPR(1000, 1_000_000), 1e-12)
	assert.Equal(t, 0.0, FeeAPR(1000, 0))
	assert.Equal(t, 0.0, FeeAPR(-5, 100))
}

func TestFundingAPR(t *testing.T) {
	assert.InDelta(t, 0.0001*8760, FundingAPR(0.0001, time.Hour), 1e-12)
	assert.InDelta(t, 0.0001*3*365, FundingAPR(0.0001, 8*time.Hour), 1e-12)
	assert.Equal(t, 0.0, FundingAPR(0.0001, 0))
}

func TestCompoundingString(t *testing.T) {
	assert.Equal(t, "daily", Daily.String())
	assert.Equal(t, "continuous", Continuous.String())
	assert.Equal(t, "custom", Compounding(12).String())
}
