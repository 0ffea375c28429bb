package yield

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func pt(id string, offset time.Duration, rate float64) Point {
	return Point{ID: id, Timestamp: t0.Add(offset), Rate: rate}
}

func TestPointUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantTime time.Time
		wantRate float64
		wantID   string
	}{
		{"rfc3339", `{"id":"a","timestamp":"2025-01-01T00:00:00Z","rate":1.05}`, t0, 1.05, "a"},
		{"unix seconds", `{"id":"b","timestamp":1735689600,"rate":"1.050000000000000000"}`, t0, 1.05, "b"},
		{"unix millis", `{"id":"c","timestamp":1735689600000,"rate":1.05}`, t0, 1.05, "c"},
		{"numeric id", `{"id":42,"timestamp":1735689600,"rate":1.05}`, t0, 1.05, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Point
			require.NoError(t, json.Unmarshal([]byte(tt.input), &p))
			assert.True(t, tt.wantTime.Equal(p.Timestamp), "timestamp = %v", p.Timestamp)
			assert.InDelta(t, tt.wantRate, p.Rate, 1e-12)
			assert.Equal(t, tt.wantID, p.ID)
		})
	}
}

func TestPointUnmarshalErrors(t *testing.T) {
	for _, input := range []string{
		`{"id":"a","rate":1.0}`,
		`{"id":"a","timestamp":"yesterday","rate":1.0}`,
		`{"id":"a","timestamp":1735689600,"rate":"abc"}`,
		`{"id":"a","timestamp":"Inf","rate":1.0}`,
		`{"id":"a","timestamp":"NaN","rate":1.0}`,
		`{"id":"a","timestamp":1e30,"rate":1.0}`,
		`{"id":"a","timestamp":-86400,"rate":1.0}`,
		`{"id":"a","timestamp":"0001-01-01T00:00:00Z","rate":1.0}`,
	} {
		var p Point
		assert.Error(t, json.Unmarshal([]byte(input), &p), input)
	}
}

func TestFromHistoryWeekWindow(t *testing.T) {
	points := []Point{
		pt("0", 0, 1.00),
		pt("1", 1*day, 1.001),
		pt("7", 7*day, 1.007),
		pt("8", 8*day, 1.008),
	}
	res, err := FromHistory(points, DefaultPolicy)
	require.NoError(t, err)
	assert.Equal(t, TierWindow, res.Tier)
	assert.Equal(t, 7*day, res.Window)
	assert.Equal(t, "1", res.From.ID)
	assert.Equal(t, "8", res.To.ID)

	wantAPR := (1.008/1.001 - 1) * 365 / 7
	assert.InDelta(t, wantAPR, res.APR, 1e-12)
	wantAPY, err := APRToAPY(wantAPR, Daily)
	require.NoError(t, err)
	assert.InDelta(t, wantAPY, res.APY, 1e-12)
}

func TestFromHistoryFallsBackToShorterWindow(t *testing.T) {
	points := []Point{
		pt("0", 0, 1.000),
		pt("1", 2*day, 1.002),
		pt("2", 3*day, 1.003),
	}
	res, err := FromHistory(points, DefaultPolicy)
	require.NoError(t, err)
	assert.Equal(t, TierWindow, res.Tier)
	assert.Equal(t, day, res.Window)
	assert.Equal(t, "1", res.From.ID)
}

func TestFromHistoryOldestFallback(t *testing.T) {
	points := []Point{
		pt("0", 0, 1.000),
		pt("1", 6*time.Hour, 1.0001),
	}
	res, err := FromHistory(points, DefaultPolicy)
	require.NoError(t, err)
	assert.Equal(t, TierOldest, res.Tier)
	assert.Equal(t, time.Duration(0), res.Window)
	assert.Equal(t, 6*time.Hour, res.Span())
}

func TestFromHistoryInsufficient(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
	}{
		{"empty", nil},
		{"single point", []Point{pt("0", 0, 1)}},
		{"span below minimum", []Point{pt("0", 0, 1), pt("1", 10*time.Minute, 1.0001)}},
		{"zero rates dropped", []Point{pt("0", 0, 0), pt("1", 2*day, 1.01)}},
		{"same timestamp collapses", []Point{pt("0", 0, 1), pt("1", 0, 1.01)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromHistory(tt.points, DefaultPolicy)
			assert.ErrorIs(t, err, ErrInsufficientHistory)
		})
	}
}

func TestFromHistoryUnsorted(t *testing.T) {
	points := []Point{
		pt("8", 8*day, 1.008),
		pt("0", 0, 1.000),
		pt("1", 1*day, 1.001),
	}
	res, err := FromHistory(points, DefaultPolicy)
	require.NoError(t, err)
	assert.Equal(t, "1", res.From.ID)
	assert.Equal(t, "8", res.To.ID)
	// input must not be reordered
	assert.Equal(t, "8", points[0].ID)
}

func TestFromHistoryWithLive(t *testing.T) {
	live := pt("live", 2*day, 1.002)

	// a single snapshot paired with the live rate is always the live tier,
	// keeping the window it satisfied
	res, err := FromHistoryWithLive([]Point{pt("0", 0, 1.0)}, live, DefaultPolicy)
	require.NoError(t, err)
	assert.Equal(t, TierLive, res.Tier)
	assert.Equal(t, day, res.Window)
	assert.Equal(t, "live", res.To.ID)

	short := pt("live", 3*time.Hour, 1.0001)
	res, err = FromHistoryWithLive([]Point{pt("0", 0, 1.0)}, short, DefaultPolicy)
	require.NoError(t, err)
	assert.Equal(t, TierLive, res.Tier)

	_, err = FromHistoryWithLive(nil, live, DefaultPolicy)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestFromHistoryWithLiveAndHistory(t *testing.T) {
	points := []Point{pt("0", 0, 1.0), pt("1", 8*day, 1.008)}
	res, err := FromHistoryWithLive(points, pt("live", 9*day, 1.009), DefaultPolicy)
	require.NoError(t, err)
	assert.Equal(t, TierWindow, res.Tier)
	assert.Equal(t, "live", res.To.ID)
}

func TestFromHistoryOverflow(t *testing.T) {
	// 100x in an hour cannot be compounded daily
	points := []Point{pt("0", 0, 1), pt("1", time.Hour, 100)}
	_, err := FromHistory(points, DefaultPolicy)
	assert.ErrorIs(t, err, ErrOverflow)

	none := DefaultPolicy
	none.Compounding = None
	res, err := FromHistory(points, none)
	require.NoError(t, err)
	assert.InDelta(t, 99*365*24, res.APR, 1e-6)
}

func TestFromHistoryWithStaleLive(t *testing.T) {
	points := []Point{pt("0", 0, 1.0), pt("1", 2*day, 1.002)}
	stale := pt("live", day, 5.0)

	res, err := FromHistoryWithLive(points, stale, DefaultPolicy)
	require.NoError(t, err)
	assert.Equal(t, "1", res.To.ID)
}

func TestLatest(t *testing.T) {
	_, ok := Latest(nil)
	assert.False(t, ok)

	p, ok := Latest([]Point{pt("b", day, 1.1), pt("a", 0, 1.0), pt("z", 2*day, 0)})
	require.True(t, ok)
	assert.Equal(t, "b", p.ID)
}
