package monitor

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestFormatNum(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0.00123, "0.00"},
		{0.5, "0.50"},
		{999.99, "999.99"},
		{1000, "1,000.00"},
		{1234.56, "1,234.56"},
		{123456.78, "123,456.78"},
		{999999.99, "999,999.99"},
		{1000000, "1.00M"},
		{1500000, "1.50M"},
		{123456789, "123.46M"},
		{2_500_000_000, "2.50B"},
	}
	for _, tt := range tests {
		got := formatNum(tt.input)
		if got != tt.want {
			t.Errorf("formatNum(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAddCommas(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0", "0"},
		{"100", "100"},
		{"1000", "1,000"},
		{"1234567", "1,234,567"},
		{"1000.50", "1,000.50"},
		{"12345678.99", "12,345,678.99"},
	}
	for _, tt := range tests {
		got := addCommas(tt.input)
		if got != tt.want {
			t.Errorf("addCommas(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := FormatUSD(0); got != "-" {
		t.Errorf("FormatUSD(0) = %q, want -", got)
	}
	if got := FormatUSD(12_500_000); got != "$12.50M" {
		t.Errorf("FormatUSD = %q, want $12.50M", got)
	}
	if got := FormatPercent(0.1834); got != "18.34%" {
		t.Errorf("FormatPercent = %q, want 18.34%%", got)
	}
	if got := FormatRate(1.2345678); got != "1.234568" {
		t.Errorf("FormatRate = %q, want 1.234568", got)
	}
	if got := FormatRate(0); got != "-" {
		t.Errorf("FormatRate(0) = %q, want -", got)
	}
}

func TestFetchWithTimeout(t *testing.T) {
	fast := &mockSource{name: "fast", category: "staking"}
	snap, err := fetchWithTimeout(context.Background(), fast.FetchSnapshot, time.Second)
	if err != nil {
		t.Fatalf("fetchWithTimeout(fast) error: %v", err)
	}
	if snap.Source != "fast" {
		t.Errorf("Source = %q, want %q", snap.Source, "fast")
	}

	slow := func(ctx context.Context) (*Snapshot, error) {
		time.Sleep(200 * time.Millisecond)
		return &Snapshot{}, nil
	}
	if _, err := fetchWithTimeout(context.Background(), slow, 20*time.Millisecond); err == nil {
		t.Error("expected timeout error for slow source")
	}

	empty := func(ctx context.Context) (*Snapshot, error) { return nil, nil }
	if _, err := fetchWithTimeout(context.Background(), empty, time.Second); err == nil {
		t.Error("expected error for nil snapshot")
	}
}

func TestSnapshotGetters(t *testing.T) {
	snap := &Snapshot{
		Metrics: map[string]float64{
			MetricTVL:  1000000,
			MetricRate: 1.25,
			MetricAPR:  0.125,
			MetricAPY:  0.133,
		},
	}

	if snap.TVL() != 1000000 {
		t.Errorf("TVL() = %v, want 1000000", snap.TVL())
	}
	if snap.Rate() != 1.25 {
		t.Errorf("Rate() = %v, want 1.25", snap.Rate())
	}
	if snap.APR() != 0.125 {
		t.Errorf("APR() = %v, want 0.125", snap.APR())
	}
	if snap.APY() != 0.133 {
		t.Errorf("APY() = %v, want 0.133", snap.APY())
	}
	if snap.Has("fees_24h") {
		t.Error("Has(fees_24h) = true, want false")
	}
}

func TestNewEngineDefaultInterval(t *testing.T) {
	e := NewEngine(slog.Default(), 0)
	if e.PollInterval() != defaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", e.PollInterval(), defaultPollInterval)
	}
}

func TestPollFailureKeepsPreviousSnapshot(t *testing.T) {
	e := NewEngine(slog.Default(), time.Minute)
	src := &mockSource{name: "flaky", category: "lending"}
	e.Register(src)

	e.PollOnce(context.Background())
	first := e.GetSnapshot("flaky")
	if first == nil {
		t.Fatal("expected snapshot after first poll")
	}

	src.err = errors.New("upstream 502")
	e.PollOnce(context.Background())

	if got := e.GetSnapshot("flaky"); got != first {
		t.Error("failed poll replaced the cached snapshot")
	}
	st, ok := e.Status("flaky")
	if !ok {
		t.Fatal("Status(flaky) not found")
	}
	if st.Failures != 1 || st.LastError != "upstream 502" {
		t.Errorf("status = %+v, want 1 failure with error", st)
	}

	src.err = nil
	e.PollOnce(context.Background())
	st, _ = e.Status("flaky")
	if st.Failures != 0 || st.LastError != "" {
		t.Errorf("status after recovery = %+v", st)
	}
}
