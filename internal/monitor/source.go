package monitor

import (
	"context"
	"time"
)

// Source defines the interface that all protocol data sources implement.
// To add a protocol, create a struct that implements this interface,
// register it with the Engine and add a catalog entry pointing at its Name.
type Source interface {
	// Name returns a unique identifier for this source (e.g., "stride").
	Name() string

	// Category returns the dashboard category the source feeds.
	Category() string

	// Chain returns the chain the protocol runs on.
	Chain() string

	// URL returns the protocol's web app.
	URL() string

	// FetchSnapshot fetches the current state from the data source.
	FetchSnapshot(ctx context.Context) (*Snapshot, error)
}

// Well-known metric keys.
const (
	MetricAPR  = "apr"
	MetricAPY  = "apy"
	MetricTVL  = "tvl"
	MetricRate = "rate"
)

// Snapshot represents a point-in-time reading from a data source.
// APR and APY metrics are fractions (0.12 = 12%).
type Snapshot struct {
	Source      string             `json:"source"`
	Category    string             `json:"category"`
	Chain       string             `json:"chain"`
	Metrics     map[string]float64 `json:"metrics"`
	DataSources map[string]string  `json:"data_sources,omitempty"`
	// Notes carries non-numeric context such as the history tier used.
	Notes     map[string]string `json:"notes,omitempty"`
	FetchedAt time.Time         `json:"fetched_at"`
}

func (s *Snapshot) TVL() float64  { return s.Metrics[MetricTVL] }
func (s *Snapshot) APR() float64  { return s.Metrics[MetricAPR] }
func (s *Snapshot) APY() float64  { return s.Metrics[MetricAPY] }
func (s *Snapshot) Rate() float64 { return s.Metrics[MetricRate] }

// Has reports whether the snapshot carries metric name.
func (s *Snapshot) Has(name string) bool {
	_, ok := s.Metrics[name]
	return ok
}

// Status tracks the health of one source across polls.
type Status struct {
	Source      string    `json:"source"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	LastErrorAt time.Time `json:"last_error_at,omitempty"`
	Failures    int       `json:"consecutive_failures"`
}
