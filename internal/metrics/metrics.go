package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cosmos_defi"

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Polling / source metrics ───────────────────────────────────────────

var (
	PollTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "poll",
		Name:      "total",
		Help:      "Total number of poll attempts per source.",
	}, []string{"source", "status"})

	PollDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "poll",
		Name:      "duration_seconds",
		Help:      "Duration of poll fetch per source in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"source"})

	PollLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "poll",
		Name:      "last_success_timestamp",
		Help:      "Unix timestamp of the last successful poll per source.",
	}, []string{"source"})

	SnapshotCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "snapshot",
		Name:      "count",
		Help:      "Number of sources with a cached snapshot.",
	})
)

// ── History metrics ────────────────────────────────────────────────────

var (
	HistoryFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "fetch_total",
		Help:      "Snapshot history loads by protocol and result (hit, miss, error).",
	}, []string{"protocol", "result"})

	HistoryPointsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "points_written_total",
		Help:      "Snapshot points appended by the snapshot writer per sink.",
	}, []string{"protocol", "sink"})
)

// ── Business metrics ───────────────────────────────────────────────────

var (
	MetricValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "business",
		Name:      "metric_value",
		Help:      "Current value of a tracked protocol metric.",
	}, []string{"source", "metric_name"})

	BlocksPerYear = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "business",
		Name:      "observed_blocks_per_year",
		Help:      "Cosmos Hub blocks per year extrapolated from recent block times.",
	})
)
