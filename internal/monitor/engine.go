package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/web3-frozen/cosmos-defi/internal/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPollInterval = 5 * time.Minute
	fetchTimeout        = 45 * time.Second
	maxConcurrentPolls  = 4
)

// Engine polls registered data sources and caches their latest snapshots.
// A failed fetch keeps the previous snapshot; the source is simply polled
// again on the next tick.
type Engine struct {
	logger   *slog.Logger
	interval time.Duration
	sources  map[string]Source
	lastSnap map[string]*Snapshot
	status   map[string]*Status
	mu       sync.RWMutex
}

func NewEngine(logger *slog.Logger, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Engine{
		logger:   logger,
		interval: interval,
		sources:  make(map[string]Source),
		lastSnap: make(map[string]*Snapshot),
		status:   make(map[string]*Status),
	}
}

// Register adds a data source to the engine.
func (e *Engine) Register(src Source) {
	e.mu.Lock()
	e.sources[src.Name()] = src
	e.status[src.Name()] = &Status{Source: src.Name()}
	e.mu.Unlock()
	e.logger.Info("registered source", "source", src.Name(), "category", src.Category())
}

// Source returns a registered source by name.
func (e *Engine) Source(name string) (Source, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	src, ok := e.sources[name]
	return src, ok
}

// SourceNames returns names of all registered sources, sorted.
func (e *Engine) SourceNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.sources))
	for n := range e.sources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Categories returns the distinct categories of registered sources.
func (e *Engine) Categories() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, src := range e.sources {
		if c := src.Category(); !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// PollInterval returns the configured polling interval.
func (e *Engine) PollInterval() time.Duration { return e.interval }

// GetSnapshot returns the latest cached snapshot for a source.
func (e *Engine) GetSnapshot(source string) *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSnap[source]
}

// Snapshots returns the latest snapshot of every source that has one.
func (e *Engine) Snapshots() []*Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Snapshot, 0, len(e.lastSnap))
	for _, s := range e.lastSnap {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// Status returns a copy of the poll status of a source.
func (e *Engine) Status(source string) (Status, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, ok := e.status[source]
	if !ok {
		return Status{}, false
	}
	return *st, true
}

// Ready reports whether at least one source has produced a snapshot.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.lastSnap) > 0
}

// Run starts the polling loop. It blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	e.PollOnce(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.PollOnce(ctx)
		}
	}
}

// PollOnce fetches every registered source concurrently and waits for all
// of them to finish.
func (e *Engine) PollOnce(ctx context.Context) {
	e.mu.RLock()
	srcs := make([]Source, 0, len(e.sources))
	for _, s := range e.sources {
		srcs = append(srcs, s)
	}
	e.mu.RUnlock()

	var g errgroup.Group
	g.SetLimit(maxConcurrentPolls)
	for _, src := range srcs {
		g.Go(func() error {
			e.poll(ctx, src)
			return nil
		})
	}
	_ = g.Wait()
	metrics.SnapshotCount.Set(float64(len(e.Snapshots())))
}

func (e *Engine) poll(ctx context.Context, src Source) {
	name := src.Name()
	start := time.Now()
	snap, err := fetchWithTimeout(ctx, src.FetchSnapshot, fetchTimeout)
	metrics.PollDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.status[name]

	if err != nil {
		metrics.PollTotal.WithLabelValues(name, "error").Inc()
		st.LastError = err.Error()
		st.LastErrorAt = time.Now()
		st.Failures++
		e.logger.Error("fetch snapshot failed", "source", name, "error", err, "failures", st.Failures)
		return
	}

	if snap.Source == "" {
		snap.Source = name
	}
	if snap.Category == "" {
		snap.Category = src.Category()
	}
	if snap.Chain == "" {
		snap.Chain = src.Chain()
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	e.lastSnap[name] = snap
	st.LastSuccess = snap.FetchedAt
	st.LastError = ""
	st.Failures = 0

	metrics.PollTotal.WithLabelValues(name, "ok").Inc()
	metrics.PollLastSuccess.WithLabelValues(name).Set(float64(snap.FetchedAt.Unix()))
	for metric, v := range snap.Metrics {
		metrics.MetricValue.WithLabelValues(name, metric).Set(v)
	}
	e.logger.Info("snapshot", "source", name, "metrics", snap.Metrics)
}

// fetchWithTimeout bounds a fetch even when the source ignores its context.
func fetchWithTimeout(ctx context.Context, fn func(context.Context) (*Snapshot, error), timeout time.Duration) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		snap *Snapshot
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		snap, err := fn(ctx)
		ch <- result{snap, err}
	}()

	select {
	case r := <-ch:
		if r.err == nil && r.snap == nil {
			return nil, fmt.Errorf("source returned no snapshot")
		}
		return r.snap, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch timed out after %s: %w", timeout, ctx.Err())
	}
}
