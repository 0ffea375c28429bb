// Package history loads the snapshot histories published by the snapshot
// writer and appends new points to them.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/web3-frozen/cosmos-defi/internal/fetch"
	"github.com/web3-frozen/cosmos-defi/internal/metrics"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

// Loader returns the snapshot history of a protocol, oldest first.
type Loader interface {
	Load(ctx context.Context, protocol string) ([]yield.Point, error)
}

// HTTPLoader reads {baseURL}/{protocol}.json from a CDN or static folder
// and keeps decoded histories in memory for ttl.
type HTTPLoader struct {
	baseURL string
	client  *fetch.Client
	cache   *ristretto.Cache
	ttl     time.Duration
	logger  *slog.Logger
}

func NewHTTPLoader(baseURL string, client *fetch.Client, ttl time.Duration, logger *slog.Logger) (*HTTPLoader, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1_000,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create history cache: %w", err)
	}
	return &HTTPLoader{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
	}, nil
}

// Close releases the cache.
func (l *HTTPLoader) Close() { l.cache.Close() }

// Load fetches and decodes a protocol's history file.
func (l *HTTPLoader) Load(ctx context.Context, protocol string) ([]yield.Point, error) {
	if v, ok := l.cache.Get(protocol); ok {
		metrics.HistoryFetchTotal.WithLabelValues(protocol, "hit").Inc()
		return clonePoints(v.([]yield.Point)), nil
	}

	url := fmt.Sprintf("%s/%s.json", l.baseURL, protocol)
	body, err := l.client.Get(ctx, url)
	if err != nil {
		metrics.HistoryFetchTotal.WithLabelValues(protocol, "error").Inc()
		return nil, fmt.Errorf("history %s: %w", protocol, err)
	}

	points, err := Decode(body)
	if err != nil {
		metrics.HistoryFetchTotal.WithLabelValues(protocol, "error").Inc()
		return nil, fmt.Errorf("history %s: %w", protocol, err)
	}
	metrics.HistoryFetchTotal.WithLabelValues(protocol, "miss").Inc()

	if l.ttl > 0 {
		l.cache.SetWithTTL(protocol, points, int64(len(points))*64+1, l.ttl)
		l.cache.Wait()
	}
	if l.logger != nil {
		l.logger.Debug("loaded history", "protocol", protocol, "points", len(points))
	}
	return clonePoints(points), nil
}

// Decode parses a history file body.
func Decode(body []byte) ([]yield.Point, error) {
	var points []yield.Point
	if err := json.Unmarshal(body, &points); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return points, nil
}

func clonePoints(p []yield.Point) []yield.Point {
	out := make([]yield.Point, len(p))
	copy(out, p)
	return out
}

// Archive is the subset of the Postgres store used for history reads.
type Archive interface {
	ListRateSnapshots(ctx context.Context, protocol string, since time.Time) ([]yield.Point, error)
}

// StoreLoader serves histories from the Postgres archive.
type StoreLoader struct {
	archive Archive
	maxAge  time.Duration
}

// NewStoreLoader returns a loader limited to points newer than maxAge
// (0 loads everything).
func NewStoreLoader(a Archive, maxAge time.Duration) *StoreLoader {
	return &StoreLoader{archive: a, maxAge: maxAge}
}

func (l *StoreLoader) Load(ctx context.Context, protocol string) ([]yield.Point, error) {
	var since time.Time
	if l.maxAge > 0 {
		since = time.Now().Add(-l.maxAge)
	}
	points, err := l.archive.ListRateSnapshots(ctx, protocol, since)
	if err != nil {
		metrics.HistoryFetchTotal.WithLabelValues(protocol, "error").Inc()
		return nil, fmt.Errorf("archive history %s: %w", protocol, err)
	}
	metrics.HistoryFetchTotal.WithLabelValues(protocol, "miss").Inc()
	return points, nil
}

// Fallback tries loaders in order and returns the first non-empty history.
type Fallback []Loader

func (f Fallback) Load(ctx context.Context, protocol string) ([]yield.Point, error) {
	var lastErr error
	for _, l := range f {
		points, err := l.Load(ctx, protocol)
		if err != nil {
			lastErr = err
			continue
		}
		if len(points) > 0 {
			return points, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}
