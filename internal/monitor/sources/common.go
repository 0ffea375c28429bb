// Package sources holds one monitor.Source per Cosmos Hub DeFi protocol.
package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/web3-frozen/cosmos-defi/internal/history"
	"github.com/web3-frozen/cosmos-defi/internal/monitor"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

// hostChainID is the Cosmos Hub chain id used by the liquid staking modules.
const hostChainID = "cosmoshub-4"

// info carries the static Source fields.
type info struct {
	name     string
	category string
	chain    string
	url      string
}

func (i info) Name() string     { return i.name }
func (i info) Category() string { return i.category }
func (i info) Chain() string    { return i.chain }
func (i info) URL() string      { return i.url }

func (i info) snapshot() *monitor.Snapshot {
	return &monitor.Snapshot{
		Source:      i.name,
		Category:    i.category,
		Chain:       i.chain,
		Metrics:     make(map[string]float64),
		DataSources: make(map[string]string),
		Notes:       make(map[string]string),
		FetchedAt:   time.Now(),
	}
}

// applyHistory derives APR/APY from the protocol's snapshot history paired
// with the live redemption rate. A missing or short history leaves the
// snapshot with its live rate only and records why in Notes.
func applyHistory(ctx context.Context, snap *monitor.Snapshot, loader history.Loader, live float64, policy yield.Policy) {
	if loader == nil {
		snap.Notes["yield"] = "no history configured"
		return
	}
	points, err := loader.Load(ctx, snap.Source)
	if err != nil {
		snap.Notes["yield"] = err.Error()
		return
	}
	snap.DataSources["history"] = snap.Source + ".json"

	var res yield.Result
	if live > 0 {
		res, err = yield.FromHistoryWithLive(points, yield.Point{ID: "live", Timestamp: snap.FetchedAt, Rate: live}, policy)
	} else {
		res, err = yield.FromHistory(points, policy)
	}
	if err != nil {
		snap.Notes["yield"] = err.Error()
		return
	}
	setResult(snap, res)
}

func setResult(snap *monitor.Snapshot, res yield.Result) {
	snap.Metrics[monitor.MetricAPR] = res.APR
	snap.Metrics[monitor.MetricAPY] = res.APY
	snap.Notes["tier"] = string(res.Tier)
	if res.Window > 0 {
		snap.Notes["window"] = res.Window.String()
	}
	snap.Notes["from"] = res.From.Timestamp.UTC().Format(time.RFC3339)
	snap.Notes["to"] = res.To.Timestamp.UTC().Format(time.RFC3339)
}

// setAPY stores apr compounded n times per year under key. When the
// compounded figure overflows the reason is noted under the same key.
func setAPY(snap *monitor.Snapshot, key string, apr float64, n yield.Compounding) {
	apy, err := yield.APRToAPY(apr, n)
	if err != nil {
		snap.Notes[key] = err.Error()
		return
	}
	snap.Metrics[key] = apy
}

// parsePercent parses a displayed APR such as "12.5%" or "1,204.1 %" into a
// fraction (0.125).
func parsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty percent")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse percent %q: %w", s, err)
	}
	return v / 100, nil
}

// hasSymbol reports whether symbols contains want, ignoring case.
func hasSymbol(symbols []string, want string) bool {
	for _, s := range symbols {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
