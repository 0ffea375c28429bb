package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/web3-frozen/cosmos-defi/internal/catalog"
	"github.com/web3-frozen/cosmos-defi/internal/monitor"
)

// staleAfter is how many poll intervals a snapshot may age before its card
// is flagged stale.
const staleAfter = 3

// Card is a catalog entry merged with the latest snapshot of its source.
// Numeric fields are nil when the source has not reported them.
type Card struct {
	catalog.Protocol
	Compounding string `json:"compounding"`

	APR  *float64 `json:"apr"`
	APY  *float64 `json:"apy"`
	TVL  *float64 `json:"tvl"`
	Rate *float64 `json:"rate"`

	APRDisplay  string `json:"apr_display"`
	APYDisplay  string `json:"apy_display"`
	TVLDisplay  string `json:"tvl_display"`
	RateDisplay string `json:"rate_display"`

	DataSources map[string]string `json:"data_sources,omitempty"`
	Notes       map[string]string `json:"notes,omitempty"`
	FetchedAt   *time.Time        `json:"fetched_at"`
	Stale       bool              `json:"stale"`
}

func metric(snap *monitor.Snapshot, name string) *float64 {
	if snap == nil || !snap.Has(name) {
		return nil
	}
	v := snap.Metrics[name]
	return &v
}

func display(v *float64, format func(float64) string) string {
	if v == nil {
		return "-"
	}
	return format(*v)
}

// BuildCard merges p with snap (which may be nil).
func BuildCard(p catalog.Protocol, snap *monitor.Snapshot, interval time.Duration, now time.Time) Card {
	c := Card{
		Protocol:    p,
		Compounding: p.Compounding.String(),
		APR:         metric(snap, monitor.MetricAPR),
		APY:         metric(snap, monitor.MetricAPY),
		TVL:         metric(snap, monitor.MetricTVL),
		Rate:        metric(snap, monitor.MetricRate),
	}
	c.APRDisplay = display(c.APR, monitor.FormatPercent)
	c.APYDisplay = display(c.APY, monitor.FormatPercent)
	c.TVLDisplay = display(c.TVL, monitor.FormatUSD)
	c.RateDisplay = display(c.Rate, monitor.FormatRate)

	if snap == nil {
		return c
	}
	c.DataSources = snap.DataSources
	c.Notes = snap.Notes
	fetched := snap.FetchedAt
	c.FetchedAt = &fetched
	if interval > 0 && now.Sub(fetched) > staleAfter*interval {
		c.Stale = true
	}
	return c
}

type categoryInfo struct {
	ID    catalog.Category `json:"id"`
	Count int              `json:"count"`
}

// Categories lists the dashboard tabs with their protocol counts.
func Categories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats := catalog.Categories()
		out := make([]categoryInfo, 0, len(cats))
		for _, c := range cats {
			out = append(out, categoryInfo{ID: c, Count: len(catalog.ByCategory(c))})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// Protocols returns the cards of every protocol, or of one ?category=.
func Protocols(engine *monitor.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		protocols := catalog.All()
		if c := r.URL.Query().Get("category"); c != "" {
			cat := catalog.Category(c)
			if !cat.Valid() {
				writeError(w, http.StatusBadRequest, "unknown category")
				return
			}
			protocols = catalog.ByCategory(cat)
		}

		now := time.Now()
		cards := make([]Card, 0, len(protocols))
		for _, p := range protocols {
			cards = append(cards, BuildCard(p, engine.GetSnapshot(p.Source), engine.PollInterval(), now))
		}
		writeJSON(w, http.StatusOK, cards)
	}
}

type protocolDetail struct {
	Card     Card              `json:"card"`
	Snapshot *monitor.Snapshot `json:"snapshot"`
	Status   *monitor.Status   `json:"status"`
}

// Protocol returns one card with its raw snapshot and poll status.
func Protocol(engine *monitor.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := catalog.ByID(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "unknown protocol")
			return
		}
		snap := engine.GetSnapshot(p.Source)
		detail := protocolDetail{
			Card:     BuildCard(p, snap, engine.PollInterval(), time.Now()),
			Snapshot: snap,
		}
		if st, ok := engine.Status(p.Source); ok {
			detail.Status = &st
		}
		writeJSON(w, http.StatusOK, detail)
	}
}
