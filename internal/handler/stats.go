package handler

import (
	"net/http"
	"sort"

	"github.com/web3-frozen/cosmos-defi/internal/monitor"
)

// Stats returns every cached snapshot, or one source's with ?source=.
func Stats(engine *monitor.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source := r.URL.Query().Get("source")
		if source == "" {
			writeJSON(w, http.StatusOK, engine.Snapshots())
			return
		}

		if _, ok := engine.Source(source); !ok {
			writeError(w, http.StatusNotFound, "unknown source")
			return
		}
		snap := engine.GetSnapshot(source)
		if snap == nil {
			writeError(w, http.StatusServiceUnavailable, "no data available yet")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

type statsMeta struct {
	Sources      []string         `json:"sources"`
	Categories   []string         `json:"categories"`
	Chains       []string         `json:"chains"`
	PollInterval string           `json:"poll_interval"`
	Status       []monitor.Status `json:"status"`
}

// StatsMetadata describes the registered sources and their poll health.
func StatsMetadata(engine *monitor.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := engine.SourceNames()
		meta := statsMeta{
			Sources:      names,
			Categories:   engine.Categories(),
			PollInterval: engine.PollInterval().String(),
			Status:       make([]monitor.Status, 0, len(names)),
		}

		chains := make(map[string]bool)
		for _, name := range names {
			if src, ok := engine.Source(name); ok {
				chains[src.Chain()] = true
			}
			if st, ok := engine.Status(name); ok {
				meta.Status = append(meta.Status, st)
			}
		}
		meta.Chains = make([]string, 0, len(chains))
		for c := range chains {
			meta.Chains = append(meta.Chains, c)
		}
		sort.Strings(meta.Chains)

		writeJSON(w, http.StatusOK, meta)
	}
}
