package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/web3-frozen/cosmos-defi/internal/catalog"
	"github.com/web3-frozen/cosmos-defi/internal/history"
	"github.com/web3-frozen/cosmos-defi/internal/monitor"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

const maxWindow = 365 * 24 * time.Hour

type historyResponse struct {
	Protocol   string        `json:"protocol"`
	Window     string        `json:"window,omitempty"`
	Points     []yield.Point `json:"points"`
	Yield      *yield.Result `json:"yield"`
	YieldError string        `json:"yield_error,omitempty"`
}

// ProtocolHistory returns a protocol's snapshot history, optionally cut to
// ?window= (e.g. 7d, 36h), with the yield normalized over it. The live rate
// from the latest snapshot extends the history when it is newer.
func ProtocolHistory(loader history.Loader, engine *monitor.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := catalog.ByID(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "unknown protocol")
			return
		}
		if !p.History {
			writeError(w, http.StatusNotFound, "protocol has no snapshot history")
			return
		}

		window, err := parseWindow(r.URL.Query().Get("window"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		points, err := loader.Load(r.Context(), p.ID)
		if err != nil {
			writeError(w, http.StatusBadGateway, "failed to load history")
			return
		}

		policy := yield.DefaultPolicy
		policy.Compounding = p.Compounding
		resp := historyResponse{Protocol: p.ID, Points: points}
		if window > 0 {
			policy.Windows = []time.Duration{window}
			resp.Window = window.String()
			resp.Points = trimToWindow(points, window)
		}
		if resp.Points == nil {
			resp.Points = []yield.Point{}
		}

		var res yield.Result
		if snap := engine.GetSnapshot(p.Source); snap != nil && snap.Rate() > 0 {
			live := yield.Point{ID: "live", Timestamp: snap.FetchedAt, Rate: snap.Rate()}
			res, err = yield.FromHistoryWithLive(points, live, policy)
		} else {
			res, err = yield.FromHistory(points, policy)
		}
		switch {
		case err == nil:
			resp.Yield = &res
		case errors.Is(err, yield.ErrInsufficientHistory), errors.Is(err, yield.ErrZeroRate), errors.Is(err, yield.ErrNoInterval):
			resp.YieldError = err.Error()
		default:
			writeError(w, http.StatusInternalServerError, "failed to compute yield")
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// parseWindow accepts Go durations plus a day suffix ("7d"). Empty means no
// window.
func parseWindow(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	var d time.Duration
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid window %q", s)
		}
		d = time.Duration(n) * 24 * time.Hour
	} else {
		var err error
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid window %q", s)
		}
	}
	if d <= 0 || d > maxWindow {
		return 0, fmt.Errorf("window %q out of range", s)
	}
	return d, nil
}

// trimToWindow keeps the points within window of the newest one, plus the
// newest point at or before that boundary so the window's start rate is
// visible.
func trimToWindow(points []yield.Point, window time.Duration) []yield.Point {
	latest, ok := yield.Latest(points)
	if !ok {
		return nil
	}
	cutoff := latest.Timestamp.Add(-window)

	var out []yield.Point
	var anchor *yield.Point
	for i := range points {
		pt := points[i]
		if pt.Timestamp.After(cutoff) {
			out = append(out, pt)
			continue
		}
		if anchor == nil || pt.Timestamp.After(anchor.Timestamp) {
			anchor = &points[i]
		}
	}
	if anchor != nil {
		out = append([]yield.Point{*anchor}, out...)
	}
	return out
}
