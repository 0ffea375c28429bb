package history

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/web3-frozen/cosmos-defi/internal/metrics"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

// DayFormat is the point ID layout: one snapshot per protocol per UTC day.
const DayFormat = "2006-01-02"

const claimTTL = 24 * time.Hour

// RateSource reports a protocol's live redemption rate.
type RateSource interface {
	Name() string
	RedemptionRate(ctx context.Context) (float64, error)
}

// Claims guards a snapshot point against concurrent writer runs.
type Claims interface {
	Claim(ctx context.Context, key string, ttl time.Duration) bool
	Release(ctx context.Context, key string)
}

// Recorder archives snapshot points outside the history files.
type Recorder interface {
	InsertRateSnapshot(ctx context.Context, protocol string, p yield.Point) (bool, error)
}

// Writer appends today's redemption rate of each source to
// {Dir}/{protocol}.json and, when configured, to the archive.
type Writer struct {
	Dir     string
	Claims  Claims   // optional
	Archive Recorder // optional
	Logger  *slog.Logger

	now func() time.Time
}

// Outcome describes what Record did for one source.
type Outcome struct {
	Protocol string
	Point    yield.Point
	File     bool // appended to the history file
	Archived bool // inserted into the archive
	Skipped  string
}

func (w *Writer) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now()
}

// Path returns the history file for protocol.
func (w *Writer) Path(protocol string) string {
	return filepath.Join(w.Dir, protocol+".json")
}

// Record fetches src's live rate and appends it as today's point. A point
// already present for the day is left untouched.
func (w *Writer) Record(ctx context.Context, src RateSource) (Outcome, error) {
	now := w.clock().UTC().Truncate(time.Second)
	protocol := src.Name()
	out := Outcome{
		Protocol: protocol,
		Point:    yield.Point{ID: now.Format(DayFormat), Timestamp: now},
	}

	key := fmt.Sprintf("snapshot:%s:%s", protocol, out.Point.ID)
	if w.Claims != nil && !w.Claims.Claim(ctx, key, claimTTL) {
		out.Skipped = "claimed by another run"
		return out, nil
	}

	rate, err := src.RedemptionRate(ctx)
	if err == nil && rate <= 0 {
		err = yield.ErrZeroRate
	}
	if err != nil {
		w.release(ctx, key)
		return out, fmt.Errorf("%s redemption rate: %w", protocol, err)
	}
	out.Point.Rate = rate

	out.File, err = AppendFile(w.Path(protocol), out.Point)
	if err != nil {
		w.release(ctx, key)
		return out, fmt.Errorf("%s history file: %w", protocol, err)
	}
	if out.File {
		metrics.HistoryPointsWritten.WithLabelValues(protocol, "file").Inc()
	}

	if w.Archive != nil {
		out.Archived, err = w.Archive.InsertRateSnapshot(ctx, protocol, out.Point)
		if err != nil {
			return out, fmt.Errorf("%s archive: %w", protocol, err)
		}
		if out.Archived {
			metrics.HistoryPointsWritten.WithLabelValues(protocol, "postgres").Inc()
		}
	}

	if !out.File && !out.Archived {
		out.Skipped = "point already recorded"
	}
	if w.Logger != nil {
		w.Logger.Info("snapshot recorded", "protocol", protocol, "id", out.Point.ID,
			"rate", rate, "file", out.File, "archived", out.Archived)
	}
	return out, nil
}

func (w *Writer) release(ctx context.Context, key string) {
	if w.Claims != nil {
		w.Claims.Release(ctx, key)
	}
}
