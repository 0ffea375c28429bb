package yield

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// Point is one record of a snapshot history file.
type Point struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Rate      float64   `json:"rate"`
}

// UnmarshalJSON accepts RFC3339 timestamps, unix seconds and unix
// milliseconds. Rates may be JSON numbers or decimal strings.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        json.RawMessage `json:"id"`
		Timestamp json.RawMessage `json:"timestamp"`
		Rate      json.RawMessage `json:"rate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := rawString(raw.ID)
	if err != nil {
		return fmt.Errorf("point id: %w", err)
	}
	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return fmt.Errorf("point %s timestamp: %w", id, err)
	}
	rateStr, err := rawString(raw.Rate)
	if err != nil {
		return fmt.Errorf("point %s rate: %w", id, err)
	}
	rate, err := ParseDecFloat(rateStr)
	if err != nil {
		return fmt.Errorf("point %s rate: %w", id, err)
	}

	p.ID, p.Timestamp, p.Rate = id, ts, rate
	return nil
}

// rawString returns a JSON string's contents or a JSON number's literal text.
func rawString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	s, err := rawString(raw)
	if err != nil {
		return time.Time{}, err
	}
	if s == "" {
		return time.Time{}, fmt.Errorf("missing")
	}
	var t time.Time
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 || n > maxUnixMilli {
			return time.Time{}, fmt.Errorf("%q out of range", s)
		}
		if n > 1e12 {
			t = time.UnixMilli(int64(n)).UTC()
		} else {
			t = time.Unix(int64(n), 0).UTC()
		}
	} else if t, err = time.Parse(time.RFC3339, s); err != nil {
		return time.Time{}, err
	}
	if t.Year() < 1970 || t.Year() > 9999 {
		return time.Time{}, fmt.Errorf("%q out of range", s)
	}
	return t, nil
}

// maxUnixMilli is 9999-12-31T23:59:59Z in unix milliseconds.
const maxUnixMilli = 253402300799999

// Tier reports which rule produced a Result.
type Tier string

const (
	TierWindow Tier = "window"
	TierOldest Tier = "oldest"
	TierLive   Tier = "live"
)

// Policy controls how a history is reduced to a single yield figure.
type Policy struct {
	// Windows are tried in order; the first one the history covers wins.
	Windows []time.Duration
	// MinSpan is the shortest span accepted by the oldest-point fallback.
	MinSpan time.Duration
	// Compounding converts the simple APR into APY.
	Compounding Compounding
}

// DefaultPolicy prefers a week of history, then a day, then anything
// spanning at least an hour, compounding daily.
var DefaultPolicy = Policy{
	Windows:     []time.Duration{7 * 24 * time.Hour, 24 * time.Hour},
	MinSpan:     time.Hour,
	Compounding: Daily,
}

// Result is an annualized yield derived from two history points.
type Result struct {
	APR    float64       `json:"apr"`
	APY    float64       `json:"apy"`
	Tier   Tier          `json:"tier"`
	Window time.Duration `json:"window"`
	From   Point         `json:"from"`
	To     Point         `json:"to"`
}

// Span returns the time between the two points used.
func (r Result) Span() time.Duration { return r.To.Timestamp.Sub(r.From.Timestamp) }

// FromHistory reduces a snapshot history to an annualized yield.
func FromHistory(points []Point, p Policy) (Result, error) {
	clean := normalize(points)
	if len(clean) < 2 {
		return Result{}, ErrInsufficientHistory
	}
	return fromSorted(clean, p, TierOldest)
}

// FromHistoryWithLive is FromHistory with the current on-chain rate
// appended as the newest point. A single snapshot paired with the live rate
// is enough when the two span at least MinSpan.
func FromHistoryWithLive(points []Point, live Point, p Policy) (Result, error) {
	clean := normalize(points)
	appended := false
	if live.Rate > 0 && (len(clean) == 0 || live.Timestamp.After(clean[len(clean)-1].Timestamp)) {
		clean = append(clean, live)
		appended = true
	}
	if len(clean) < 2 {
		return Result{}, ErrInsufficientHistory
	}
	if !appended || len(clean) > 2 {
		return fromSorted(clean, p, TierOldest)
	}
	// one snapshot plus the live rate: live tier whichever rule matched
	res, err := fromSorted(clean, p, TierLive)
	if err != nil {
		return Result{}, err
	}
	res.Tier = TierLive
	return res, nil
}

func fromSorted(points []Point, p Policy, fallback Tier) (Result, error) {
	to := points[len(points)-1]

	for _, w := range p.Windows {
		if w <= 0 {
			continue
		}
		cutoff := to.Timestamp.Add(-w)
		// newest point at or before the cutoff
		i := sort.Search(len(points), func(i int) bool {
			return points[i].Timestamp.After(cutoff)
		})
		if i == 0 {
			continue
		}
		return build(points[i-1], to, p.Compounding, TierWindow, w)
	}

	from := points[0]
	if to.Timestamp.Sub(from.Timestamp) < p.MinSpan || !to.Timestamp.After(from.Timestamp) {
		return Result{}, ErrInsufficientHistory
	}
	return build(from, to, p.Compounding, fallback, 0)
}

func build(from, to Point, n Compounding, tier Tier, window time.Duration) (Result, error) {
	apr, err := AnnualizedAPR(from.Rate, to.Rate, to.Timestamp.Sub(from.Timestamp))
	if err != nil {
		return Result{}, err
	}
	if apr, err = checked(apr); err != nil {
		return Result{}, err
	}
	apy, err := APRToAPY(apr, n)
	if err != nil {
		return Result{}, err
	}
	return Result{
		APR:    apr,
		APY:    apy,
		Tier:   tier,
		Window: window,
		From:   from,
		To:     to,
	}, nil
}

// normalize drops unusable points and returns a copy sorted by time with
// duplicate timestamps collapsed to the last occurrence.
func normalize(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, pt := range points {
		if pt.Rate > 0 && !pt.Timestamp.IsZero() {
			out = append(out, pt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	dedup := out[:0]
	for _, pt := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Timestamp.Equal(pt.Timestamp) {
			dedup[n-1] = pt
			continue
		}
		dedup = append(dedup, pt)
	}
	return dedup
}

// Latest returns the newest usable point of a history.
func Latest(points []Point) (Point, bool) {
	clean := normalize(points)
	if len(clean) == 0 {
		return Point{}, false
	}
	return clean[len(clean)-1], true
}
