package history

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/web3-frozen/cosmos-defi/internal/fetch"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

const strideHistory = `[
	{"id":"2025-01-01","timestamp":"2025-01-01T00:00:00Z","rate":1.20},
	{"id":"2025-01-02","timestamp":"2025-01-02T00:00:00Z","rate":"1.200400000000000000"}
]`

func TestHTTPLoaderCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/stride.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(strideHistory))
	}))
	defer srv.Close()

	l, err := NewHTTPLoader(srv.URL+"/", fetch.Wrap(srv.Client()), time.Minute, nil)
	if err != nil {
		t.Fatalf("NewHTTPLoader: %v", err)
	}
	defer l.Close()

	ctx := context.Background()
	points, err := l.Load(ctx, "stride")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(points) != 2 || points[1].Rate != 1.2004 {
		t.Fatalf("points = %+v", points)
	}

	// mutate the returned slice; the cached copy must not change
	points[0].Rate = 99

	again, err := l.Load(ctx, "stride")
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if again[0].Rate != 1.20 {
		t.Errorf("cached rate = %v, want 1.20", again[0].Rate)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hits = %d, want 1", got)
	}

	if _, err := l.Load(ctx, "unknown"); err == nil {
		t.Error("expected error for missing history")
	}
}

type fakeArchive struct {
	points []yield.Point
	err    error
	since  time.Time
}

func (f *fakeArchive) ListRateSnapshots(ctx context.Context, protocol string, since time.Time) ([]yield.Point, error) {
	f.since = since
	return f.points, f.err
}

func TestStoreLoader(t *testing.T) {
	a := &fakeArchive{points: []yield.Point{{ID: "1", Rate: 1}}}
	l := NewStoreLoader(a, 24*time.Hour)

	points, err := l.Load(context.Background(), "stride")
	if err != nil || len(points) != 1 {
		t.Fatalf("Load = %v, %v", points, err)
	}
	if time.Since(a.since) < 23*time.Hour {
		t.Errorf("since = %v, want about 24h ago", a.since)
	}

	a.err = errors.New("db down")
	if _, err := l.Load(context.Background(), "stride"); err == nil {
		t.Error("expected archive error")
	}
}

func TestFallback(t *testing.T) {
	failing := &fakeArchive{err: errors.New("db down")}
	empty := &fakeArchive{}
	full := &fakeArchive{points: []yield.Point{{ID: "x", Rate: 1}}}

	f := Fallback{NewStoreLoader(failing, 0), NewStoreLoader(empty, 0), NewStoreLoader(full, 0)}
	points, err := f.Load(context.Background(), "drop")
	if err != nil || len(points) != 1 {
		t.Fatalf("Fallback.Load = %v, %v", points, err)
	}

	f = Fallback{NewStoreLoader(failing, 0)}
	if _, err := f.Load(context.Background(), "drop"); err == nil {
		t.Error("expected error when every loader fails")
	}

	f = Fallback{NewStoreLoader(empty, 0)}
	points, err = f.Load(context.Background(), "drop")
	if err != nil || points != nil {
		t.Errorf("empty Fallback.Load = %v, %v; want nil, nil", points, err)
	}
}

func TestAppendFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "stride.json")
	t0 := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	wrote, err := AppendFile(path, yield.Point{ID: "2025-01-02", Timestamp: t0, Rate: 1.2004})
	if err != nil || !wrote {
		t.Fatalf("AppendFile = %v, %v", wrote, err)
	}

	// older point is inserted in time order
	wrote, err = AppendFile(path, yield.Point{ID: "2025-01-01", Timestamp: t0.Add(-24 * time.Hour), Rate: 1.2})
	if err != nil || !wrote {
		t.Fatalf("AppendFile older = %v, %v", wrote, err)
	}

	wrote, err = AppendFile(path, yield.Point{ID: "2025-01-02", Timestamp: t0, Rate: 7})
	if err != nil {
		t.Fatalf("AppendFile duplicate: %v", err)
	}
	if wrote {
		t.Error("duplicate id was written")
	}

	points, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(points) != 2 || points[0].ID != "2025-01-01" || points[1].Rate != 1.2004 {
		t.Errorf("points = %+v", points)
	}
}

func TestReadFileMissing(t *testing.T) {
	points, err := ReadFile(filepath.Join(t.TempDir(), "none.json"))
	if err != nil || points != nil {
		t.Errorf("ReadFile(missing) = %v, %v; want nil, nil", points, err)
	}
}
