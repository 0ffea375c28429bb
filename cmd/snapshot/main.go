// Command snapshot appends today's liquid staking redemption rates to the
// published history files, optionally mirroring them into Postgres.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/web3-frozen/cosmos-defi/internal/catalog"
	"github.com/web3-frozen/cosmos-defi/internal/config"
	"github.com/web3-frozen/cosmos-defi/internal/dedup"
	"github.com/web3-frozen/cosmos-defi/internal/fetch"
	"github.com/web3-frozen/cosmos-defi/internal/history"
	"github.com/web3-frozen/cosmos-defi/internal/monitor/sources"
	"github.com/web3-frozen/cosmos-defi/internal/store"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()

	dir := flag.String("dir", cfg.HistoryDir, "history output directory")
	only := flag.String("protocols", defaultProtocols(), "comma-separated protocols to snapshot")
	force := flag.Bool("force", false, "release today's run claims before writing")
	importFiles := flag.Bool("import", false, "copy existing history files into Postgres and exit")
	retention := flag.Duration("retention", 0, "delete archived points older than this (0 keeps all)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := fetch.New(20*time.Second, cfg.RequestsPerSecond, cfg.RequestBurst)

	stride := sources.NewStride(client, nil)
	if cfg.StrideLCDURL != "" {
		stride.WithBaseURL(cfg.StrideLCDURL)
	}
	quicksilver := sources.NewQuicksilver(client, nil)
	if cfg.QuicksilverLCDURL != "" {
		quicksilver.WithBaseURL(cfg.QuicksilverLCDURL)
	}
	pstake := sources.NewPStake(client, nil)
	if cfg.PersistenceLCDURL != "" {
		pstake.WithBaseURL(cfg.PersistenceLCDURL)
	}
	available := map[string]history.RateSource{
		stride.Name():      stride,
		quicksilver.Name(): quicksilver,
		pstake.Name():      pstake,
	}

	w := &history.Writer{Dir: *dir, Logger: logger}

	var db *store.Store
	if cfg.DatabaseURL != "" {
		var err error
		db, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		w.Archive = db
	}

	if *importFiles {
		if db == nil {
			logger.Error("-import requires DATABASE_URL")
			os.Exit(1)
		}
		for _, name := range splitList(*only) {
			points, err := history.ReadFile(w.Path(name))
			if err != nil {
				logger.Error("failed to read history", "protocol", name, "error", err)
				os.Exit(1)
			}
			n, err := db.InsertRateSnapshots(ctx, name, points)
			if err != nil {
				logger.Error("failed to import history", "protocol", name, "error", err)
				os.Exit(1)
			}
			total, err := db.CountRateSnapshots(ctx, name)
			if err != nil {
				logger.Warn("failed to count archived points", "protocol", name, "error", err)
			}
			logger.Info("history imported", "protocol", name, "points", len(points), "inserted", n, "archived", total)
		}
		return
	}

	if cfg.RedisURL != "" {
		claims, err := dedup.New(cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer claims.Close() //nolint:errcheck
		if *force {
			claims.ReleaseByPattern(ctx, "snapshot:*:"+time.Now().UTC().Format(history.DayFormat))
		}
		w.Claims = claims
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	var failed atomic.Bool
	for _, name := range splitList(*only) {
		src, ok := available[name]
		if !ok {
			// drop publishes no live rate; its history is maintained upstream
			logger.Warn("no live redemption rate for protocol, skipping", "protocol", name)
			continue
		}
		g.Go(func() error {
			out, err := w.Record(gctx, src)
			if err != nil {
				logger.Error("snapshot failed", "protocol", name, "error", err)
				failed.Store(true)
			} else if out.Skipped != "" {
				logger.Info("snapshot skipped", "protocol", name, "reason", out.Skipped)
			}
			return nil
		})
	}
	_ = g.Wait()

	if db != nil && *retention > 0 {
		n, err := db.CleanupOldRateSnapshots(ctx, *retention)
		if err != nil {
			logger.Warn("retention cleanup failed", "error", err)
		} else {
			logger.Info("retention cleanup", "deleted", n)
		}
	}

	if failed.Load() {
		os.Exit(1)
	}
}

// defaultProtocols lists every catalog protocol that publishes history.
func defaultProtocols() string {
	var ids []string
	for _, p := range catalog.WithHistory() {
		ids = append(ids, p.ID)
	}
	return strings.Join(ids, ",")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
