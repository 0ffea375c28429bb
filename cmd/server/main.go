package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/web3-frozen/cosmos-defi/internal/catalog"
	"github.com/web3-frozen/cosmos-defi/internal/chain"
	"github.com/web3-frozen/cosmos-defi/internal/collector"
	"github.com/web3-frozen/cosmos-defi/internal/config"
	"github.com/web3-frozen/cosmos-defi/internal/fetch"
	"github.com/web3-frozen/cosmos-defi/internal/handler"
	"github.com/web3-frozen/cosmos-defi/internal/history"
	"github.com/web3-frozen/cosmos-defi/internal/middleware"
	"github.com/web3-frozen/cosmos-defi/internal/monitor"
	"github.com/web3-frozen/cosmos-defi/internal/monitor/sources"
	"github.com/web3-frozen/cosmos-defi/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := fetch.New(20*time.Second, cfg.RequestsPerSecond, cfg.RequestBurst)
	lcd := chain.NewLCD(cfg.LCDURL, client)

	// Block time tracker: seed from the LCD, then follow the RPC websocket
	blocks := collector.NewBlockTime(cfg.RPCWebsocketURL, logger)
	backfillCtx, backfillCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := blocks.Backfill(backfillCtx, lcd); err != nil {
		logger.Warn("block time backfill failed, waiting for websocket", "error", err)
	} else {
		logger.Info("block time seeded", "samples", len(blocks.Samples()), "blocks_per_year", blocks.BlocksPerYear())
	}
	backfillCancel()

	// Snapshot history: published files first, Postgres archive second
	httpLoader, err := history.NewHTTPLoader(cfg.HistoryBaseURL, client, cfg.HistoryCacheTTL, logger)
	if err != nil {
		logger.Error("failed to create history loader", "error", err)
		os.Exit(1)
	}
	defer httpLoader.Close()

	var loader history.Loader = httpLoader
	var readyDeps []handler.Pinger
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("database connected and migrated")

		loader = history.Fallback{httpLoader, history.NewStoreLoader(db, 0)}
		readyDeps = append(readyDeps, db)
	}

	// Monitoring engine
	llama := sources.NewDefiLlama(client)
	if cfg.DefiLlamaURL != "" {
		llama.WithBaseURL(cfg.DefiLlamaURL)
	}

	stride := sources.NewStride(client, loader)
	if cfg.StrideLCDURL != "" {
		stride.WithBaseURL(cfg.StrideLCDURL)
	}
	quicksilver := sources.NewQuicksilver(client, loader)
	if cfg.QuicksilverLCDURL != "" {
		quicksilver.WithBaseURL(cfg.QuicksilverLCDURL)
	}
	pstake := sources.NewPStake(client, loader)
	if cfg.PersistenceLCDURL != "" {
		pstake.WithBaseURL(cfg.PersistenceLCDURL)
	}
	astroport := sources.NewAstroport(client)
	if cfg.AstroportURL != "" {
		astroport.WithBaseURL(cfg.AstroportURL)
	}
	osmosis := sources.NewOsmosis(client)
	if cfg.OsmosisURL != "" {
		osmosis.WithBaseURL(cfg.OsmosisURL)
	}
	mars := sources.NewMars(client)
	if cfg.MarsURL != "" {
		mars.WithBaseURL(cfg.MarsURL)
	}
	levana := sources.NewLevana(client)
	if cfg.LevanaURL != "" {
		levana.WithBaseURL(cfg.LevanaURL)
	}

	all := []monitor.Source{
		sources.NewHub(lcd, blocks),
		stride,
		quicksilver,
		pstake,
		sources.NewDrop(loader),
		astroport,
		osmosis,
		mars,
		levana,
	}
	if cfg.EnableScraper {
		all = append(all, sources.NewPageAPR("pageapr", string(catalog.Liquidity), "Migaloo", cfg.ScrapeURL, cfg.ScrapeSelector, logger))
	}

	engine := monitor.NewEngine(logger, cfg.PollInterval)
	for _, src := range all {
		if p, ok := catalog.BySource(src.Name()); ok {
			src = sources.WithTVL(src, llama, p.LlamaSlug)
		}
		engine.Register(src)
	}

	// Start background goroutines
	go blocks.Run(ctx)
	go engine.Run(ctx)

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(engine, readyDeps...))

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", handler.Categories())
		r.Get("/protocols", handler.Protocols(engine))
		r.Get("/protocols/{id}", handler.Protocol(engine))
		r.Get("/protocols/{id}/history", handler.ProtocolHistory(loader, engine))
		r.Get("/stats", handler.Stats(engine))
		r.Get("/stats/meta", handler.StatsMetadata(engine))
		r.Get("/account/{address}", handler.Account(lcd, logger))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "sources", len(all))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
