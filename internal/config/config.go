package config

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	infisical "github.com/infisical/go-sdk"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	FrontendOrigin string

	// Cosmos Hub endpoints.
	LCDURL          string
	RPCWebsocketURL string

	// Snapshot history: published JSON files and the writer's output dir.
	HistoryBaseURL  string
	HistoryDir      string
	HistoryCacheTTL time.Duration

	// Optional archive and run-claim backends.
	DatabaseURL   string
	RedisURL      string
	RedisPassword string

	PollInterval      time.Duration
	RequestsPerSecond float64
	RequestBurst      int

	// Per-source endpoint overrides; empty keeps the built-in default.
	StrideLCDURL      string
	QuicksilverLCDURL string
	PersistenceLCDURL string
	AstroportURL      string
	OsmosisURL        string
	MarsURL           string
	LevanaURL         string
	DefiLlamaURL      string

	// Headless-Chrome APR scraping is opt-in.
	EnableScraper  bool
	ScrapeURL      string
	ScrapeSelector string
}

// Load reads configuration from the environment, after applying a .env
// file in the working directory if one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg := Config{
		Port:           envOr("PORT", "8080"),
		FrontendOrigin: envOr("FRONTEND_ORIGIN", "*"),

		LCDURL:          envOr("LCD_URL", "https://cosmos-rest.publicnode.com"),
		RPCWebsocketURL: envOr("RPC_WS_URL", "wss://cosmos-rpc.publicnode.com/websocket"),

		HistoryBaseURL:  envOr("HISTORY_BASE_URL", "https://cdn.jsdelivr.net/gh/web3-frozen/cosmos-defi@main/history"),
		HistoryDir:      envOr("HISTORY_DIR", "history"),
		HistoryCacheTTL: envDuration("HISTORY_CACHE_TTL", 10*time.Minute),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		PollInterval:      envDuration("POLL_INTERVAL", 5*time.Minute),
		RequestsPerSecond: envFloat("REQUESTS_PER_SECOND", 5),
		RequestBurst:      envInt("REQUEST_BURST", 10),

		StrideLCDURL:      os.Getenv("STRIDE_LCD_URL"),
		QuicksilverLCDURL: os.Getenv("QUICKSILVER_LCD_URL"),
		PersistenceLCDURL: os.Getenv("PERSISTENCE_LCD_URL"),
		AstroportURL:      os.Getenv("ASTROPORT_GRAPHQL_URL"),
		OsmosisURL:        os.Getenv("OSMOSIS_API_URL"),
		MarsURL:           os.Getenv("MARS_API_URL"),
		LevanaURL:         os.Getenv("LEVANA_INDEXER_URL"),
		DefiLlamaURL:      os.Getenv("DEFILLAMA_URL"),

		EnableScraper:  envBool("ENABLE_SCRAPER", false),
		ScrapeURL:      envOr("SCRAPE_URL", "https://app.whitewhale.money/migaloo/pools"),
		ScrapeSelector: envOr("SCRAPE_SELECTOR", `[data-testid="pool-apr"]`),
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL",
		"http://infisical-infisical-standalone-infisical.infisical.svc.cluster.local:8080")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	_, err := client.Auth().UniversalAuthLogin(clientID, clientSecret)
	if err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	secrets := map[string]*string{
		"DATABASE_URL":   &cfg.DatabaseURL,
		"REDIS_URL":      &cfg.RedisURL,
		"REDIS_PASSWORD": &cfg.RedisPassword,
	}

	for key, target := range secrets {
		if *target != "" {
			continue // env var already set, skip
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid number, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}
