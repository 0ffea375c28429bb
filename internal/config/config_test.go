package config

import (
	"os"
	"testing"
	"time"
)

func TestEnvOr(t *testing.T) {
	// Unset key returns fallback
	os.Unsetenv("TEST_ENVOR_KEY")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "default" {
		t.Errorf("envOr unset key = %q, want %q", got, "default")
	}

	// Set key returns value
	t.Setenv("TEST_ENVOR_KEY", "custom")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "custom" {
		t.Errorf("envOr set key = %q, want %q", got, "custom")
	}

	// Empty string returns fallback
	t.Setenv("TEST_ENVOR_KEY", "")
	if got := envOr("TEST_ENVOR_KEY", "fallback"); got != "fallback" {
		t.Errorf("envOr empty key = %q, want %q", got, "fallback")
	}
}

func TestTypedEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		check func(t *testing.T)
	}{
		{"duration ok", "90s", func(t *testing.T) {
			if got := envDuration("TEST_TYPED", time.Minute); got != 90*time.Second {
				t.Errorf("envDuration = %v, want 90s", got)
			}
		}},
		{"duration invalid", "soon", func(t *testing.T) {
			if got := envDuration("TEST_TYPED", time.Minute); got != time.Minute {
				t.Errorf("envDuration = %v, want fallback", got)
			}
		}},
		{"duration negative", "-5s", func(t *testing.T) {
			if got := envDuration("TEST_TYPED", time.Minute); got != time.Minute {
				t.Errorf("envDuration = %v, want fallback", got)
			}
		}},
		{"float ok", "2.5", func(t *testing.T) {
			if got := envFloat("TEST_TYPED", 1); got != 2.5 {
				t.Errorf("envFloat = %v, want 2.5", got)
			}
		}},
		{"float invalid", "fast", func(t *testing.T) {
			if got := envFloat("TEST_TYPED", 1); got != 1 {
				t.Errorf("envFloat = %v, want fallback", got)
			}
		}},
		{"int ok", "7", func(t *testing.T) {
			if got := envInt("TEST_TYPED", 1); got != 7 {
				t.Errorf("envInt = %v, want 7", got)
			}
		}},
		{"bool ok", "true", func(t *testing.T) {
			if got := envBool("TEST_TYPED", false); !got {
				t.Error("envBool = false, want true")
			}
		}},
		{"bool invalid", "maybe", func(t *testing.T) {
			if got := envBool("TEST_TYPED", false); got {
				t.Error("envBool = true, want fallback")
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_TYPED", tt.value)
			tt.check(t)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	// Clear all relevant env vars
	for _, k := range []string{"PORT", "DATABASE_URL", "FRONTEND_ORIGIN", "REDIS_URL", "REDIS_PASSWORD",
		"LCD_URL", "POLL_INTERVAL", "ENABLE_SCRAPER", "REQUESTS_PER_SECOND",
		"INFISICAL_CLIENT_ID", "INFISICAL_CLIENT_SECRET"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.FrontendOrigin != "*" {
		t.Errorf("FrontendOrigin = %q, want %q", cfg.FrontendOrigin, "*")
	}
	if cfg.DatabaseURL != "" || cfg.RedisURL != "" {
		t.Errorf("DatabaseURL/RedisURL = %q/%q, want empty", cfg.DatabaseURL, cfg.RedisURL)
	}
	if cfg.LCDURL != "https://cosmos-rest.publicnode.com" {
		t.Errorf("LCDURL = %q", cfg.LCDURL)
	}
	if cfg.PollInterval != 5*time.Minute {
		t.Errorf("PollInterval = %v, want 5m", cfg.PollInterval)
	}
	if cfg.RequestsPerSecond != 5 {
		t.Errorf("RequestsPerSecond = %v, want 5", cfg.RequestsPerSecond)
	}
	if cfg.EnableScraper {
		t.Error("EnableScraper should default to false")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("FRONTEND_ORIGIN", "http://localhost:3000")
	t.Setenv("POLL_INTERVAL", "30s")
	t.Setenv("ENABLE_SCRAPER", "1")
	t.Setenv("STRIDE_LCD_URL", "http://stride.local")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.DatabaseURL != "postgres://test" {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, "postgres://test")
	}
	if cfg.FrontendOrigin != "http://localhost:3000" {
		t.Errorf("FrontendOrigin = %q, want %q", cfg.FrontendOrigin, "http://localhost:3000")
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
	if !cfg.EnableScraper {
		t.Error("EnableScraper = false, want true")
	}
	if cfg.StrideLCDURL != "http://stride.local" {
		t.Errorf("StrideLCDURL = %q", cfg.StrideLCDURL)
	}
}
