package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("NEON_DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Error("Load() with no DATABASE_URL should fail")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/startsit")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIPort != 8000 {
		t.Errorf("APIPort = %d, want 8000", cfg.APIPort)
	}
	if cfg.Environment != "development" || cfg.IsProduction() {
		t.Errorf("Environment = %q, want development and not production", cfg.Environment)
	}
	if cfg.GridironRPM != 300 {
		t.Errorf("GridironRPM = %d, want 300", cfg.GridironRPM)
	}
	if cfg.GridironMaxRetries != 3 {
		t.Errorf("GridironMaxRetries = %d, want 3", cfg.GridironMaxRetries)
	}
	if cfg.GridironBaseDelay != 500*time.Millisecond {
		t.Errorf("GridironBaseDelay = %v, want 500ms", cfg.GridironBaseDelay)
	}
	if !cfg.RateLimitEnabled || cfg.RateLimitRequests != 100 {
		t.Errorf("rate limit = %v/%d, want enabled/100", cfg.RateLimitEnabled, cfg.RateLimitRequests)
	}
	if !cfg.CacheEnabled {
		t.Error("CacheEnabled default should be true")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("NEON_DATABASE_URL", "postgres://neon/startsit")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("GRIDIRON_REQUESTS_PER_MINUTE", "60")
	t.Setenv("GRIDIRON_BASE_DELAY_MS", "250")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DatabaseURL != "postgres://neon/startsit" {
		t.Errorf("DatabaseURL = %q, want the NEON fallback value", cfg.DatabaseURL)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}
	if cfg.GridironRPM != 60 {
		t.Errorf("GridironRPM = %d, want 60", cfg.GridironRPM)
	}
	if cfg.GridironBaseDelay != 250*time.Millisecond {
		t.Errorf("GridironBaseDelay = %v, want 250ms", cfg.GridironBaseDelay)
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[0] != "https://app.example.com" {
		t.Errorf("CORSAllowOrigins = %v, want the two trimmed origins", cfg.CORSAllowOrigins)
	}
}

func TestLoad_MalformedIntFallsBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/startsit")
	t.Setenv("GRIDIRON_MAX_RETRIES", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GridironMaxRetries != 3 {
		t.Errorf("GridironMaxRetries = %d, want default 3 on malformed value", cfg.GridironMaxRetries)
	}
}

func TestPositionRegistry_DefaultStarters(t *testing.T) {
	want := map[string]int{"QB": 1, "RB": 2, "WR": 2, "TE": 1, "K": 1, "DEF": 1}
	for position, starters := range want {
		pc, ok := PositionRegistry[position]
		if !ok {
			t.Errorf("PositionRegistry missing %s", position)
			continue
		}
		if pc.DefaultStarters != starters {
			t.Errorf("%s DefaultStarters = %d, want %d", position, pc.DefaultStarters, starters)
		}
	}
}
