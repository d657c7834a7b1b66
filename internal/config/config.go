// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Position registry — single source of truth for roster positions
// --------------------------------------------------------------------------

type PositionConfig struct {
	ID              string
	Name            string
	DefaultStarters int
}

// PositionRegistry maps position abbreviations to their configuration.
// DefaultStarters is the starting-slot capacity used when a league has no
// roster configuration of its own.
var PositionRegistry = map[string]PositionConfig{
	"QB":  {ID: "QB", Name: "Quarterback", DefaultStarters: 1},
	"RB":  {ID: "RB", Name: "Running Back", DefaultStarters: 2},
	"WR":  {ID: "WR", Name: "Wide Receiver", DefaultStarters: 2},
	"TE":  {ID: "TE", Name: "Tight End", DefaultStarters: 1},
	"K":   {ID: "K", Name: "Kicker", DefaultStarters: 1},
	"DEF": {ID: "DEF", Name: "Team Defense", DefaultStarters: 1},
}

// CurrentSeason is the default season year for CLI commands and cron syncs.
const CurrentSeason = 2025

// --------------------------------------------------------------------------
// Table names — single source of truth, matches schema.sql
// --------------------------------------------------------------------------

const (
	PlayersTable            = "players"
	PlayerStatsTable        = "player_stats"
	LeaguesTable            = "leagues"
	TeamsTable              = "teams"
	RosterEntriesTable      = "roster_entries"
	InjuriesTable           = "injuries"
	SyncLogsTable           = "sync_logs"
	MatchupsTable           = "nfl_matchups"
	DefensePointsTable      = "defense_points_against"
	LeaguePlayerScoresTable = "league_player_scores"
	SyncJobsTable           = "sync_jobs"
)

// --------------------------------------------------------------------------
// Batch sizes — upsert batch bounds per sync type
// --------------------------------------------------------------------------

const (
	PlayerBatchSize  = 100
	StatsBatchSize   = 200
	MatchupBatchSize = 25
	DefenseBatchSize = 50
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting (inbound)
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Upstream provider
	GridironAPIKey     string
	GridironBaseURL    string
	GridironRPM        int // token bucket budget, requests per minute
	GridironMaxRetries int
	GridironBaseDelay  time.Duration

	// Cron entry points
	CronSecret string

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("NEON_DATABASE_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or NEON_DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		GridironAPIKey:     envOr("GRIDIRON_API_KEY", ""),
		GridironBaseURL:    envOr("GRIDIRON_BASE_URL", "https://api.gridironstats.io/nfl/v1"),
		GridironRPM:        envInt("GRIDIRON_REQUESTS_PER_MINUTE", 300),
		GridironMaxRetries: envInt("GRIDIRON_MAX_RETRIES", 3),
		GridironBaseDelay:  time.Duration(envInt("GRIDIRON_BASE_DELAY_MS", 500)) * time.Millisecond,

		CronSecret: envOr("CRON_SECRET", ""),

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
