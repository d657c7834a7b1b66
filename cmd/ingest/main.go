// Command ingest is the startsit-data ingestion CLI.
//
// Usage:
//
//	startsit-ingest sync players --season 2025 --week 3
//	startsit-ingest sync stats --season 2025 --week 3
//	startsit-ingest sync matchups --season 2025
//	startsit-ingest sync defense --season 2025 --week 3
//	startsit-ingest sync all --season 2025 --week 3
//	startsit-ingest normalize --position WR --season 2025 --week 3
//	startsit-ingest recommend --league 42 --season 2025 --week 3 --teams 7,9
//	startsit-ingest jobs resync --season 2025 --priority 5
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/startsit/startsit-data/internal/config"
	"github.com/startsit/startsit-data/internal/db"
	"github.com/startsit/startsit-data/internal/model"
	"github.com/startsit/startsit-data/internal/normalize"
	"github.com/startsit/startsit-data/internal/provider/gridiron"
	"github.com/startsit/startsit-data/internal/recommend"
	"github.com/startsit/startsit-data/internal/store"
	statsync "github.com/startsit/startsit-data/internal/sync"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "startsit-ingest",
		Short: "Startsit data ingestion CLI",
	}

	root.AddCommand(syncCmd())
	root.AddCommand(normalizeCmd())
	root.AddCommand(recommendCmd())
	root.AddCommand(jobsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// sync command
// --------------------------------------------------------------------------

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync data from the upstream provider",
	}

	subs := []struct {
		use, short string
		run        func(*statsync.Syncer, context.Context, int, int) statsync.Result
	}{
		{"players", "Sync the full player population and weekly injuries",
			(*statsync.Syncer).SyncPlayers},
		{"stats", "Sync weekly stats (actual and projected) and refresh rolling averages",
			(*statsync.Syncer).SyncStats},
		{"matchups", "Sync the NFL schedule",
			(*statsync.Syncer).SyncMatchups},
		{"defense", "Backfill opponents and compute defense points-against",
			(*statsync.Syncer).SyncDefensePoints},
	}
	for _, sub := range subs {
		sub := sub
		var season, week int
		c := &cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDeps(func(ctx context.Context, cfg *config.Config, syncer *statsync.Syncer, _ *store.Store) error {
					start := time.Now()
					result := sub.run(syncer, ctx, season, week)
					logger.Info("sync finished", "type", sub.use,
						"duration", time.Since(start).Round(time.Second),
						"summary", result.Summary())
					for _, e := range result.Errors {
						logger.Error("sync error", "error", e)
					}
					return nil
				})
			},
		}
		c.Flags().IntVar(&season, "season", config.CurrentSeason, "Season year")
		c.Flags().IntVar(&week, "week", 0, "Scoring week")
		cmd.AddCommand(c)
	}

	cmd.AddCommand(syncAllCmd())
	return cmd
}

func syncAllCmd() *cobra.Command {
	var season, week int
	c := &cobra.Command{
		Use:   "all",
		Short: "Run the full weekly pipeline: players, matchups, stats, defense, normalize",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(ctx context.Context, cfg *config.Config, syncer *statsync.Syncer, repo *store.Store) error {
				start := time.Now()
				steps := []struct {
					name string
					run  func(context.Context, int, int) statsync.Result
				}{
					{"players", syncer.SyncPlayers},
					{"matchups", syncer.SyncMatchups},
					{"stats", syncer.SyncStats},
					{"defense", syncer.SyncDefensePoints},
				}
				for _, step := range steps {
					result := step.run(ctx, season, week)
					logger.Info("step finished", "step", step.name, "summary", result.Summary())
				}

				normalizer := normalize.New(repo, logger)
				for _, pos := range []string{model.PositionQB, model.PositionRB, model.PositionWR, model.PositionTE} {
					if err := normalizer.Normalize(ctx, pos, season, week); err != nil {
						logger.Error("normalize failed", "position", pos, "error", err)
					}
				}
				logger.Info("weekly pipeline finished",
					"duration", time.Since(start).Round(time.Second))
				return nil
			})
		},
	}
	c.Flags().IntVar(&season, "season", config.CurrentSeason, "Season year")
	c.Flags().IntVar(&week, "week", 0, "Scoring week")
	_ = c.MarkFlagRequired("week")
	return c
}

// --------------------------------------------------------------------------
// normalize command
// --------------------------------------------------------------------------

func normalizeCmd() *cobra.Command {
	var position string
	var season, week int
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Recompute min-max normalized metrics for a position and week",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(ctx context.Context, cfg *config.Config, _ *statsync.Syncer, repo *store.Store) error {
				normalizer := normalize.New(repo, logger)

				positions := []string{position}
				if position == "" {
					positions = []string{model.PositionQB, model.PositionRB, model.PositionWR, model.PositionTE}
				}
				start := time.Now()
				for _, pos := range positions {
					if err := normalizer.Normalize(ctx, pos, season, week); err != nil {
						return fmt.Errorf("normalize %s: %w", pos, err)
					}
				}
				logger.Info("normalize finished",
					"positions", strings.Join(positions, ","),
					"duration", time.Since(start).Round(time.Second))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&position, "position", "", "Position (QB, RB, WR, TE); empty = all")
	cmd.Flags().IntVar(&season, "season", config.CurrentSeason, "Season year")
	cmd.Flags().IntVar(&week, "week", 0, "Scoring week")
	_ = cmd.MarkFlagRequired("week")
	return cmd
}

// --------------------------------------------------------------------------
// recommend command
// --------------------------------------------------------------------------

func recommendCmd() *cobra.Command {
	var leagueID int64
	var season, week int
	var teams string
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print start/bench recommendations for a set of teams",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(ctx context.Context, cfg *config.Config, _ *statsync.Syncer, repo *store.Store) error {
				var teamIDs []int64
				for _, p := range strings.Split(teams, ",") {
					p = strings.TrimSpace(p)
					if p == "" {
						continue
					}
					var id int64
					if _, err := fmt.Sscanf(p, "%d", &id); err != nil {
						return fmt.Errorf("invalid team id %q", p)
					}
					teamIDs = append(teamIDs, id)
				}

				engine := recommend.New(repo, logger)
				recs, err := engine.Recommend(ctx, recommend.Request{
					LeagueID: leagueID,
					Season:   season,
					Week:     week,
					TeamIDs:  teamIDs,
				})
				if err != nil {
					return err
				}

				out, err := json.MarshalIndent(recs, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&leagueID, "league", 0, "League external id")
	cmd.Flags().IntVar(&season, "season", config.CurrentSeason, "Season year")
	cmd.Flags().IntVar(&week, "week", 0, "Scoring week")
	cmd.Flags().StringVar(&teams, "teams", "", "Comma-separated fantasy team ids")
	_ = cmd.MarkFlagRequired("league")
	_ = cmd.MarkFlagRequired("week")
	return cmd
}

// --------------------------------------------------------------------------
// jobs command
// --------------------------------------------------------------------------

func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Enqueue work for the external heavy-sync worker",
	}

	var season, priority int
	resync := &cobra.Command{
		Use:   "resync",
		Short: "Enqueue a full season resync",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(ctx context.Context, cfg *config.Config, syncer *statsync.Syncer, _ *store.Store) error {
				if err := syncer.EnqueueFullResync(ctx, season, priority); err != nil {
					return err
				}
				logger.Info("resync enqueued", "season", season, "priority", priority)
				return nil
			})
		},
	}
	resync.Flags().IntVar(&season, "season", config.CurrentSeason, "Season year")
	resync.Flags().IntVar(&priority, "priority", 5, "Job priority (1 = highest)")
	cmd.AddCommand(resync)
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withDeps handles config loading, DB connection, dependency wiring, and
// context cancellation.
func withDeps(fn func(ctx context.Context, cfg *config.Config, syncer *statsync.Syncer, repo *store.Store) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.GridironAPIKey == "" {
		return fmt.Errorf("GRIDIRON_API_KEY is required")
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	repo := store.New(pool)
	client := gridiron.NewClient(cfg.GridironBaseURL, cfg.GridironAPIKey,
		cfg.GridironRPM, cfg.GridironMaxRetries, cfg.GridironBaseDelay, logger)
	syncer := statsync.New(client, repo, logger)

	return fn(ctx, cfg, syncer, repo)
}
