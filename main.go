package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/game"
	"github.com/pthm-cable/hillclimb/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	modeFlag := flag.String("mode", "train", "Run mode: train or play")
	logStats := flag.Bool("log-stats", false, "Log tick snapshots and perf stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	maxGenerations := flag.Int("max-generations", 0, "Stop after N completed generations (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (1-10)")
	workers := flag.Int("workers", 0, "Agent step workers (0 = GOMAXPROCS, 1 = single-threaded)")
	history := flag.String("history", "memory", "Run history backend: memory or sqlite")
	historyPath := flag.String("history-path", "hillclimb.db", "SQLite file for -history sqlite")
	keys := flag.String("keys", "ArrowRight", "Held keys for headless play, comma separated")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	mode, err := game.ParseMode(*modeFlag)
	if err != nil {
		slog.Error("invalid mode", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	numWorkers := *workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	ctx := context.Background()
	runID := telemetry.NewRunID()

	// Output
	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	// Run history
	if *history == "sqlite" && *outputDir != "" && !filepath.IsAbs(*historyPath) {
		*historyPath = filepath.Join(*outputDir, *historyPath)
	}
	store, err := telemetry.NewHistoryStore(*history, *historyPath)
	if err != nil {
		slog.Error("failed to create history store", "error", err)
		os.Exit(1)
	}
	defer telemetry.CloseIfSupported(store)
	if err := store.Init(ctx); err != nil {
		slog.Error("failed to init history store", "error", err)
		os.Exit(1)
	}
	if err := store.SaveRun(ctx, telemetry.RunInfo{
		ID:             runID,
		Seed:           rngSeed,
		Mode:           mode.String(),
		PopulationSize: cfg.Population.Size,
		StartedAt:      time.Now(),
	}); err != nil {
		slog.Error("failed to save run", "error", err)
	}

	opts := game.Options{
		Config:  cfg,
		Seed:    rngSeed,
		Mode:    mode,
		Workers: numWorkers,
		RunID:   runID,
		Hooks: game.Hooks{
			OnGeneration: func(stats telemetry.GenerationStats) {
				if err := out.WriteGeneration(stats); err != nil {
					slog.Error("failed to write generation", "error", err)
				}
				if err := store.AppendGeneration(ctx, stats); err != nil {
					slog.Error("failed to append generation", "error", err)
				}
			},
			OnBookmark: func(b telemetry.Bookmark) {
				if err := out.WriteBookmark(b); err != nil {
					slog.Error("failed to write bookmark", "error", err)
				}
			},
			OnPerf: func(stats telemetry.PerfStats, tick int64) {
				if err := out.WritePerf(stats, tick); err != nil {
					slog.Error("failed to write perf", "error", err)
				}
			},
		},
	}

	if mode == game.ModeHumanPlay {
		held, err := game.ParseKeys(*keys)
		if err != nil {
			slog.Error("invalid keys", "error", err)
			os.Exit(1)
		}
		opts.Input = game.NewKeyState(held...)
	}

	g, err := game.New(opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}
	defer g.Close()
	g.SetSpeed(*stepsPerUpdate)

	slog.Info("starting headless run",
		"run_id", runID,
		"mode", mode.String(),
		"seed", rngSeed,
		"population", cfg.Population.Size,
		"workers", numWorkers,
		"max_ticks", *maxTicks,
		"max_generations", *maxGenerations,
		"steps_per_update", g.Speed(),
	)

	logEvery := int64(cfg.Telemetry.LogEveryTicks)
	for {
		g.Update()

		if *logStats && logEvery > 0 && g.Tick()%logEvery < int64(g.Speed()) {
			slog.Info("tick", "snapshot", g.Telemetry())
			g.Perf().LogStats()
		}

		switch {
		case mode == game.ModeHumanPlay && g.Over():
			slog.Info("game over", "tick", g.Tick(), "score", g.Telemetry().BestScore)
			return
		case *maxTicks > 0 && g.Tick() >= *maxTicks:
			slog.Info("max ticks reached", "tick", g.Tick())
			return
		case *maxGenerations > 0 && g.Generation() > *maxGenerations:
			slog.Info("max generations reached", "generation", g.Generation()-1, "best_fitness", g.Telemetry().BestFitness)
			return
		}
	}
}
