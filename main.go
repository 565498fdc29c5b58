// Command flock runs the flocking simulation headless. It owns the tick
// cadence and all I/O; the sim package only ever advances one fixed tick
// per call and exposes read-only snapshots.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/sim"
	"github.com/pthm-cable/flock/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	workers := flag.Int("workers", -1, "Worker goroutines (-1 = use config, 0 = GOMAXPROCS)")
	tickRate := flag.Float64("tick-rate", -1, "Ticks per second (-1 = use config, 0 = unpaced)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// CLI overrides happen before construction; the config is immutable after.
	if *workers >= 0 {
		cfg.Runtime.Workers = *workers
	}
	if *tickRate >= 0 {
		cfg.Runtime.TickRate = *tickRate
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	s, err := sim.New(cfg, rngSeed)
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to set up output", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	collector := telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Flock.DT)
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	s.AttachPerf(perf)

	var limiter *rate.Limiter
	if cfg.Runtime.TickRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Runtime.TickRate), 1)
	}
	ctx := context.Background()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"agents", cfg.Flock.Agents,
		"world_w", cfg.World.Width,
		"world_h", cfg.World.Height,
		"workers", cfg.Runtime.Workers,
		"tick_rate", cfg.Runtime.TickRate,
		"max_ticks", *maxTicks,
	)

	for {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				slog.Error("pacing interrupted", "error", err)
				os.Exit(1)
			}
		}

		if err := s.Step(); err != nil {
			slog.Error("step failed", "tick", s.Tick(), "error", err)
			os.Exit(1)
		}

		if stats, ok := collector.Observe(s.Tick(), s.Velocities(), s.MeanNeighbors()); ok {
			perfStats := perf.Stats()
			if *logStats {
				stats.LogStats()
				perfStats.LogStats()
			}
			if err := output.WriteTelemetry(stats); err != nil {
				slog.Error("telemetry output failed", "error", err)
				os.Exit(1)
			}
			if err := output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
				slog.Error("perf output failed", "error", err)
				os.Exit(1)
			}
		}

		if *maxTicks > 0 && s.Tick() >= *maxTicks {
			slog.Info("max ticks reached", "tick", s.Tick())
			return
		}
	}
}
