package main

import (
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/game"
	"github.com/pthm-cable/hillclimb/telemetry"
)

// FitnessEvaluator runs headless training runs and scores parameter vectors.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	maxTicks    int64
	seeds       []int64
	baseConfig  *config.Config

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	lastSummary runSummary // from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, generations int, maxTicks int64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// runSummary holds the outcome of one training run, or the seed average.
type runSummary struct {
	Generations int     // generations completed
	BestFitness float64 // all-time fitness watermark at the end of the run
	FinalMean   float64 // mean fitness of the last completed generation
}

// LastSummary returns the seed-averaged summary of the most recent evaluation.
func (fe *FitnessEvaluator) LastSummary() runSummary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSummary
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the negated all-time best training fitness, averaged over seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	// Run all seeds in parallel
	results := make([]runSummary, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runTraining(cfg.Clone(), s)
		}(i, seed)
	}
	wg.Wait()

	var avg runSummary
	for _, r := range results {
		avg.Generations += r.Generations
		avg.BestFitness += r.BestFitness
		avg.FinalMean += r.FinalMean
	}
	n := float64(len(results))
	avg.Generations /= len(results)
	avg.BestFitness /= n
	avg.FinalMean /= n

	fitness := -avg.BestFitness

	fe.mu.Lock()
	fe.bestFitness = min(fe.bestFitness, fitness)
	fe.lastSummary = avg
	fe.mu.Unlock()

	return fitness
}

// runTraining trains for the configured number of generations or until maxTicks.
func (fe *FitnessEvaluator) runTraining(cfg *config.Config, seed int64) runSummary {
	var summary runSummary

	g, err := game.New(game.Options{
		Config: cfg,
		Seed:   seed,
		Mode:   game.ModeTraining,
		Hooks: game.Hooks{
			OnGeneration: func(stats telemetry.GenerationStats) {
				summary.Generations++
				summary.BestFitness = stats.AllTimeFitness
				summary.FinalMean = stats.FitnessMean
			},
		},
	})
	if err != nil {
		slog.Error("training run failed", "seed", seed, "error", err)
		return summary
	}
	defer g.Close()

	for g.Tick() < fe.maxTicks && summary.Generations < fe.generations {
		g.Step()
	}
	return summary
}
