// Package telemetry provides training statistics, performance timing, CSV output and run history.
package telemetry

import (
	"github.com/pthm-cable/hillclimb/evolution"
	"github.com/pthm-cable/hillclimb/vehicle"
)

// Collector accumulates per-generation events and produces GenerationStats.
type Collector struct {
	runID string

	// Death counters for the current generation
	deaths map[vehicle.DeathCause]int
}

// NewCollector creates a collector that stamps every record with runID.
func NewCollector(runID string) *Collector {
	return &Collector{
		runID:  runID,
		deaths: make(map[vehicle.DeathCause]int),
	}
}

// RecordDeath records a vehicle that stopped this generation.
func (c *Collector) RecordDeath(cause vehicle.DeathCause) {
	c.deaths[cause]++
}

// Deaths returns the count recorded for cause in the current generation.
func (c *Collector) Deaths(cause vehicle.DeathCause) int {
	return c.deaths[cause]
}

// Flush produces GenerationStats for a completed generation and resets counters.
func (c *Collector) Flush(tick int64, res evolution.GenerationResult) GenerationStats {
	mean, std, p10, p50, p90 := ComputeFitnessStats(res.Fitness)
	scoreMean, _ := ComputeMeanStd(res.Scores)

	stats := GenerationStats{
		RunID:      c.runID,
		Generation: res.Generation,
		Tick:       tick,
		Agents:     len(res.Fitness),

		EliteCount:   res.EliteCount,
		FlippedCount: res.FlippedCount,
		NewChampion:  res.NewChampion,

		BestFitness:    maxOrZero(res.Fitness),
		AllTimeFitness: res.BestFitness,
		FitnessMean:    mean,
		FitnessStd:     std,
		FitnessP10:     p10,
		FitnessP50:     p50,
		FitnessP90:     p90,

		BestScore: maxOrZero(res.Scores),
		ScoreMean: scoreMean,

		DeathsFell:    c.deaths[vehicle.CauseFell],
		DeathsTimeout: c.deaths[vehicle.CauseTimeout],
		DeathsFuel:    c.deaths[vehicle.CauseFuel],
		DeathsFlipped: c.deaths[vehicle.CauseFlipped],
	}

	c.Reset()
	return stats
}

// Reset discards counters for the current generation.
func (c *Collector) Reset() {
	clear(c.deaths)
}
