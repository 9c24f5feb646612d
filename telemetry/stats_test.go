package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/hillclimb/evolution"
	"github.com/pthm-cable/hillclimb/vehicle"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeFitnessStats(t *testing.T) {
	// Descending, as Evolve reports it.
	values := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	mean, std, p10, p50, p90 := ComputeFitnessStats(values)

	if math.Abs(mean-5.5) > 1e-9 {
		t.Errorf("mean = %v, want 5.5", mean)
	}
	// Population std of 1..10 is sqrt(8.25).
	if math.Abs(std-math.Sqrt(8.25)) > 1e-9 {
		t.Errorf("std = %v, want %v", std, math.Sqrt(8.25))
	}
	if math.Abs(p10-1.9) > 1e-9 || math.Abs(p50-5.5) > 1e-9 || math.Abs(p90-9.1) > 1e-9 {
		t.Errorf("percentiles = %v/%v/%v, want 1.9/5.5/9.1", p10, p50, p90)
	}
	if values[0] != 10 {
		t.Error("ComputeFitnessStats must not reorder its input")
	}
}

func TestComputeFitnessStatsEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeFitnessStats(nil)

	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector("run-1")
	c.RecordDeath(vehicle.CauseFuel)
	c.RecordDeath(vehicle.CauseFuel)
	c.RecordDeath(vehicle.CauseFlipped)
	c.RecordDeath(vehicle.CauseTimeout)

	res := evolution.GenerationResult{
		Generation:   3,
		Fitness:      []float64{12, 4, 2, 0.1},
		Scores:       []float64{11, 3, 2, 0},
		EliteCount:   0,
		FlippedCount: 1,
		BestFitness:  15,
		NewChampion:  false,
	}
	stats := c.Flush(5400, res)

	if stats.RunID != "run-1" || stats.Generation != 3 || stats.Tick != 5400 {
		t.Errorf("header = %q/%d/%d", stats.RunID, stats.Generation, stats.Tick)
	}
	if stats.Agents != 4 {
		t.Errorf("Agents = %d, want 4", stats.Agents)
	}
	if stats.BestFitness != 12 || stats.AllTimeFitness != 15 {
		t.Errorf("BestFitness/AllTimeFitness = %v/%v, want 12/15", stats.BestFitness, stats.AllTimeFitness)
	}
	if stats.BestScore != 11 || stats.ScoreMean != 4 {
		t.Errorf("BestScore/ScoreMean = %v/%v, want 11/4", stats.BestScore, stats.ScoreMean)
	}
	if stats.DeathsFuel != 2 || stats.DeathsFlipped != 1 || stats.DeathsTimeout != 1 || stats.DeathsFell != 0 {
		t.Errorf("deaths = fell %d timeout %d fuel %d flipped %d", stats.DeathsFell, stats.DeathsTimeout, stats.DeathsFuel, stats.DeathsFlipped)
	}

	if c.Deaths(vehicle.CauseFuel) != 0 {
		t.Error("Flush should reset death counters")
	}
}
