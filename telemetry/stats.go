package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GenerationStats holds aggregated statistics for one completed generation.
type GenerationStats struct {
	RunID      string `csv:"run_id"`
	Generation int    `csv:"generation"`
	Tick       int64  `csv:"tick"`
	Agents     int    `csv:"agents"`

	// Selection
	EliteCount   int  `csv:"elites"`
	FlippedCount int  `csv:"flipped"`
	NewChampion  bool `csv:"new_champion"`

	// Fitness distribution
	BestFitness    float64 `csv:"best_fitness"`
	AllTimeFitness float64 `csv:"all_time_fitness"` // watermark after this generation
	FitnessMean    float64 `csv:"fitness_mean"`
	FitnessStd     float64 `csv:"fitness_std"`
	FitnessP10     float64 `csv:"fitness_p10"`
	FitnessP50     float64 `csv:"fitness_p50"`
	FitnessP90     float64 `csv:"fitness_p90"`

	// Distance
	BestScore float64 `csv:"best_score"`
	ScoreMean float64 `csv:"score_mean"`

	// Death causes
	DeathsFell    int `csv:"deaths_fell"`
	DeathsTimeout int `csv:"deaths_timeout"`
	DeathsFuel    int `csv:"deaths_fuel"`
	DeathsFlipped int `csv:"deaths_flipped"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeMeanStd returns the population mean and standard deviation.
func ComputeMeanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}

// ComputeFitnessStats calculates population mean, std, and percentiles.
func ComputeFitnessStats(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = ComputeMeanStd(values)

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// maxOrZero returns the largest value, or 0 for an empty slice.
func maxOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Max(values)
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int64("tick", s.Tick),
		slog.Int("agents", s.Agents),
		slog.Int("elites", s.EliteCount),
		slog.Int("flipped", s.FlippedCount),
		slog.Bool("new_champion", s.NewChampion),
		slog.Float64("best_fitness", s.BestFitness),
		slog.Float64("all_time_fitness", s.AllTimeFitness),
		slog.Float64("fitness_mean", s.FitnessMean),
		slog.Float64("fitness_std", s.FitnessStd),
		slog.Float64("fitness_p10", s.FitnessP10),
		slog.Float64("fitness_p50", s.FitnessP50),
		slog.Float64("fitness_p90", s.FitnessP90),
		slog.Float64("best_score", s.BestScore),
		slog.Float64("score_mean", s.ScoreMean),
		slog.Int("deaths_fell", s.DeathsFell),
		slog.Int("deaths_timeout", s.DeathsTimeout),
		slog.Int("deaths_fuel", s.DeathsFuel),
		slog.Int("deaths_flipped", s.DeathsFlipped),
	)
}

// LogStats logs the generation summary using slog.
func (s GenerationStats) LogStats() {
	slog.Info("generation", "stats", s)
}
