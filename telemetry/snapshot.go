package telemetry

import "log/slog"

// Snapshot is the per-tick training summary exposed to the presentation layer.
type Snapshot struct {
	Generation       int     `csv:"generation"`
	Tick             int64   `csv:"tick"`
	BestFitness      float64 `csv:"best_fitness"`       // all-time fitness watermark
	CurrentBestScore float64 `csv:"current_best_score"` // best score among live agents this tick
	BestScore        float64 `csv:"best_score"`         // all-time score watermark
	AliveCount       int     `csv:"alive"`
	SpeciesCount     int     `csv:"species"` // always 0
	Paused           bool    `csv:"paused"`
	Speed            int     `csv:"speed"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s Snapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int64("tick", s.Tick),
		slog.Float64("best_fitness", s.BestFitness),
		slog.Float64("current_best_score", s.CurrentBestScore),
		slog.Float64("best_score", s.BestScore),
		slog.Int("alive", s.AliveCount),
		slog.Int("species", s.SpeciesCount),
		slog.Bool("paused", s.Paused),
		slog.Int("speed", s.Speed),
	)
}
