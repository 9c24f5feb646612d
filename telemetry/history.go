package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownRun is returned when appending to a run that was never saved.
var ErrUnknownRun = errors.New("unknown run")

// RunInfo describes one training run.
type RunInfo struct {
	ID             string    `json:"id"`
	Seed           int64     `json:"seed"`
	Mode           string    `json:"mode"`
	PopulationSize int       `json:"population_size"`
	StartedAt      time.Time `json:"started_at"`
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// HistoryStore keeps per-generation statistics for training runs.
// Trained networks are never stored.
type HistoryStore interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run RunInfo) error
	GetRun(ctx context.Context, id string) (RunInfo, bool, error)
	AppendGeneration(ctx context.Context, stats GenerationStats) error
	Generations(ctx context.Context, runID string) ([]GenerationStats, bool, error)
}

// NewHistoryStore creates a store by backend name: "" or "memory", or "sqlite".
func NewHistoryStore(kind, sqlitePath string) (HistoryStore, error) {
	switch kind {
	case "", "memory":
		return NewMemoryHistory(), nil
	case "sqlite":
		return newSQLiteHistory(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", kind)
	}
}

// CloseIfSupported closes stores that hold external resources.
func CloseIfSupported(store HistoryStore) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}

func encodeGeneration(s GenerationStats) ([]byte, error) {
	return json.Marshal(s)
}

func decodeGeneration(data []byte) (GenerationStats, error) {
	var s GenerationStats
	if err := json.Unmarshal(data, &s); err != nil {
		return GenerationStats{}, err
	}
	return s, nil
}
