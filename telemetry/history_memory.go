package telemetry

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryHistory is an in-process HistoryStore.
type MemoryHistory struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]RunInfo
	generations map[string][]GenerationStats
}

// NewMemoryHistory creates an empty store. Call Init before use.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

func (s *MemoryHistory) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]RunInfo)
	s.generations = make(map[string][]GenerationStats)
	return nil
}

func (s *MemoryHistory) SaveRun(_ context.Context, run RunInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return fmt.Errorf("memory history not initialized")
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryHistory) GetRun(_ context.Context, id string) (RunInfo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryHistory) AppendGeneration(_ context.Context, stats GenerationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return fmt.Errorf("memory history not initialized")
	}
	if _, ok := s.runs[stats.RunID]; !ok {
		return fmt.Errorf("append generation %d: %w %q", stats.Generation, ErrUnknownRun, stats.RunID)
	}
	s.generations[stats.RunID] = append(s.generations[stats.RunID], stats)
	return nil
}

func (s *MemoryHistory) Generations(_ context.Context, runID string) ([]GenerationStats, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gens, ok := s.generations[runID]
	return slices.Clone(gens), ok, nil
}
