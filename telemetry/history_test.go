package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewHistoryStoreMemory(t *testing.T) {
	store, err := NewHistoryStore("memory", "")
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	if store == nil {
		t.Fatal("expected non-nil store")
	}
	if err := CloseIfSupported(store); err != nil {
		t.Errorf("close memory store: %v", err)
	}
}

func TestNewHistoryStoreUnsupported(t *testing.T) {
	if _, err := NewHistoryStore("unknown", ""); err == nil {
		t.Fatal("expected unsupported store error")
	}
}

func TestNewRunIDIsUUID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b {
		t.Fatal("run IDs should be unique")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("run ID %q is not a UUID: %v", a, err)
	}
}

func exerciseHistoryStore(t *testing.T, store HistoryStore) {
	t.Helper()
	ctx := context.Background()

	run := RunInfo{
		ID:             NewRunID(),
		Seed:           42,
		Mode:           "train",
		PopulationSize: 20,
		StartedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	err := store.AppendGeneration(ctx, GenerationStats{RunID: run.ID, Generation: 1})
	if !errors.Is(err, ErrUnknownRun) {
		t.Fatalf("append before SaveRun: err = %v, want ErrUnknownRun", err)
	}

	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	loaded, ok, err := store.GetRun(ctx, run.ID)
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if loaded.Seed != run.Seed || loaded.Mode != run.Mode || !loaded.StartedAt.Equal(run.StartedAt) {
		t.Errorf("loaded run = %+v, want %+v", loaded, run)
	}

	for g := 1; g <= 3; g++ {
		stats := GenerationStats{RunID: run.ID, Generation: g, BestFitness: float64(g) * 1.5, DeathsFuel: g}
		if err := store.AppendGeneration(ctx, stats); err != nil {
			t.Fatalf("append generation %d: %v", g, err)
		}
	}

	gens, ok, err := store.Generations(ctx, run.ID)
	if err != nil || !ok {
		t.Fatalf("generations: ok=%v err=%v", ok, err)
	}
	if len(gens) != 3 {
		t.Fatalf("len(generations) = %d, want 3", len(gens))
	}
	for i, g := range gens {
		if g.Generation != i+1 || g.BestFitness != float64(i+1)*1.5 || g.DeathsFuel != i+1 {
			t.Errorf("generation %d = %+v", i, g)
		}
	}

	if _, ok, err := store.Generations(ctx, "missing"); ok || err != nil {
		t.Errorf("missing run: ok=%v err=%v, want false/nil", ok, err)
	}
	if _, ok, err := store.GetRun(ctx, "missing"); ok || err != nil {
		t.Errorf("missing run: ok=%v err=%v, want false/nil", ok, err)
	}
}

func TestMemoryHistoryRoundTrip(t *testing.T) {
	store := NewMemoryHistory()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	exerciseHistoryStore(t, store)
}

func TestMemoryHistoryGenerationsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryHistory()
	if err := store.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveRun(ctx, RunInfo{ID: "r"}); err != nil {
		t.Fatal(err)
	}
	if err := store.AppendGeneration(ctx, GenerationStats{RunID: "r", Generation: 1}); err != nil {
		t.Fatal(err)
	}

	gens, _, _ := store.Generations(ctx, "r")
	gens[0].Generation = 99

	again, _, _ := store.Generations(ctx, "r")
	if again[0].Generation != 1 {
		t.Error("mutating returned history changed the store")
	}
}
