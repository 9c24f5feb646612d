package telemetry

import (
	"math"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestPerf(window int) (*PerfCollector, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	pc := NewPerfCollector(window)
	pc.now = clk.Now
	return pc, clk
}

func approx(a, b float64) bool { return math.Abs(a-b) <= 1e-6*math.Max(1, math.Abs(b)) }

// tick simulates one training tick with the given phase lengths.
func tick(pc *PerfCollector, clk *fakeClock, alive int, agents, aggregate time.Duration) {
	pc.StartTick(alive)
	pc.StartPhase(PhaseAgents)
	clk.advance(agents)
	pc.StartPhase(PhaseAggregate)
	clk.advance(aggregate)
	pc.EndTick()
}

func TestPerfAgentThroughput(t *testing.T) {
	pc, clk := newTestPerf(10)
	for i := 0; i < 4; i++ {
		tick(pc, clk, 100, time.Millisecond, time.Millisecond)
	}

	s := pc.Stats()
	if s.AvgTick != 2*time.Millisecond || s.MaxTick != 2*time.Millisecond {
		t.Errorf("avg/max tick: got %v/%v, want 2ms/2ms", s.AvgTick, s.MaxTick)
	}
	if !approx(s.TicksPerSecond, 500) {
		t.Errorf("ticks/sec: got %v, want 500", s.TicksPerSecond)
	}
	if s.AvgAlive != 100 {
		t.Errorf("avg alive: got %v, want 100", s.AvgAlive)
	}
	// 100 agents per 1ms of agent phase
	if !approx(s.AgentStepsPerSecond, 100000) {
		t.Errorf("agent steps/sec: got %v, want 100000", s.AgentStepsPerSecond)
	}
	if !approx(s.PhasePct[PhaseAgents], 50) || !approx(s.PhasePct[PhaseAggregate], 50) {
		t.Errorf("phase pct: got %v", s.PhasePct)
	}
	if s.Generations != 0 {
		t.Errorf("generations: got %d, want 0", s.Generations)
	}
}

func TestPerfRollingWindow(t *testing.T) {
	pc, clk := newTestPerf(3)
	for i := 1; i <= 5; i++ {
		tick(pc, clk, 10*i, time.Duration(i)*time.Millisecond, 0)
	}

	// Only the last three ticks remain
	s := pc.Stats()
	if s.AvgAlive != 40 {
		t.Errorf("avg alive: got %v, want 40", s.AvgAlive)
	}
	if s.AvgTick != 4*time.Millisecond || s.MaxTick != 5*time.Millisecond {
		t.Errorf("avg/max tick: got %v/%v, want 4ms/5ms", s.AvgTick, s.MaxTick)
	}
}

func TestPerfGenerationCost(t *testing.T) {
	pc, clk := newTestPerf(10)

	tick(pc, clk, 10, 2*time.Millisecond, 0)

	// Boundary tick: the last agent dies and the cohort evolves
	pc.StartTick(1)
	pc.StartPhase(PhaseAgents)
	clk.advance(time.Millisecond)
	pc.StartPhase(PhaseEvolve)
	clk.advance(5 * time.Millisecond)
	pc.StartPhase(PhaseTerrain)
	clk.advance(time.Millisecond)
	pc.EndGeneration(2, 10)
	pc.StartPhase(PhaseTelemetry)
	pc.EndTick()

	s := pc.Stats()
	if s.Generations != 1 || s.AvgGenerationTicks != 2 {
		t.Fatalf("generations/avg ticks: got %d/%v, want 1/2", s.Generations, s.AvgGenerationTicks)
	}
	if s.AvgGenerationWall != 9*time.Millisecond {
		t.Errorf("generation wall: got %v, want 9ms", s.AvgGenerationWall)
	}
	if s.EvolvePerAgent != 500*time.Microsecond {
		t.Errorf("evolve per agent: got %v, want 500µs", s.EvolvePerAgent)
	}

	// The next generation is timed from the boundary
	tick(pc, clk, 10, 3*time.Millisecond, 0)
	pc.EndGeneration(1, 10)
	if got := pc.Stats().AvgGenerationWall; got != 6*time.Millisecond {
		t.Errorf("avg generation wall after two: got %v, want 6ms", got)
	}
}

func TestPerfEmptyAndReset(t *testing.T) {
	pc, clk := newTestPerf(10)
	if s := pc.Stats(); s != (PerfStats{}) {
		t.Errorf("empty collector: got %+v, want zero stats", s)
	}

	tick(pc, clk, 5, time.Millisecond, 0)
	pc.EndGeneration(1, 5)
	pc.Reset()
	if s := pc.Stats(); s != (PerfStats{}) {
		t.Errorf("after reset: got %+v, want zero stats", s)
	}
}

func TestPerfLogValue(t *testing.T) {
	keys := func(s PerfStats) map[string]bool {
		m := make(map[string]bool)
		for _, a := range s.LogValue().Group() {
			m[a.Key] = true
		}
		return m
	}

	plain := keys(PerfStats{PhasePct: [numPhases]float64{PhaseAgents: 90, PhaseEvolve: 0.05}})
	if !plain["agents_pct"] || plain["evolve_pct"] {
		t.Errorf("phase keys: got %v, want agents_pct only", plain)
	}
	if plain["generations"] {
		t.Error("generation attrs should be omitted before the first boundary")
	}

	if !keys(PerfStats{Generations: 2})["evolve_per_agent_ns"] {
		t.Error("generation attrs missing once a boundary is recorded")
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	s := PerfStats{
		AvgTick:             250 * time.Microsecond,
		AgentStepsPerSecond: 1e6,
		PhasePct:            [numPhases]float64{PhaseAgents: 80, PhaseEvolve: 15},
		Generations:         3,
		AvgGenerationWall:   1500 * time.Millisecond,
		EvolvePerAgent:      2 * time.Microsecond,
	}

	row := s.ToCSV(600)
	if row.WindowEnd != 600 || row.AvgTickUS != 250 || row.AgentStepsPerSec != 1e6 {
		t.Errorf("window/tick/throughput: got %d/%d/%v", row.WindowEnd, row.AvgTickUS, row.AgentStepsPerSec)
	}
	if row.AgentsPct != 80 || row.EvolvePct != 15 || row.TerrainPct != 0 {
		t.Errorf("phase columns: got %v/%v/%v, want 80/15/0", row.AgentsPct, row.EvolvePct, row.TerrainPct)
	}
	if row.Generations != 3 || row.AvgGenMS != 1500 || row.EvolvePerAgentNS != 2000 {
		t.Errorf("generation columns: got %d/%d/%d", row.Generations, row.AvgGenMS, row.EvolvePerAgentNS)
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseTerrain.String() != "terrain" || Phase(99).String() != "unknown" {
		t.Errorf("got %q, %q", PhaseTerrain.String(), Phase(99).String())
	}
}
