package telemetry

import (
	"context"
	"log/slog"
	"time"
)

// Phase is one timed section of a simulation tick.
type Phase int

const (
	PhaseAgents    Phase = iota // sense, think, act and integrate every live agent
	PhaseAggregate              // alive count, scores, deaths
	PhaseEvolve                 // selection and reproduction at a generation boundary
	PhaseTerrain                // fresh course for the next generation
	PhaseTelemetry              // generation stats, hooks, bookmarks
	numPhases
)

var phaseNames = [numPhases]string{"agents", "aggregate", "evolve", "terrain", "telemetry"}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// generationWindow is how many finished generations Stats averages over.
const generationWindow = 16

type tickSample struct {
	total   time.Duration
	phases  [numPhases]time.Duration
	stepped int // live agents when the tick began
}

type generationSample struct {
	ticks  int64
	cohort int
	evolve time.Duration
	wall   time.Duration
}

// ring keeps the newest len(buf) values. Order is not preserved.
type ring[T any] struct {
	buf  []T
	next int
	n    int
}

func newRing[T any](size int) ring[T] {
	return ring[T]{buf: make([]T, size)}
}

func (r *ring[T]) push(v T) {
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
}

func (r *ring[T]) values() []T { return r.buf[:r.n] }

func (r *ring[T]) reset() {
	clear(r.buf)
	r.next, r.n = 0, 0
}

// PerfCollector times training ticks and generation boundaries.
// Ticks are averaged over a rolling window; generations over the last
// generationWindow boundaries.
type PerfCollector struct {
	ticks ring[tickSample]
	gens  ring[generationSample]

	cur        tickSample
	phase      Phase
	inPhase    bool
	tickStart  time.Time
	phaseStart time.Time
	genStart   time.Time

	now func() time.Time
}

// NewPerfCollector creates a collector averaging over windowSize ticks (60 if < 1).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		ticks: newRing[tickSample](windowSize),
		gens:  newRing[generationSample](generationWindow),
		now:   time.Now,
	}
}

// Reset drops every sample and restarts the generation clock.
func (p *PerfCollector) Reset() {
	p.ticks.reset()
	p.gens.reset()
	p.inPhase = false
	p.genStart = time.Time{}
}

// StartTick begins timing a tick in which alive agents will be stepped.
func (p *PerfCollector) StartTick(alive int) {
	p.tickStart = p.now()
	if p.genStart.IsZero() {
		p.genStart = p.tickStart
	}
	p.cur = tickSample{stepped: alive}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := p.now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// EndGeneration records a boundary after a generation of ticks over cohort
// agents. Call it inside the boundary tick, once the evolve phase has closed.
func (p *PerfCollector) EndGeneration(ticks int64, cohort int) {
	now := p.now()
	p.gens.push(generationSample{
		ticks:  ticks,
		cohort: cohort,
		evolve: p.cur.phases[PhaseEvolve],
		wall:   now.Sub(p.genStart),
	})
	p.genStart = now
}

// EndTick closes the running phase and stores the tick.
func (p *PerfCollector) EndTick() {
	now := p.now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)
	p.ticks.push(p.cur)
}

// PerfStats summarizes the current windows.
type PerfStats struct {
	AvgTick        time.Duration
	MaxTick        time.Duration
	TicksPerSecond float64

	// Agent throughput, measured against agents-phase time only
	AvgAlive            float64
	AgentStepsPerSecond float64

	// Share of tick time, indexed by Phase
	PhasePct [numPhases]float64

	// Generation boundaries; zero until one has been recorded
	Generations        int
	AvgGenerationTicks float64
	AvgGenerationWall  time.Duration
	EvolvePerAgent     time.Duration
}

// Stats computes the window averages.
func (p *PerfCollector) Stats() PerfStats {
	var s PerfStats

	if ticks := p.ticks.values(); len(ticks) > 0 {
		var total time.Duration
		var phases [numPhases]time.Duration
		stepped := 0
		for _, t := range ticks {
			total += t.total
			s.MaxTick = max(s.MaxTick, t.total)
			for i, d := range t.phases {
				phases[i] += d
			}
			stepped += t.stepped
		}

		n := len(ticks)
		s.AvgTick = total / time.Duration(n)
		s.AvgAlive = float64(stepped) / float64(n)
		if total > 0 {
			s.TicksPerSecond = float64(n) / total.Seconds()
			for i, d := range phases {
				s.PhasePct[i] = float64(d) / float64(total) * 100
			}
		}
		if agents := phases[PhaseAgents]; agents > 0 {
			s.AgentStepsPerSecond = float64(stepped) / agents.Seconds()
		}
	}

	if gens := p.gens.values(); len(gens) > 0 {
		var ticks int64
		var wall, evolve time.Duration
		cohort := 0
		for _, g := range gens {
			ticks += g.ticks
			wall += g.wall
			evolve += g.evolve
			cohort += g.cohort
		}

		s.Generations = len(gens)
		s.AvgGenerationTicks = float64(ticks) / float64(len(gens))
		s.AvgGenerationWall = wall / time.Duration(len(gens))
		if cohort > 0 {
			s.EvolvePerAgent = evolve / time.Duration(cohort)
		}
	}

	return s
}

func (s PerfStats) attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
		slog.Float64("avg_alive", s.AvgAlive),
		slog.Int("agent_steps_per_sec", int(s.AgentStepsPerSecond)),
	}
	for i, pct := range s.PhasePct {
		if pct > 0.1 {
			attrs = append(attrs, slog.Float64(Phase(i).String()+"_pct", float64(int(pct*10))/10))
		}
	}
	if s.Generations > 0 {
		attrs = append(attrs,
			slog.Int("generations", s.Generations),
			slog.Float64("avg_gen_ticks", s.AvgGenerationTicks),
			slog.Int64("avg_gen_ms", s.AvgGenerationWall.Milliseconds()),
			slog.Int64("evolve_per_agent_ns", s.EvolvePerAgent.Nanoseconds()),
		)
	}
	return attrs
}

// LogStats logs the window at info level.
func (s PerfStats) LogStats() {
	slog.LogAttrs(context.Background(), slog.LevelInfo, "perf", s.attrs()...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	return slog.GroupValue(s.attrs()...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd        int64   `csv:"window_end"`
	AvgTickUS        int64   `csv:"avg_tick_us"`
	MaxTickUS        int64   `csv:"max_tick_us"`
	TicksPerSec      float64 `csv:"ticks_per_sec"`
	AvgAlive         float64 `csv:"avg_alive"`
	AgentStepsPerSec float64 `csv:"agent_steps_per_sec"`
	AgentsPct        float64 `csv:"agents_pct"`
	AggregatePct     float64 `csv:"aggregate_pct"`
	EvolvePct        float64 `csv:"evolve_pct"`
	TerrainPct       float64 `csv:"terrain_pct"`
	TelemetryPct     float64 `csv:"telemetry_pct"`
	Generations      int     `csv:"generations"`
	AvgGenTicks      float64 `csv:"avg_gen_ticks"`
	AvgGenMS         int64   `csv:"avg_gen_ms"`
	EvolvePerAgentNS int64   `csv:"evolve_per_agent_ns"`
}

// ToCSV flattens the stats for the window ending at tick windowEnd.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:        windowEnd,
		AvgTickUS:        s.AvgTick.Microseconds(),
		MaxTickUS:        s.MaxTick.Microseconds(),
		TicksPerSec:      s.TicksPerSecond,
		AvgAlive:         s.AvgAlive,
		AgentStepsPerSec: s.AgentStepsPerSecond,
		AgentsPct:        s.PhasePct[PhaseAgents],
		AggregatePct:     s.PhasePct[PhaseAggregate],
		EvolvePct:        s.PhasePct[PhaseEvolve],
		TerrainPct:       s.PhasePct[PhaseTerrain],
		TelemetryPct:     s.PhasePct[PhaseTelemetry],
		Generations:      s.Generations,
		AvgGenTicks:      s.AvgGenerationTicks,
		AvgGenMS:         s.AvgGenerationWall.Milliseconds(),
		EvolvePerAgentNS: s.EvolvePerAgent.Nanoseconds(),
	}
}
