// Package game drives training and human play: it owns the terrain, the
// physics engine and either a population or a single player vehicle, and
// advances them one fixed timestep at a time.
package game

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/evolution"
	"github.com/pthm-cable/hillclimb/physics"
	"github.com/pthm-cable/hillclimb/sensors"
	"github.com/pthm-cable/hillclimb/telemetry"
	"github.com/pthm-cable/hillclimb/terrain"
	"github.com/pthm-cable/hillclimb/vehicle"
)

// Speed limits for SetSpeed.
const (
	MinSpeed = 1
	MaxSpeed = 10
)

// bookmarkHistory is the number of generations the bookmark detector compares against.
const bookmarkHistory = 10

// Mode selects who drives the vehicles.
type Mode uint8

const (
	ModeTraining Mode = iota
	ModeHumanPlay
)

func (m Mode) String() string {
	switch m {
	case ModeTraining:
		return "train"
	case ModeHumanPlay:
		return "play"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode maps a flag value onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "train", "training":
		return ModeTraining, nil
	case "play", "human":
		return ModeHumanPlay, nil
	}
	return 0, fmt.Errorf("unknown mode %q (want train or play)", s)
}

// Hooks are optional callbacks invoked from Step.
type Hooks struct {
	// OnGeneration runs after each generation has been evolved and summarized.
	OnGeneration func(stats telemetry.GenerationStats)

	// OnBookmark runs for every notable event the detector reports.
	OnBookmark func(b telemetry.Bookmark)

	// OnPerf runs every Telemetry.LogEveryTicks ticks with the rolling perf window.
	OnPerf func(stats telemetry.PerfStats, tick int64)
}

// Options configures New.
type Options struct {
	Config  *config.Config
	Seed    int64
	Mode    Mode
	Workers int         // values above 1 enable the parallel agent step
	Input   InputSource // required for ModeHumanPlay
	RunID   string
	Hooks   Hooks
}

// Game holds the complete training state.
type Game struct {
	cfg   *config.Config
	mode  Mode
	rng   *rand.Rand
	input InputSource
	hooks Hooks

	terrainParams terrain.Params
	sensors       sensors.Params
	popParams     evolution.Params
	vehicleParams vehicle.Params

	terrain *terrain.Terrain
	engine  *physics.Engine
	pop     *evolution.Population
	player  *vehicle.Vehicle

	// Telemetry
	collector *telemetry.Collector
	bookmarks *telemetry.BookmarkDetector
	perf      *telemetry.PerfCollector

	// Parallel agent step
	parallel *parallelState
	wasAlive []bool

	// State
	tick             int64
	genStartTick     int64 // tick the current generation began on
	paused           bool
	over             bool // human play ended
	speed            int  // ticks per Update (1-10)
	aliveCount       int
	currentBestScore float64
	bestScore        float64
}

// New validates the configuration and builds the first terrain and cohort.
func New(opts Options) (*Game, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("game: config is required")
	}
	cfg := opts.Config
	if err := cfg.Refresh(); err != nil {
		return nil, err
	}
	if opts.Mode == ModeHumanPlay && opts.Input == nil {
		return nil, fmt.Errorf("game: human play requires an input source")
	}

	g := &Game{
		cfg:           cfg,
		mode:          opts.Mode,
		rng:           rand.New(rand.NewSource(opts.Seed)),
		input:         opts.Input,
		hooks:         opts.Hooks,
		terrainParams: terrain.ParamsFromConfig(cfg.Terrain),
		sensors:       sensors.ParamsFromConfig(cfg.Sensors),
		popParams:     evolution.ParamsFromConfig(cfg),
		vehicleParams: vehicle.ParamsFromConfig(cfg.Vehicle),
		engine:        physics.NewEngine(cfg.Physics),
		collector:     telemetry.NewCollector(opts.RunID),
		bookmarks:     telemetry.NewBookmarkDetector(bookmarkHistory),
		perf:          telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		speed:         MinSpeed,
	}

	if n := g.sensors.InputSize(); n != g.popParams.InputSize {
		return nil, fmt.Errorf("game: sensors produce %d inputs, networks expect %d", n, g.popParams.InputSize)
	}

	if opts.Workers > 1 {
		g.parallel = newParallelState(opts.Workers)
	}

	if err := g.reset(); err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

// reset builds a fresh terrain and generation 1 (or a fresh player vehicle).
func (g *Game) reset() error {
	g.terrain = terrain.Generate(g.rng, g.terrainParams)
	g.tick = 0
	g.genStartTick = 0
	g.over = false
	g.currentBestScore = 0
	g.bestScore = 0

	if g.mode == ModeHumanPlay {
		g.player = vehicle.New(g.cfg.Vehicle.SpawnX, g.cfg.Vehicle.SpawnY, g.vehicleParams)
		g.aliveCount = 1
		return nil
	}

	pop, err := evolution.New(g.rng, g.popParams)
	if err != nil {
		return fmt.Errorf("creating population: %w", err)
	}
	g.pop = pop
	g.aliveCount = pop.AliveCount()
	return nil
}

// Restart discards the current population and starts again at generation 1 on new terrain.
func (g *Game) Restart() error {
	g.collector.Reset()
	g.perf.Reset()
	g.bookmarks = telemetry.NewBookmarkDetector(bookmarkHistory)
	return g.reset()
}

// Close stops the worker pool. The game must not be stepped afterwards.
func (g *Game) Close() {
	if g.parallel != nil {
		g.parallel.stopWorkers()
	}
}

// Update runs one frame: Speed ticks unless paused.
func (g *Game) Update() {
	if g.paused {
		return
	}
	for i := 0; i < g.speed; i++ {
		g.Step()
	}
}

// Pause stops Update from advancing the simulation.
func (g *Game) Pause() { g.paused = true }

// Resume undoes Pause.
func (g *Game) Resume() { g.paused = false }

// TogglePause flips the paused state.
func (g *Game) TogglePause() { g.paused = !g.paused }

// Paused reports whether Update is currently a no-op.
func (g *Game) Paused() bool { return g.paused }

// SetSpeed sets the ticks per Update, clamped to [MinSpeed, MaxSpeed].
func (g *Game) SetSpeed(n int) {
	g.speed = min(max(n, MinSpeed), MaxSpeed)
}

// Speed returns the ticks per Update.
func (g *Game) Speed() int { return g.speed }

// Tick returns the number of steps taken since the last restart.
func (g *Game) Tick() int64 { return g.tick }

// Mode returns who drives the vehicles.
func (g *Game) Mode() Mode { return g.mode }

// Generation returns the current generation, or 0 in human play.
func (g *Game) Generation() int {
	if g.pop == nil || g.mode == ModeHumanPlay {
		return 0
	}
	return g.pop.Generation()
}

// Over reports whether a human-play run has ended.
func (g *Game) Over() bool { return g.over }

// Population returns the training population, or nil in human play.
func (g *Game) Population() *evolution.Population {
	if g.mode == ModeHumanPlay {
		return nil
	}
	return g.pop
}

// Player returns the human-driven vehicle, or nil in training.
func (g *Game) Player() *vehicle.Vehicle {
	if g.mode != ModeHumanPlay {
		return nil
	}
	return g.player
}

// Terrain returns the current height field.
func (g *Game) Terrain() *terrain.Terrain { return g.terrain }

// Telemetry returns a summary of the current tick.
func (g *Game) Telemetry() telemetry.Snapshot {
	s := telemetry.Snapshot{
		Generation:       g.Generation(),
		Tick:             g.tick,
		CurrentBestScore: g.currentBestScore,
		BestScore:        g.bestScore,
		AliveCount:       g.aliveCount,
		Paused:           g.paused,
		Speed:            g.speed,
	}
	if g.mode == ModeTraining {
		s.BestFitness = g.pop.BestFitness()
		s.SpeciesCount = g.pop.SpeciesCount()
	}
	return s
}

// Perf returns the rolling performance window.
func (g *Game) Perf() telemetry.PerfStats { return g.perf.Stats() }
