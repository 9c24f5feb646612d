package game

import (
	"github.com/pthm-cable/hillclimb/telemetry"
	"github.com/pthm-cable/hillclimb/terrain"
)

// endGeneration evolves the finished cohort, regenerates the terrain and publishes the summary.
func (g *Game) endGeneration() {
	g.perf.StartPhase(telemetry.PhaseEvolve)
	res := g.pop.Evolve()

	// Every generation drives a fresh course
	g.perf.StartPhase(telemetry.PhaseTerrain)
	g.terrain = terrain.Generate(g.rng, g.terrainParams)
	g.perf.EndGeneration(g.tick-g.genStartTick, len(res.Fitness))
	g.genStartTick = g.tick

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	stats := g.collector.Flush(g.tick, res)
	g.publishGeneration(stats)

	g.aliveCount = g.pop.AliveCount()
	g.currentBestScore = 0
}
