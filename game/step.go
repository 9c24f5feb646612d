package game

import (
	"github.com/pthm-cable/hillclimb/telemetry"
	"github.com/pthm-cable/hillclimb/vehicle"
)

// Step advances the simulation by one fixed timestep, ignoring pause.
func (g *Game) Step() {
	if g.mode == ModeHumanPlay {
		g.stepHuman()
		return
	}
	g.stepTraining()
}

// stepTraining runs one tick over the whole cohort and evolves it once every agent has stopped.
func (g *Game) stepTraining() {
	agents := g.pop.Agents()
	g.wasAlive = g.wasAlive[:0]
	for _, a := range agents {
		g.wasAlive = append(g.wasAlive, a.Vehicle.Alive())
	}
	g.perf.StartTick(g.aliveCount)

	// 1. Sense, think, act and integrate every live agent
	g.perf.StartPhase(telemetry.PhaseAgents)
	if g.parallel != nil && len(agents) >= parallelThreshold {
		g.stepAgentsParallel(len(agents))
	} else {
		g.stepAgents(0, len(agents))
	}

	// 2. Aggregate after every agent has finished
	g.perf.StartPhase(telemetry.PhaseAggregate)
	g.aggregate()

	g.tick++

	// 3. Generation boundary
	if g.aliveCount == 0 {
		g.endGeneration()
	}

	g.perf.EndTick()
	g.maybeReportPerf()
}

// stepAgents advances agents [i0, i1). Each agent touches only its own
// vehicle, brain and input buffer; the terrain is read-only.
func (g *Game) stepAgents(i0, i1 int) {
	dt := g.cfg.Physics.DT
	agents := g.pop.Agents()

	for _, a := range agents[i0:i1] {
		v := a.Vehicle
		if !v.Alive() {
			continue
		}

		reading := g.sensors.Sense(v, g.terrain)
		a.LastInputs = g.sensors.AppendTo(a.LastInputs[:0], reading)

		out := a.Brain.Forward(a.LastInputs)
		v.ApplyControls(vehicle.ControlsFromOutputs(out))

		g.engine.Integrate(v, dt)
		v.Update(dt)
	}
}

// aggregate refreshes the alive count and the best live score, and records new deaths.
func (g *Game) aggregate() {
	alive := 0
	best := 0.0
	for i, a := range g.pop.Agents() {
		v := a.Vehicle
		if !v.Alive() {
			if g.wasAlive[i] {
				g.collector.RecordDeath(v.Cause)
				g.bestScore = max(g.bestScore, v.Score)
			}
			continue
		}
		alive++
		best = max(best, v.Score)
	}
	g.aliveCount = alive
	g.currentBestScore = best
	g.bestScore = max(g.bestScore, best)
}

// stepHuman runs one tick of player-controlled driving. The run ends when the vehicle dies.
func (g *Game) stepHuman() {
	if g.over {
		return
	}
	g.perf.StartTick(1)
	g.perf.StartPhase(telemetry.PhaseAgents)

	dt := g.cfg.Physics.DT
	v := g.player
	v.ApplyHumanControls(g.input.Poll())
	g.engine.Integrate(v, dt)
	v.Update(dt)
	g.tick++

	g.perf.StartPhase(telemetry.PhaseAggregate)
	g.currentBestScore = v.Score
	g.bestScore = max(g.bestScore, v.Score)
	if !v.Alive() {
		g.currentBestScore = 0
		g.aliveCount = 0
		g.over = true
		g.collector.RecordDeath(v.Cause)
	}

	g.perf.EndTick()
	g.maybeReportPerf()
}
