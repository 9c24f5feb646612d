// Package evolution runs the generational genetic algorithm over vehicle controllers.
package evolution

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/neural"
	"github.com/pthm-cable/hillclimb/vehicle"
)

var (
	// ErrInvalidPopulationSize is returned when the requested cohort is empty.
	ErrInvalidPopulationSize = errors.New("population size must be a positive integer")
	// ErrInvalidParams is returned for any other out-of-range population parameter.
	ErrInvalidParams = errors.New("invalid population parameters")
)

// Fitness shaping.
const (
	survivalBonus  = 0.1 // fitness per second alive
	flipPenalty    = 0.5 // multiplier when the vehicle ended flipped
	minimumFitness = 0.1
)

// Agent pairs a vehicle with the network that drives it.
type Agent struct {
	Vehicle *vehicle.Vehicle
	Brain   *neural.Network

	// LastInputs is the most recent sensor vector fed to Brain.
	LastInputs []float64
}

// Params configures a Population.
type Params struct {
	Size           int
	InputSize      int
	Hidden         []int
	OutputSize     int
	EliteFraction  float64
	TournamentSize int

	MutationRate     float64
	MutationStrength float64

	SpawnX, SpawnY float64
	Vehicle        vehicle.Params
}

// ParamsFromConfig builds population parameters from a loaded config.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		Size:             cfg.Population.Size,
		InputSize:        cfg.Derived.NumInputs,
		Hidden:           slices.Clone(cfg.Neural.HiddenLayers),
		OutputSize:       cfg.Neural.NumOutputs,
		EliteFraction:    cfg.Population.EliteFraction,
		TournamentSize:   cfg.Population.TournamentSize,
		MutationRate:     cfg.Mutation.Rate,
		MutationStrength: cfg.Mutation.Strength,
		SpawnX:           cfg.Vehicle.SpawnX,
		SpawnY:           cfg.Vehicle.SpawnY,
		Vehicle:          vehicle.ParamsFromConfig(cfg.Vehicle),
	}
}

func (p Params) validate() error {
	switch {
	case p.Size < 1:
		return fmt.Errorf("%w: got %d", ErrInvalidPopulationSize, p.Size)
	case p.TournamentSize < 1:
		return fmt.Errorf("%w: tournament size %d", ErrInvalidParams, p.TournamentSize)
	case p.EliteFraction < 0 || p.EliteFraction > 1:
		return fmt.Errorf("%w: elite fraction %g", ErrInvalidParams, p.EliteFraction)
	case p.MutationRate < 0 || p.MutationRate > 1:
		return fmt.Errorf("%w: mutation rate %g", ErrInvalidParams, p.MutationRate)
	}
	return nil
}

// Population is a fixed-size cohort of agents.
// The cohort is replaced wholesale by Evolve and always holds Size agents.
type Population struct {
	params Params
	rng    *rand.Rand

	agents      []*Agent
	generation  int
	bestFitness float64

	champion        *neural.Network
	championFitness float64
}

// New creates generation 1 with freshly randomized networks.
func New(rng *rand.Rand, p Params) (*Population, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	pop := &Population{
		params:     p,
		rng:        rng,
		agents:     make([]*Agent, 0, p.Size),
		generation: 1,
	}
	for i := 0; i < p.Size; i++ {
		brain, err := neural.New(rng, p.InputSize, p.Hidden, p.OutputSize)
		if err != nil {
			return nil, fmt.Errorf("creating agent %d: %w", i, err)
		}
		pop.agents = append(pop.agents, pop.spawn(brain))
	}
	return pop, nil
}

func (pop *Population) spawn(brain *neural.Network) *Agent {
	return &Agent{
		Vehicle: vehicle.New(pop.params.SpawnX, pop.params.SpawnY, pop.params.Vehicle),
		Brain:   brain,
	}
}

// Agents returns the current cohort. The slice is replaced, not mutated, by Evolve.
func (pop *Population) Agents() []*Agent { return pop.agents }

// Size returns the fixed cohort size.
func (pop *Population) Size() int { return pop.params.Size }

// Generation returns the current generation number, starting at 1.
func (pop *Population) Generation() int { return pop.generation }

// BestFitness returns the highest fitness ever recorded. Never decreases.
func (pop *Population) BestFitness() float64 { return pop.bestFitness }

// SpeciesCount always returns 0. Speciation is not implemented.
func (pop *Population) SpeciesCount() int { return 0 }

// Champion returns a copy of the best network seen so far, or nil before the first Evolve.
func (pop *Population) Champion() *neural.Network {
	if pop.champion == nil {
		return nil
	}
	return pop.champion.Clone()
}

// AliveCount returns the number of agents whose vehicle is still running.
func (pop *Population) AliveCount() int {
	n := 0
	for _, a := range pop.agents {
		if a.Vehicle.Alive() {
			n++
		}
	}
	return n
}

// BestAlive returns the living agent with the highest score.
func (pop *Population) BestAlive() (*Agent, bool) {
	var best *Agent
	for _, a := range pop.agents {
		if !a.Vehicle.Alive() {
			continue
		}
		if best == nil || a.Vehicle.Score > best.Vehicle.Score {
			best = a
		}
	}
	return best, best != nil
}

// AssignFitness computes, stores and returns the vehicle's fitness:
// score plus a survival bonus, halved if the vehicle is flipped, never below 0.1.
func AssignFitness(v *vehicle.Vehicle) float64 {
	f := v.Score + v.TimeAlive*survivalBonus
	if v.Flipped {
		f *= flipPenalty
	}
	v.Fitness = max(f, minimumFitness)
	return v.Fitness
}

// EliteCount returns how many top agents survive unchanged: floor(size*fraction).
func EliteCount(size int, fraction float64) int {
	return int(float64(size) * fraction)
}

// GenerationResult summarizes a completed generation.
type GenerationResult struct {
	Generation   int       // the generation that just ended
	Fitness      []float64 // descending
	Scores       []float64 // in the same order as Fitness
	EliteCount   int
	FlippedCount int
	BestFitness  float64 // all-time watermark after this generation
	NewChampion  bool
}

// Evolve scores the current cohort, then replaces it with elites and
// tournament-selected offspring and advances the generation counter.
func (pop *Population) Evolve() GenerationResult {
	prev := slices.Clone(pop.agents)

	res := GenerationResult{
		Generation: pop.generation,
		Fitness:    make([]float64, len(prev)),
		Scores:     make([]float64, len(prev)),
	}

	for _, a := range prev {
		AssignFitness(a.Vehicle)
		if a.Vehicle.Flipped {
			res.FlippedCount++
		}
	}

	slices.SortStableFunc(prev, func(a, b *Agent) int {
		switch {
		case a.Vehicle.Fitness > b.Vehicle.Fitness:
			return -1
		case a.Vehicle.Fitness < b.Vehicle.Fitness:
			return 1
		}
		return 0
	})
	for i, a := range prev {
		res.Fitness[i] = a.Vehicle.Fitness
		res.Scores[i] = a.Vehicle.Score
	}

	if top := prev[0].Vehicle.Fitness; top > pop.bestFitness {
		pop.bestFitness = top
	}
	if top := prev[0].Vehicle.Fitness; top > pop.championFitness {
		pop.champion = prev[0].Brain.Clone()
		pop.championFitness = top
		res.NewChampion = true
	}

	next := make([]*Agent, 0, pop.params.Size)

	res.EliteCount = EliteCount(pop.params.Size, pop.params.EliteFraction)
	for i := 0; i < res.EliteCount; i++ {
		next = append(next, pop.spawn(prev[i].Brain.Clone()))
	}

	for len(next) < pop.params.Size {
		next = append(next, pop.spawn(pop.breed(prev)))
	}

	pop.agents = next
	pop.generation++
	res.BestFitness = pop.bestFitness
	return res
}
