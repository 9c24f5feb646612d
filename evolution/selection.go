package evolution

import (
	"fmt"

	"github.com/pthm-cable/hillclimb/neural"
)

// selectParent runs a tournament over the ranked previous cohort.
// Contestants are drawn uniformly with replacement; on equal fitness the
// first contestant drawn wins.
func (pop *Population) selectParent(ranked []*Agent) *Agent {
	best := ranked[pop.rng.Intn(len(ranked))]
	for i := 1; i < pop.params.TournamentSize; i++ {
		c := ranked[pop.rng.Intn(len(ranked))]
		if c.Vehicle.Fitness > best.Vehicle.Fitness {
			best = c
		}
	}
	return best
}

// breed produces one mutated crossover child from two tournament winners.
func (pop *Population) breed(ranked []*Agent) *neural.Network {
	p1 := pop.selectParent(ranked)
	p2 := pop.selectParent(ranked)

	child, err := p1.Brain.Crossover(pop.rng, p2.Brain)
	if err != nil {
		// Every brain in a population shares one topology.
		panic(fmt.Sprintf("evolution: %v", err))
	}
	child.Mutate(pop.rng, pop.params.MutationRate, pop.params.MutationStrength)
	return child
}
