package game

import (
	"slices"

	"github.com/pthm-cable/hillclimb/neural"
	"github.com/pthm-cable/hillclimb/terrain"
	"github.com/pthm-cable/hillclimb/vehicle"
)

// AgentView is the render state of one live vehicle.
type AgentView struct {
	X, Y          float64
	Angle         float64
	Score         float64
	Fuel          float64
	WheelRotation [2]float64
}

// NetworkView shows the best agent's brain. Activations are empty until
// the agent has sensed at least once.
type NetworkView struct {
	Sizes       []int
	Activations [][]float64 // input layer first
}

// View is everything a renderer needs for one frame.
type View struct {
	Terrain   []terrain.Point
	Agents    []AgentView
	BestIndex int // index into Agents, -1 when nobody is alive
	Network   NetworkView

	// Champion is the best network of any finished generation, fed the
	// best live agent's inputs. Empty until a generation has been evolved.
	Champion NetworkView
}

// View captures the current frame. It shares no memory with the game.
func (g *Game) View() View {
	view := View{
		Terrain:   slices.Clone(g.terrain.Points),
		BestIndex: -1,
	}

	if g.mode == ModeHumanPlay {
		if g.player.Alive() {
			view.Agents = append(view.Agents, agentView(g.player))
			view.BestIndex = 0
		}
		return view
	}

	best, ok := g.pop.BestAlive()
	for _, a := range g.pop.Agents() {
		if !a.Vehicle.Alive() {
			continue
		}
		if ok && a == best {
			view.BestIndex = len(view.Agents)
		}
		view.Agents = append(view.Agents, agentView(a.Vehicle))
	}

	if ok {
		view.Network = networkView(best.Brain, best.LastInputs)
		if champ := g.pop.Champion(); champ != nil {
			view.Champion = networkView(champ, best.LastInputs)
		}
	}
	return view
}

func networkView(nn *neural.Network, inputs []float64) NetworkView {
	nv := NetworkView{Sizes: nn.Sizes()}
	if len(inputs) == nn.InputSize() {
		_, act := nn.ForwardWithCapture(inputs)
		nv.Activations = act.Layers
	}
	return nv
}

func agentView(v *vehicle.Vehicle) AgentView {
	return AgentView{
		X:             v.Position.X,
		Y:             v.Position.Y,
		Angle:         v.Angle,
		Score:         v.Score,
		Fuel:          v.Fuel,
		WheelRotation: [2]float64{v.Wheels[0].Rotation, v.Wheels[1].Rotation},
	}
}
