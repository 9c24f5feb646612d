// Package neural provides the layered feedforward networks that drive vehicles.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Parameter bounds enforced after mutation.
const (
	MinParam = -2.0
	MaxParam = 2.0
)

var (
	// ErrInvalidTopology is returned when a layer has fewer than one neuron.
	ErrInvalidTopology = errors.New("invalid network topology")
	// ErrTopologyMismatch is returned when two networks with different layer sizes are combined.
	ErrTopologyMismatch = errors.New("network topology mismatch")
)

// Network is a fully connected sigmoid network.
// weights[l][n] holds neuron n's incoming weights for transition l.
type Network struct {
	sizes   []int
	weights [][][]float64
	biases  [][]float64
}

// New creates a network with every weight and bias uniform in (-1, 1).
func New(rng *rand.Rand, inputSize int, hidden []int, outputSize int) (*Network, error) {
	sizes := make([]int, 0, len(hidden)+2)
	sizes = append(sizes, inputSize)
	sizes = append(sizes, hidden...)
	sizes = append(sizes, outputSize)

	for i, s := range sizes {
		if s < 1 {
			return nil, fmt.Errorf("layer %d has %d neurons: %w", i, s, ErrInvalidTopology)
		}
	}

	nn := allocate(sizes)
	for l := range nn.weights {
		for n := range nn.weights[l] {
			for p := range nn.weights[l][n] {
				nn.weights[l][n][p] = randomParam(rng)
			}
			nn.biases[l][n] = randomParam(rng)
		}
	}
	return nn, nil
}

func allocate(sizes []int) *Network {
	nn := &Network{
		sizes:   slices.Clone(sizes),
		weights: make([][][]float64, len(sizes)-1),
		biases:  make([][]float64, len(sizes)-1),
	}
	for l := 0; l < len(sizes)-1; l++ {
		nn.weights[l] = make([][]float64, sizes[l+1])
		for n := range nn.weights[l] {
			nn.weights[l][n] = make([]float64, sizes[l])
		}
		nn.biases[l] = make([]float64, sizes[l+1])
	}
	return nn
}

func randomParam(rng *rand.Rand) float64 {
	return (rng.Float64() - 0.5) * 2
}

// Sizes returns a copy of the layer sizes, input first.
func (nn *Network) Sizes() []int { return slices.Clone(nn.sizes) }

// InputSize returns the expected input vector length.
func (nn *Network) InputSize() int { return nn.sizes[0] }

// OutputSize returns the output vector length.
func (nn *Network) OutputSize() int { return nn.sizes[len(nn.sizes)-1] }

// NumParams returns the total number of weights and biases.
func (nn *Network) NumParams() int {
	total := 0
	for l := 0; l < len(nn.sizes)-1; l++ {
		total += nn.sizes[l+1] * (nn.sizes[l] + 1)
	}
	return total
}

// Forward computes the output layer. Every value lies in (0, 1).
// Panics if len(inputs) != InputSize().
func (nn *Network) Forward(inputs []float64) []float64 {
	nn.checkInputs(inputs)

	layer := inputs
	for l := range nn.weights {
		layer = nn.propagate(l, layer)
	}
	return layer
}

// Activations holds captured layer values, input layer first.
type Activations struct {
	Layers [][]float64
}

// Inputs returns the captured input layer.
func (a *Activations) Inputs() []float64 { return a.Layers[0] }

// Outputs returns the captured output layer.
func (a *Activations) Outputs() []float64 { return a.Layers[len(a.Layers)-1] }

// ForwardWithCapture computes the network output and captures all layer activations.
// Outputs are identical to Forward.
func (nn *Network) ForwardWithCapture(inputs []float64) ([]float64, *Activations) {
	nn.checkInputs(inputs)

	act := &Activations{Layers: make([][]float64, 0, len(nn.sizes))}
	act.Layers = append(act.Layers, slices.Clone(inputs))

	layer := inputs
	for l := range nn.weights {
		layer = nn.propagate(l, layer)
		act.Layers = append(act.Layers, layer)
	}
	return slices.Clone(layer), act
}

func (nn *Network) checkInputs(inputs []float64) {
	if len(inputs) != nn.sizes[0] {
		panic(fmt.Sprintf("neural: input vector has %d values, network expects %d", len(inputs), nn.sizes[0]))
	}
}

func (nn *Network) propagate(l int, in []float64) []float64 {
	out := make([]float64, len(nn.weights[l]))
	for n, w := range nn.weights[l] {
		out[n] = sigmoid(nn.biases[l][n] + floats.Dot(w, in))
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Mutate perturbs each parameter with probability rate by a uniform offset in
// [-strength/2, strength/2), then clamps it to [MinParam, MaxParam].
// Untouched parameters are left exactly as they were.
func (nn *Network) Mutate(rng *rand.Rand, rate, strength float64) {
	mutate := func(v *float64) {
		if rng.Float64() < rate {
			*v += (rng.Float64() - 0.5) * strength
			*v = max(MinParam, min(MaxParam, *v))
		}
	}

	for l := range nn.weights {
		for n := range nn.weights[l] {
			for p := range nn.weights[l][n] {
				mutate(&nn.weights[l][n][p])
			}
		}
	}
	for l := range nn.biases {
		for n := range nn.biases[l] {
			mutate(&nn.biases[l][n])
		}
	}
}

// Crossover returns a child that takes each parameter from nn or other with equal probability.
func (nn *Network) Crossover(rng *rand.Rand, other *Network) (*Network, error) {
	if !slices.Equal(nn.sizes, other.sizes) {
		return nil, fmt.Errorf("crossover %v with %v: %w", nn.sizes, other.sizes, ErrTopologyMismatch)
	}

	pick := func(a, b float64) float64 {
		if rng.Float64() < 0.5 {
			return a
		}
		return b
	}

	child := allocate(nn.sizes)
	for l := range child.weights {
		for n := range child.weights[l] {
			for p := range child.weights[l][n] {
				child.weights[l][n][p] = pick(nn.weights[l][n][p], other.weights[l][n][p])
			}
		}
	}
	for l := range child.biases {
		for n := range child.biases[l] {
			child.biases[l][n] = pick(nn.biases[l][n], other.biases[l][n])
		}
	}
	return child, nil
}

// Clone creates a deep copy of the network.
func (nn *Network) Clone() *Network {
	clone := allocate(nn.sizes)
	for l := range nn.weights {
		for n := range nn.weights[l] {
			copy(clone.weights[l][n], nn.weights[l][n])
		}
		copy(clone.biases[l], nn.biases[l])
	}
	return clone
}

// Params returns every weight followed by every bias, layer by layer.
func (nn *Network) Params() []float64 {
	out := make([]float64, 0, nn.NumParams())
	for l := range nn.weights {
		for n := range nn.weights[l] {
			out = append(out, nn.weights[l][n]...)
		}
	}
	for l := range nn.biases {
		out = append(out, nn.biases[l]...)
	}
	return out
}
