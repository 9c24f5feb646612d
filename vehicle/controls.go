package vehicle

import "fmt"

// NumControls is the control vector length: accelerate, brake, lean.
const NumControls = 3

// Control thresholds on sigmoid outputs.
const (
	activateThreshold = 0.5
	leanHigh          = 0.6
	leanLow           = 0.4
)

// Controls is the network's actuation command, each value in [0,1].
type Controls struct {
	Accelerate float64
	Brake      float64
	Lean       float64
}

// ControlsFromOutputs maps a network output vector onto named controls.
// Panics if the vector is not NumControls long.
func ControlsFromOutputs(out []float64) Controls {
	if len(out) != NumControls {
		panic(fmt.Sprintf("vehicle: control vector has %d values, want %d", len(out), NumControls))
	}
	return Controls{
		Accelerate: out[0],
		Brake:      out[1],
		Lean:       out[2],
	}
}

// HumanInput is one tick of captured player input. Lean is -1, 0 or 1.
type HumanInput struct {
	Accelerate bool
	Brake      bool
	Lean       int
}
