// Package vehicle simulates a single hill-climb vehicle.
package vehicle

import (
	"math"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/physics"
)

// State is the coarse lifecycle state. Flipped is a sub-state of alive.
type State uint8

const (
	StateAlive State = iota
	StateFlipped
	StateDead
)

func (s State) String() string {
	switch s {
	case StateAlive:
		return "alive"
	case StateFlipped:
		return "flipped"
	case StateDead:
		return "dead"
	}
	return "unknown"
}

// DeathCause records why a vehicle stopped.
type DeathCause uint8

const (
	CauseNone DeathCause = iota
	CauseFell
	CauseTimeout
	CauseFuel
	CauseFlipped
)

func (c DeathCause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseFell:
		return "fell"
	case CauseTimeout:
		return "timeout"
	case CauseFuel:
		return "fuel"
	case CauseFlipped:
		return "flipped"
	}
	return "unknown"
}

// Flip band: within ~36 degrees of upside down.
const (
	flipBandLow  = 0.7 * math.Pi
	flipBandHigh = 1.3 * math.Pi
)

// wheelSpin converts horizontal speed into wheel rotation per second.
const wheelSpin = 0.1

// Params holds vehicle dynamics and lifetime limits.
type Params struct {
	MaxSpeed           float64
	Acceleration       float64
	BrakeFactor        float64
	Torque             float64
	NominalDT          float64
	MaxFuel            float64
	AccelerateFuelCost float64
	FuelDrainRate      float64
	FuelDrainSpeed     float64
	DistanceScale      float64
	FallLimitY         float64
	TimeLimit          float64
	FlipLimit          float64
}

// ParamsFromConfig maps the vehicle config section to Params.
func ParamsFromConfig(c config.VehicleConfig) Params {
	return Params{
		MaxSpeed:           c.MaxSpeed,
		Acceleration:       c.Acceleration,
		BrakeFactor:        c.BrakeFactor,
		Torque:             c.Torque,
		NominalDT:          c.NominalDT,
		MaxFuel:            c.MaxFuel,
		AccelerateFuelCost: c.AccelerateFuelCost,
		FuelDrainRate:      c.FuelDrainRate,
		FuelDrainSpeed:     c.FuelDrainSpeed,
		DistanceScale:      c.DistanceScale,
		FallLimitY:         c.FallLimitY,
		TimeLimit:          c.TimeLimit,
		FlipLimit:          c.FlipLimit,
	}
}

// Wheel is a wheel mount relative to the body centre, kept for rendering.
type Wheel struct {
	OffsetX, OffsetY float64
	Rotation         float64
}

// Vehicle is one agent's body. It owns its kinematic state.
type Vehicle struct {
	physics.Kinematics

	Params Params

	Fuel      float64
	Dead      bool
	Cause     DeathCause
	Flipped   bool
	FlipTime  float64
	Score     float64 // best x / DistanceScale so far, never decreases
	Fitness   float64 // assigned at generation end
	TimeAlive float64

	Wheels [2]Wheel
}

// New creates a vehicle at (x, y) with a full tank.
func New(x, y float64, p Params) *Vehicle {
	return &Vehicle{
		Kinematics: physics.Kinematics{Position: physics.Vec2{X: x, Y: y}},
		Params:     p,
		Fuel:       p.MaxFuel,
		Wheels: [2]Wheel{
			{OffsetX: -15, OffsetY: 10},
			{OffsetX: 15, OffsetY: 10},
		},
	}
}

// Mass implements physics.Body.
func (v *Vehicle) Mass() float64 { return 1 }

// Static implements physics.Body.
func (v *Vehicle) Static() bool { return false }

// Motion implements physics.Body.
func (v *Vehicle) Motion() *physics.Kinematics { return &v.Kinematics }

// State reports the lifecycle state.
func (v *Vehicle) State() State {
	switch {
	case v.Dead:
		return StateDead
	case v.Flipped:
		return StateFlipped
	}
	return StateAlive
}

// Alive reports whether the vehicle still receives sensing and controls.
func (v *Vehicle) Alive() bool {
	return !v.Dead
}

// NormalizedAngle returns the body angle wrapped into [0, 2π).
func (v *Vehicle) NormalizedAngle() float64 {
	a := math.Mod(v.Angle, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// Update advances lifetime bookkeeping after integration. No-op once dead.
func (v *Vehicle) Update(dt float64) {
	if v.Dead {
		return
	}

	v.TimeAlive += dt
	v.Score = max(v.Score, v.Position.X/v.Params.DistanceScale)

	a := v.NormalizedAngle()
	v.Flipped = a > flipBandLow && a < flipBandHigh

	switch {
	case v.Position.Y > v.Params.FallLimitY:
		v.die(CauseFell)
		return
	case v.TimeAlive > v.Params.TimeLimit:
		v.die(CauseTimeout)
		return
	case v.Fuel <= 0:
		v.die(CauseFuel)
		return
	}

	if v.Flipped {
		v.FlipTime += dt
		if v.FlipTime > v.Params.FlipLimit {
			v.die(CauseFlipped)
			return
		}
	} else {
		v.FlipTime = 0
	}

	for i := range v.Wheels {
		v.Wheels[i].Rotation += v.Velocity.X * dt * wheelSpin
	}

	if math.Abs(v.Velocity.X) > v.Params.FuelDrainSpeed {
		v.Fuel = max(0, v.Fuel-dt*v.Params.FuelDrainRate)
	}
}

func (v *Vehicle) die(c DeathCause) {
	v.Dead = true
	v.Cause = c
}

// ApplyControls applies network actuation. No-op once dead.
func (v *Vehicle) ApplyControls(c Controls) {
	if v.Dead {
		return
	}

	if c.Accelerate > activateThreshold {
		v.accelerate()
	}
	if c.Brake > activateThreshold {
		v.brake()
	}

	// [leanLow, leanHigh] is a neutral dead band.
	switch {
	case c.Lean > leanHigh:
		v.AngularVelocity += v.Params.Torque * v.Params.NominalDT
	case c.Lean < leanLow:
		v.AngularVelocity -= v.Params.Torque * v.Params.NominalDT
	}

	v.limitSpeed()
}

// ApplyHumanControls applies captured directional input. No-op once dead.
func (v *Vehicle) ApplyHumanControls(in HumanInput) {
	if v.Dead {
		return
	}

	if in.Accelerate {
		v.accelerate()
	}
	if in.Brake {
		v.brake()
	}
	if in.Lean != 0 {
		v.AngularVelocity += float64(in.Lean) * v.Params.Torque * v.Params.NominalDT
	}

	v.limitSpeed()
}

func (v *Vehicle) accelerate() {
	v.Velocity.X += v.Params.Acceleration * v.Params.NominalDT
	v.Fuel = max(0, v.Fuel-v.Params.AccelerateFuelCost)
}

func (v *Vehicle) brake() {
	v.Velocity.X *= v.Params.BrakeFactor
}

func (v *Vehicle) limitSpeed() {
	v.Velocity.X = max(-v.Params.MaxSpeed, min(v.Params.MaxSpeed, v.Velocity.X))
}

// WheelPositions returns wheel centres in world space.
func (v *Vehicle) WheelPositions() [2]physics.Vec2 {
	cos, sin := math.Cos(v.Angle), math.Sin(v.Angle)
	var out [2]physics.Vec2
	for i, w := range v.Wheels {
		out[i] = physics.Vec2{
			X: v.Position.X + w.OffsetX*cos - w.OffsetY*sin,
			Y: v.Position.Y + w.OffsetX*sin + w.OffsetY*cos,
		}
	}
	return out
}
