// Package physics contains the shared rigid-body step used by every body in the world.
package physics

import (
	"slices"

	"github.com/pthm-cable/hillclimb/config"
)

// Vec2 is a 2D vector. Y grows downward.
type Vec2 struct {
	X, Y float64
}

// Kinematics is the mutable kinematic state of a body.
type Kinematics struct {
	Position        Vec2
	Velocity        Vec2
	Angle           float64 // radians
	AngularVelocity float64
	OnGround        bool
}

// Body is the narrow capability the integrator needs.
type Body interface {
	Mass() float64
	Static() bool
	Motion() *Kinematics
}

// Engine integrates bodies with gravity, damping and a flat ground plane.
// Collision uses GroundY only; the terrain height field does not affect collision.
type Engine struct {
	Gravity        float64
	LinearDamping  float64
	AngularDamping float64
	GroundY        float64
	Restitution    float64

	bodies []Body
}

// NewEngine creates an engine from the physics config section.
func NewEngine(c config.PhysicsConfig) *Engine {
	return &Engine{
		Gravity:        c.Gravity,
		LinearDamping:  c.LinearDamping,
		AngularDamping: c.AngularDamping,
		GroundY:        c.GroundY,
		Restitution:    c.Restitution,
	}
}

// Add registers a body for Update and returns it.
func (e *Engine) Add(b Body) Body {
	e.bodies = append(e.bodies, b)
	return b
}

// Remove unregisters a body. Unknown bodies are ignored.
func (e *Engine) Remove(b Body) {
	if i := slices.Index(e.bodies, b); i >= 0 {
		e.bodies = slices.Delete(e.bodies, i, i+1)
	}
}

// Bodies returns the registered bodies.
func (e *Engine) Bodies() []Body {
	return e.bodies
}

// Update integrates every registered body, then resolves ground contact.
func (e *Engine) Update(dt float64) {
	for _, b := range e.bodies {
		e.integrate(b, dt)
	}
	for _, b := range e.bodies {
		e.collide(b)
	}
}

// Integrate advances a single body by dt, including ground contact.
// Safe to call concurrently for distinct bodies.
func (e *Engine) Integrate(b Body, dt float64) {
	e.integrate(b, dt)
	e.collide(b)
}

func (e *Engine) integrate(b Body, dt float64) {
	if b.Static() {
		return
	}
	k := b.Motion()

	k.Velocity.Y += e.Gravity * dt

	k.Position.X += k.Velocity.X * dt
	k.Position.Y += k.Velocity.Y * dt

	k.Angle += k.AngularVelocity * dt

	k.Velocity.X *= e.LinearDamping
	k.Velocity.Y *= e.LinearDamping
	k.AngularVelocity *= e.AngularDamping
}

// collide applies to static and dynamic bodies alike.
func (e *Engine) collide(b Body) {
	k := b.Motion()
	if k.Position.Y > e.GroundY {
		k.Position.Y = e.GroundY
		k.Velocity.Y = min(0, k.Velocity.Y*-e.Restitution) // bounce
		k.OnGround = true
	} else {
		k.OnGround = false
	}
}

// RigidBodyOptions configures NewRigidBody. Zero Mass defaults to 1.
type RigidBodyOptions struct {
	Position        Vec2
	Velocity        Vec2
	Angle           float64
	AngularVelocity float64
	Mass            float64
	Static          bool
	Width, Height   float64
}

// RigidBody is a generic body for anything that is not a vehicle.
type RigidBody struct {
	State         Kinematics
	BodyMass      float64
	IsStatic      bool
	Width, Height float64
}

// NewRigidBody creates a generic body. Width and Height default to 20.
func NewRigidBody(opts RigidBodyOptions) *RigidBody {
	rb := &RigidBody{
		State: Kinematics{
			Position:        opts.Position,
			Velocity:        opts.Velocity,
			Angle:           opts.Angle,
			AngularVelocity: opts.AngularVelocity,
		},
		BodyMass: opts.Mass,
		IsStatic: opts.Static,
		Width:    opts.Width,
		Height:   opts.Height,
	}
	if rb.BodyMass == 0 {
		rb.BodyMass = 1
	}
	if rb.Width == 0 {
		rb.Width = 20
	}
	if rb.Height == 0 {
		rb.Height = 20
	}
	return rb
}

func (rb *RigidBody) Mass() float64       { return rb.BodyMass }
func (rb *RigidBody) Static() bool        { return rb.IsStatic }
func (rb *RigidBody) Motion() *Kinematics { return &rb.State }
