// Package sensors turns a vehicle's state and the terrain beneath it into network inputs.
package sensors

import (
	"fmt"
	"math"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/terrain"
	"github.com/pthm-cable/hillclimb/vehicle"
)

// Params controls the ray fan and feature normalization.
type Params struct {
	NumRays      int
	RaySpread    float64 // radians between adjacent rays
	RayReach     float64 // ray i samples RayReach*(i+1) ahead
	RayNorm      float64
	VelocityNorm float64
	AngularNorm  float64
}

// ParamsFromConfig maps the sensors config section to Params.
func ParamsFromConfig(c config.SensorsConfig) Params {
	return Params{
		NumRays:      c.NumRays,
		RaySpread:    c.RaySpread,
		RayReach:     c.RayReach,
		RayNorm:      c.RayNorm,
		VelocityNorm: c.VelocityNorm,
		AngularNorm:  c.AngularNorm,
	}
}

// InputSize is the flattened vector length a network must accept.
func (p Params) InputSize() int {
	return config.NumKinematicInputs + p.NumRays
}

// Reading holds one tick of sensor data.
type Reading struct {
	SinAngle   float64 // [-1,1]
	CosAngle   float64 // [-1,1]
	VelX       float64 // vx / VelocityNorm
	VelY       float64 // vy / VelocityNorm
	AngularVel float64 // ω / AngularNorm
	Rays       []float64
}

// Sense reads the vehicle's attitude, velocity and ground clearance along a fan of rays.
//
// Ray i points at angle + (i - (n-1)/2)*RaySpread and samples the ground at
// x + cos(a)*RayReach*(i+1), using the vehicle's own y. Each value is the
// clearance divided by RayNorm, clamped to [0, 1].
func (p Params) Sense(v *vehicle.Vehicle, t *terrain.Terrain) Reading {
	r := Reading{
		SinAngle:   math.Sin(v.Angle),
		CosAngle:   math.Cos(v.Angle),
		VelX:       v.Velocity.X / p.VelocityNorm,
		VelY:       v.Velocity.Y / p.VelocityNorm,
		AngularVel: v.AngularVelocity / p.AngularNorm,
		Rays:       make([]float64, p.NumRays),
	}

	center := float64(p.NumRays-1) / 2
	for i := range r.Rays {
		a := v.Angle + (float64(i)-center)*p.RaySpread
		x := v.Position.X + math.Cos(a)*p.RayReach*float64(i+1)
		dist := t.GroundDistance(x, v.Position.Y)
		r.Rays[i] = max(0, min(1, dist/p.RayNorm))
	}
	return r
}

// AppendTo appends the flattened reading to dst and returns the extended slice.
// Panics if the reading was not produced with p.
//
// Layout:
//
//	[0]     sin(angle)
//	[1]     cos(angle)
//	[2]     vx
//	[3]     vy
//	[4]     angular velocity
//	[5..]   rays, left to right
func (p Params) AppendTo(dst []float64, r Reading) []float64 {
	if len(r.Rays) != p.NumRays {
		panic(fmt.Sprintf("sensors: reading has %d rays, params expect %d", len(r.Rays), p.NumRays))
	}
	dst = append(dst, r.SinAngle, r.CosAngle, r.VelX, r.VelY, r.AngularVel)
	return append(dst, r.Rays...)
}

// Vector returns the flattened reading as a fresh slice of InputSize() values.
func (p Params) Vector(r Reading) []float64 {
	return p.AppendTo(make([]float64, 0, p.InputSize()), r)
}
