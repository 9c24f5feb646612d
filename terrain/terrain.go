// Package terrain provides the procedural 1-D height field vehicles drive over.
package terrain

import (
	"math/rand"

	"github.com/pthm-cable/hillclimb/config"
)

// Point is a terrain control point. Y grows downward.
type Point struct {
	X, Y float64
}

// Params controls height field generation.
// MaxHeight is the visually highest bound and MinHeight the visually lowest,
// so MaxHeight < MinHeight numerically.
type Params struct {
	Width       float64
	Segments    int
	StartHeight float64
	StepSize    float64
	MaxHeight   float64
	MinHeight   float64
	HillEvery   int
	HillSize    float64
}

// ParamsFromConfig maps the terrain config section to generation parameters.
func ParamsFromConfig(c config.TerrainConfig) Params {
	return Params{
		Width:       c.Width,
		Segments:    c.Segments,
		StartHeight: c.StartHeight,
		StepSize:    c.StepSize,
		MaxHeight:   c.MaxHeight,
		MinHeight:   c.MinHeight,
		HillEvery:   c.HillEvery,
		HillSize:    c.HillSize,
	}
}

// Terrain is an ordered sequence of control points spanning [0, Width].
// X is strictly increasing and the first point sits at X=0.
type Terrain struct {
	Points []Point
	Width  float64
}

// Generate builds a new random profile with Segments+1 points.
func Generate(rng *rand.Rand, p Params) *Terrain {
	points := make([]Point, 0, p.Segments+1)
	points = append(points, Point{X: 0, Y: p.StartHeight})

	height := p.StartHeight
	segmentWidth := p.Width / float64(p.Segments)

	for i := 1; i <= p.Segments; i++ {
		x := float64(i) * segmentWidth

		height += (rng.Float64() - 0.5) * p.StepSize
		height = max(p.MaxHeight, min(p.MinHeight, height))

		// Hills and valleys are injected after the clamp and may leave the band.
		if p.HillEvery > 0 && i%p.HillEvery == 0 {
			height += (rng.Float64() - 0.5) * p.HillSize
		}

		points = append(points, Point{X: x, Y: height})
	}

	t := &Terrain{Points: points, Width: p.Width}
	t.smooth()
	return t
}

// smooth applies one in-place 3-point moving average, left to right.
// Each point averages the already-smoothed predecessor. Endpoints are untouched.
func (t *Terrain) smooth() {
	for i := 1; i < len(t.Points)-1; i++ {
		prev, cur, next := t.Points[i-1], t.Points[i], t.Points[i+1]
		t.Points[i].Y = (prev.Y + cur.Y + next.Y) / 3
	}
}

// HeightAt returns the interpolated ground height at x.
// Any x outside [0, Width], on either side, yields the last point's height.
func (t *Terrain) HeightAt(x float64) float64 {
	n := len(t.Points)
	if n == 0 {
		return 0
	}

	for i := 0; i < n-1; i++ {
		p1, p2 := t.Points[i], t.Points[i+1]
		if x >= p1.X && x <= p2.X {
			// Exact at control points, no interpolation drift.
			if x == p1.X {
				return p1.Y
			}
			if x == p2.X {
				return p2.Y
			}
			u := (x - p1.X) / (p2.X - p1.X)
			return p1.Y + (p2.Y-p1.Y)*u
		}
	}

	return t.Points[n-1].Y
}

// GroundDistance returns how far below y the ground is at x. Never negative.
func (t *Terrain) GroundDistance(x, y float64) float64 {
	return max(0, t.HeightAt(x)-y)
}
