package terrain

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/hillclimb/config"
)

func defaultParams() Params {
	return ParamsFromConfig(config.Default().Terrain)
}

func TestGenerateShape(t *testing.T) {
	p := defaultParams()
	ter := Generate(rand.New(rand.NewSource(42)), p)

	if got, want := len(ter.Points), p.Segments+1; got != want {
		t.Fatalf("len(Points) = %d, want %d", got, want)
	}
	if ter.Points[0].X != 0 {
		t.Errorf("first point X = %v, want 0", ter.Points[0].X)
	}
	if ter.Points[0].Y != p.StartHeight {
		t.Errorf("first point Y = %v, want start height %v (endpoints are not smoothed)", ter.Points[0].Y, p.StartHeight)
	}
	if last := ter.Points[len(ter.Points)-1].X; math.Abs(last-p.Width) > 1e-9 {
		t.Errorf("last point X = %v, want %v", last, p.Width)
	}
	for i := 1; i < len(ter.Points); i++ {
		if ter.Points[i].X <= ter.Points[i-1].X {
			t.Fatalf("X not strictly increasing at %d: %v <= %v", i, ter.Points[i].X, ter.Points[i-1].X)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	p := defaultParams()
	a := Generate(rand.New(rand.NewSource(7)), p)
	b := Generate(rand.New(rand.NewSource(7)), p)

	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			t.Fatalf("point %d differs: %v vs %v", i, a.Points[i], b.Points[i])
		}
	}
}

func TestGenerateStaysNearBand(t *testing.T) {
	p := defaultParams()
	ter := Generate(rand.New(rand.NewSource(3)), p)

	// Hill injections happen after the clamp, so allow half a hill of slack.
	lo := p.MaxHeight - p.HillSize/2
	hi := p.MinHeight + p.HillSize/2
	for i, pt := range ter.Points[1:] {
		if pt.Y < lo || pt.Y > hi {
			t.Errorf("point %d height %v outside [%v, %v]", i+1, pt.Y, lo, hi)
		}
	}
}

func TestSmoothIsSequentialThreePoint(t *testing.T) {
	ter := &Terrain{Points: []Point{{0, 0}, {1, 3}, {2, 6}, {3, 0}}, Width: 3}
	ter.smooth()

	// (0+3+6)/3 = 3, then (3+6+0)/3 = 3 using the smoothed predecessor.
	want := []float64{0, 3, 3, 0}
	for i, w := range want {
		if ter.Points[i].Y != w {
			t.Errorf("Points[%d].Y = %v, want %v", i, ter.Points[i].Y, w)
		}
	}
}

func TestHeightAt(t *testing.T) {
	ter := &Terrain{
		Points: []Point{{0, 500}, {10, 400}, {20, 450}, {30, 0.3}},
		Width:  30,
	}

	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"first point", 0, 500},
		{"control point", 10, 400},
		{"control point 2", 20, 450},
		{"last point", 30, 0.3},
		{"midpoint", 5, 450},
		{"quarter", 12.5, 412.5},
		{"beyond last", 1000, 0.3},
		{"just beyond last", 30.0001, 0.3},
		{"before first", -5, 0.3},
		{"well before first", -50, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ter.HeightAt(tt.x)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("HeightAt(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestHeightAtExactOnGeneratedPoints(t *testing.T) {
	ter := Generate(rand.New(rand.NewSource(11)), defaultParams())
	for i, pt := range ter.Points {
		if got := ter.HeightAt(pt.X); got != pt.Y {
			t.Fatalf("HeightAt(points[%d].X) = %v, want exactly %v", i, got, pt.Y)
		}
	}
}

func TestHeightAtContinuous(t *testing.T) {
	ter := Generate(rand.New(rand.NewSource(5)), defaultParams())
	const eps = 1e-7
	for i := 1; i < len(ter.Points)-1; i++ {
		x := ter.Points[i].X
		left := ter.HeightAt(x - eps)
		right := ter.HeightAt(x + eps)
		if math.Abs(left-right) > 1e-3 {
			t.Fatalf("discontinuity at point %d: %v vs %v", i, left, right)
		}
	}
}

func TestGroundDistanceNeverNegative(t *testing.T) {
	ter := Generate(rand.New(rand.NewSource(9)), defaultParams())
	rng := rand.New(rand.NewSource(10))

	for i := 0; i < 2000; i++ {
		x := rng.Float64()*7000 - 1000
		y := rng.Float64()*2000 - 500
		if d := ter.GroundDistance(x, y); d < 0 {
			t.Fatalf("GroundDistance(%v, %v) = %v, want >= 0", x, y, d)
		}
	}
}

func TestGroundDistance(t *testing.T) {
	ter := &Terrain{Points: []Point{{0, 400}, {100, 400}}, Width: 100}

	if got := ter.GroundDistance(50, 300); got != 100 {
		t.Errorf("GroundDistance above ground = %v, want 100", got)
	}
	if got := ter.GroundDistance(50, 450); got != 0 {
		t.Errorf("GroundDistance below ground = %v, want 0", got)
	}
}
