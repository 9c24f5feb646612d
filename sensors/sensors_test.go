package sensors

import (
	"math"
	"testing"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/terrain"
	"github.com/pthm-cable/hillclimb/vehicle"
)

func flatTerrain(height float64) *terrain.Terrain {
	return &terrain.Terrain{
		Points: []terrain.Point{{X: 0, Y: height}, {X: 5000, Y: height}},
		Width:  5000,
	}
}

func testSetup(y float64) (Params, *vehicle.Vehicle) {
	cfg := config.Default()
	return ParamsFromConfig(cfg.Sensors), vehicle.New(100, y, vehicle.ParamsFromConfig(cfg.Vehicle))
}

func TestInputSize(t *testing.T) {
	p, _ := testSetup(300)
	if got := p.InputSize(); got != 10 {
		t.Errorf("InputSize() = %d, want 10", got)
	}
	if got := p.InputSize(); got != config.Default().Derived.NumInputs {
		t.Errorf("InputSize() = %d, disagrees with derived config %d", got, config.Default().Derived.NumInputs)
	}
}

func TestSenseKinematics(t *testing.T) {
	p, v := testSetup(300)
	v.Angle = math.Pi / 2
	v.Velocity.X = 10
	v.Velocity.Y = -4
	v.AngularVelocity = 2.5

	r := p.Sense(v, flatTerrain(400))

	if math.Abs(r.SinAngle-1) > 1e-12 || math.Abs(r.CosAngle) > 1e-12 {
		t.Errorf("sin/cos = %v/%v, want 1/0", r.SinAngle, r.CosAngle)
	}
	if r.VelX != 0.5 || r.VelY != -0.2 {
		t.Errorf("VelX/VelY = %v/%v, want 0.5/-0.2", r.VelX, r.VelY)
	}
	if r.AngularVel != 0.5 {
		t.Errorf("AngularVel = %v, want 0.5", r.AngularVel)
	}
}

func TestSenseRays(t *testing.T) {
	tests := []struct {
		name string
		y    float64
		want float64
	}{
		{"far above ground", 100, 1},
		{"exactly one norm above", 300, 1},
		{"half norm above", 350, 0.5},
		{"below ground", 450, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, v := testSetup(tt.y)
			r := p.Sense(v, flatTerrain(400))

			if len(r.Rays) != p.NumRays {
				t.Fatalf("len(Rays) = %d, want %d", len(r.Rays), p.NumRays)
			}
			for i, ray := range r.Rays {
				if math.Abs(ray-tt.want) > 1e-12 {
					t.Errorf("ray %d = %v, want %v", i, ray, tt.want)
				}
			}
		})
	}
}

func TestSenseRaysReachAhead(t *testing.T) {
	p, v := testSetup(300)
	// Ground drops from 400 to 300 between x=100 and x=400.
	ter := &terrain.Terrain{
		Points: []terrain.Point{{X: 0, Y: 400}, {X: 100, Y: 400}, {X: 400, Y: 300}, {X: 5000, Y: 300}},
		Width:  5000,
	}

	r := p.Sense(v, ter)

	for i := 1; i < len(r.Rays); i++ {
		if r.Rays[i] > r.Rays[i-1] {
			t.Errorf("ray %d (%v) sees more clearance than ray %d (%v) on a rising slope", i, r.Rays[i], i-1, r.Rays[i-1])
		}
	}
	if r.Rays[0] >= 1 {
		t.Errorf("nearest ray = %v, want < 1 once the slope starts", r.Rays[0])
	}
}

func TestVectorLayout(t *testing.T) {
	p, _ := testSetup(300)
	r := Reading{
		SinAngle: 0.1, CosAngle: 0.2, VelX: 0.3, VelY: 0.4, AngularVel: 0.5,
		Rays: []float64{1, 2, 3, 4, 5},
	}

	got := p.Vector(r)
	want := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	buf := p.AppendTo(got[:0], r)
	if &buf[0] != &got[0] {
		t.Error("AppendTo should reuse dst capacity")
	}
}

func TestAppendToPanicsOnRayMismatch(t *testing.T) {
	p, _ := testSetup(300)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for mismatched ray count")
		}
	}()
	p.AppendTo(nil, Reading{Rays: []float64{1, 2}})
}
