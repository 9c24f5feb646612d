// Package config provides configuration loading and access for the trainer.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure returned from Validate.
var ErrInvalid = errors.New("invalid config")

// Config holds all training configuration parameters.
type Config struct {
	Physics    PhysicsConfig    `yaml:"physics"`
	Terrain    TerrainConfig    `yaml:"terrain"`
	Vehicle    VehicleConfig    `yaml:"vehicle"`
	Sensors    SensorsConfig    `yaml:"sensors"`
	Neural     NeuralConfig     `yaml:"neural"`
	Population PopulationConfig `yaml:"population"`
	Mutation   MutationConfig   `yaml:"mutation"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds the shared integrator parameters.
type PhysicsConfig struct {
	DT             float64 `yaml:"dt"`              // Fixed simulation timestep in seconds
	Gravity        float64 `yaml:"gravity"`         // Downward acceleration (y grows downward)
	LinearDamping  float64 `yaml:"linear_damping"`  // Velocity multiplier per tick
	AngularDamping float64 `yaml:"angular_damping"` // Angular velocity multiplier per tick
	GroundY        float64 `yaml:"ground_y"`        // Flat collision plane
	Restitution    float64 `yaml:"restitution"`     // Bounce coefficient on ground contact
}

// TerrainConfig holds height field generation parameters.
// MaxHeight is the visually highest bound, so it is numerically smaller than MinHeight.
type TerrainConfig struct {
	Width       float64 `yaml:"width"`
	Segments    int     `yaml:"segments"`
	StartHeight float64 `yaml:"start_height"`
	StepSize    float64 `yaml:"step_size"`  // Full range of the per-segment perturbation
	MaxHeight   float64 `yaml:"max_height"` // Lower numeric clamp
	MinHeight   float64 `yaml:"min_height"` // Upper numeric clamp
	HillEvery   int     `yaml:"hill_every"` // Segments between hill/valley injections
	HillSize    float64 `yaml:"hill_size"`  // Full range of the hill perturbation
}

// VehicleConfig holds vehicle dynamics and lifetime limits.
type VehicleConfig struct {
	SpawnX             float64 `yaml:"spawn_x"`
	SpawnY             float64 `yaml:"spawn_y"`
	MaxSpeed           float64 `yaml:"max_speed"`
	Acceleration       float64 `yaml:"acceleration"`
	BrakeFactor        float64 `yaml:"brake_factor"`
	Torque             float64 `yaml:"torque"`
	NominalDT          float64 `yaml:"nominal_dt"` // Impulse scale for control application
	MaxFuel            float64 `yaml:"max_fuel"`
	AccelerateFuelCost float64 `yaml:"accelerate_fuel_cost"`
	FuelDrainRate      float64 `yaml:"fuel_drain_rate"`  // Fuel per second while moving
	FuelDrainSpeed     float64 `yaml:"fuel_drain_speed"` // |vx| above this drains fuel
	DistanceScale      float64 `yaml:"distance_scale"`   // score = x / distance_scale
	FallLimitY         float64 `yaml:"fall_limit_y"`
	TimeLimit          float64 `yaml:"time_limit"`
	FlipLimit          float64 `yaml:"flip_limit"`
}

// SensorsConfig holds the ground ray fan parameters.
type SensorsConfig struct {
	NumRays      int     `yaml:"num_rays"`
	RaySpread    float64 `yaml:"ray_spread"` // Radians between adjacent rays
	RayReach     float64 `yaml:"ray_reach"`  // Ray i samples reach*(i+1) ahead
	RayNorm      float64 `yaml:"ray_norm"`
	VelocityNorm float64 `yaml:"velocity_norm"`
	AngularNorm  float64 `yaml:"angular_norm"`
}

// NeuralConfig holds network topology parameters.
type NeuralConfig struct {
	HiddenLayers []int `yaml:"hidden_layers"` // Sizes of hidden layers, e.g. [16, 12]
	NumOutputs   int   `yaml:"num_outputs"`
}

// PopulationConfig holds generational algorithm parameters.
type PopulationConfig struct {
	Size           int     `yaml:"size"`
	EliteFraction  float64 `yaml:"elite_fraction"`
	TournamentSize int     `yaml:"tournament_size"`
}

// MutationConfig holds child mutation parameters.
type MutationConfig struct {
	Rate     float64 `yaml:"rate"`
	Strength float64 `yaml:"strength"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	LogEveryTicks       int `yaml:"log_every_ticks"`
	PerfCollectorWindow int `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	NumInputs int // 5 kinematic features + Sensors.NumRays
}

// NumKinematicInputs is the count of non-ray sensor features:
// sin(angle), cos(angle), vx, vy, angular velocity.
const NumKinematicInputs = 5

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks the externally supplied parameters.
func (c *Config) Validate() error {
	switch {
	case c.Population.Size < 1:
		return fmt.Errorf("%w: population.size must be a positive integer, got %d", ErrInvalid, c.Population.Size)
	case c.Population.TournamentSize < 1:
		return fmt.Errorf("%w: population.tournament_size must be >= 1, got %d", ErrInvalid, c.Population.TournamentSize)
	case c.Population.EliteFraction < 0 || c.Population.EliteFraction > 1:
		return fmt.Errorf("%w: population.elite_fraction must be in [0,1], got %g", ErrInvalid, c.Population.EliteFraction)
	case c.Mutation.Rate < 0 || c.Mutation.Rate > 1:
		return fmt.Errorf("%w: mutation.rate must be in [0,1], got %g", ErrInvalid, c.Mutation.Rate)
	case c.Mutation.Strength < 0:
		return fmt.Errorf("%w: mutation.strength must be >= 0, got %g", ErrInvalid, c.Mutation.Strength)
	case c.Sensors.NumRays < 1:
		return fmt.Errorf("%w: sensors.num_rays must be >= 1, got %d", ErrInvalid, c.Sensors.NumRays)
	case c.Neural.NumOutputs != 3:
		return fmt.Errorf("%w: neural.num_outputs must be 3 (accelerate, brake, lean), got %d", ErrInvalid, c.Neural.NumOutputs)
	case c.Physics.DT <= 0:
		return fmt.Errorf("%w: physics.dt must be > 0, got %g", ErrInvalid, c.Physics.DT)
	case c.Terrain.Segments < 1 || c.Terrain.Width <= 0:
		return fmt.Errorf("%w: terrain needs width > 0 and segments >= 1", ErrInvalid)
	}
	for i, n := range c.Neural.HiddenLayers {
		if n < 1 {
			return fmt.Errorf("%w: neural.hidden_layers[%d] must be >= 1, got %d", ErrInvalid, i, n)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.NumInputs = NumKinematicInputs + c.Sensors.NumRays
}

// Clone returns a deep copy, safe to modify independently.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Neural.HiddenLayers = append([]int(nil), c.Neural.HiddenLayers...)
	return &clone
}

// Refresh re-validates the config and recomputes derived values after in-place edits.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
