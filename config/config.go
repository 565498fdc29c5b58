// Package config provides configuration loading and validation for the
// flocking simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
// It is immutable after Load: the simulation only ever reads it.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Flock     FlockConfig     `yaml:"flock"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// WorldConfig holds the toroidal world extent.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// FlockConfig holds the flocking rule parameters.
type FlockConfig struct {
	Agents         int     `yaml:"agents"`
	Speed          float64 `yaml:"speed"`           // max velocity magnitude
	Perception     float64 `yaml:"perception"`      // neighbor radius
	SeparationDist float64 `yaml:"separation_dist"` // repulsion radius, <= perception
	WSep           float64 `yaml:"w_sep"`
	WAlign         float64 `yaml:"w_align"`
	WCoh           float64 `yaml:"w_coh"`
	FOVDeg         float64 `yaml:"fov_deg"` // field of view in degrees, (0, 360]
	MaxForce       float64 `yaml:"max_force"`
	Eps            float64 `yaml:"eps"` // division guard
	DT             float64 `yaml:"dt"`  // fixed tick length in seconds
}

// RuntimeConfig holds execution parameters.
type RuntimeConfig struct {
	Workers  int     `yaml:"workers"`   // 0 = GOMAXPROCS
	TickRate float64 `yaml:"tick_rate"` // runner pacing, ticks per second (0 = unpaced)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds per stats window
	PerfWindow  int     `yaml:"perf_window"`  // ticks per perf averaging window
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg := &Config{}
	// The embedded defaults are part of the build; failing to parse them is
	// a programming error, not a runtime condition.
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: invalid embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field the simulation depends on. Invalid values are
// rejected outright; nothing is clamped.
func (c *Config) Validate() error {
	if c.World.Width <= 0 {
		return fmt.Errorf("config: world.width must be > 0, got %v", c.World.Width)
	}
	if c.World.Height <= 0 {
		return fmt.Errorf("config: world.height must be > 0, got %v", c.World.Height)
	}
	f := &c.Flock
	if f.Agents < 0 {
		return fmt.Errorf("config: flock.agents must be >= 0, got %d", f.Agents)
	}
	if f.Speed < 0 {
		return fmt.Errorf("config: flock.speed must be >= 0, got %v", f.Speed)
	}
	if f.Perception < 0 {
		return fmt.Errorf("config: flock.perception must be >= 0, got %v", f.Perception)
	}
	if f.SeparationDist < 0 || f.SeparationDist > f.Perception {
		return fmt.Errorf("config: flock.separation_dist must be in [0, perception], got %v (perception %v)",
			f.SeparationDist, f.Perception)
	}
	if f.FOVDeg <= 0 || f.FOVDeg > 360 {
		return fmt.Errorf("config: flock.fov_deg must be in (0, 360], got %v", f.FOVDeg)
	}
	if f.MaxForce < 0 {
		return fmt.Errorf("config: flock.max_force must be >= 0, got %v", f.MaxForce)
	}
	if f.Eps <= 0 {
		return fmt.Errorf("config: flock.eps must be > 0, got %v", f.Eps)
	}
	if f.DT <= 0 {
		return fmt.Errorf("config: flock.dt must be > 0, got %v", f.DT)
	}
	if c.Runtime.Workers < 0 {
		return fmt.Errorf("config: runtime.workers must be >= 0, got %d", c.Runtime.Workers)
	}
	if c.Runtime.TickRate < 0 {
		return fmt.Errorf("config: runtime.tick_rate must be >= 0, got %v", c.Runtime.TickRate)
	}
	if c.Telemetry.StatsWindow < 0 {
		return fmt.Errorf("config: telemetry.stats_window must be >= 0, got %v", c.Telemetry.StatsWindow)
	}
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
