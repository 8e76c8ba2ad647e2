// Package config provides YAML configuration loading for the movement
// simulator and its tooling.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/strideworks/stride/charsim"
	"github.com/strideworks/stride/geo"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the full tool configuration.
type Config struct {
	Simulator SimulatorConfig `yaml:"simulator"`
	Volume    VolumeConfig    `yaml:"volume"`
	Stress    StressConfig    `yaml:"stress"`
}

// SimulatorConfig mirrors the simulator tuning knobs.
type SimulatorConfig struct {
	MaxIterations        int     `yaml:"max_iterations"`
	MinMoveDistance      float64 `yaml:"min_move_distance"`
	ContactOffset        float64 `yaml:"contact_offset"`
	StepOffset           float64 `yaml:"step_offset"`
	SnapDistance         float64 `yaml:"snap_distance"`
	MaxSlopeDegrees      float64 `yaml:"max_slope_degrees"`
	CacheGrowth          float64 `yaml:"cache_growth"`
	MaxOverlapCorrection float64 `yaml:"max_overlap_correction"`
}

// VolumeConfig describes the default character collision volume.
type VolumeConfig struct {
	Shape       string     `yaml:"shape"` // capsule or box
	Radius      float64    `yaml:"radius"`
	HalfHeight  float64    `yaml:"half_height"`
	HalfExtents [3]float64 `yaml:"half_extents"`
}

// StressConfig holds the stress harness parameters.
type StressConfig struct {
	Seed        int64   `yaml:"seed"`
	Steps       int     `yaml:"steps"`
	Characters  int     `yaml:"characters"`
	TickRate    int     `yaml:"tick_rate"`
	WorldExtent float64 `yaml:"world_extent"`
	LogLevel    string  `yaml:"log_level"`
}

// Load reads configuration from a YAML file layered over the embedded
// defaults. An empty path loads defaults only.
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
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// SimulatorConfig converts the tuning section into a simulator config.
func (c *Config) SimulatorConfig() charsim.Config {
	s := c.Simulator
	out := charsim.Config{
		MaxIterations:        s.MaxIterations,
		MinMoveDistance:      s.MinMoveDistance,
		ContactOffset:        s.ContactOffset,
		StepOffset:           s.StepOffset,
		SnapDistance:         s.SnapDistance,
		CacheGrowth:          s.CacheGrowth,
		MaxOverlapCorrection: s.MaxOverlapCorrection,
	}
	if s.MaxSlopeDegrees > 0 {
		out.WalkableThreshold = math.Cos(s.MaxSlopeDegrees * math.Pi / 180)
	}
	return out
}

// CharacterVolume builds the configured collision volume centered at the
// origin.
func (c *Config) CharacterVolume() (geo.Volume, error) {
	v := c.Volume
	switch v.Shape {
	case "", "capsule":
		if v.Radius <= 0 || v.HalfHeight < 0 {
			return geo.Volume{}, fmt.Errorf("invalid capsule: radius=%v half_height=%v", v.Radius, v.HalfHeight)
		}
		return geo.Capsule(mgl64.Vec3{}, v.Radius, v.HalfHeight), nil
	case "box":
		for _, e := range v.HalfExtents {
			if e <= 0 {
				return geo.Volume{}, fmt.Errorf("invalid box half extents %v", v.HalfExtents)
			}
		}
		return geo.Box(mgl64.Vec3{}, mgl64.Vec3(v.HalfExtents)), nil
	default:
		return geo.Volume{}, fmt.Errorf("unknown volume shape %q", v.Shape)
	}
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
