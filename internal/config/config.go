// Package config provides YAML-based configuration loading and validation
// for the chase simulation.
package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/vovakirdan/chase/internal/chase"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// ChaseConfig contains all configuration for a simulation run.
type ChaseConfig struct {
	Simulation Simulation `yaml:"simulation" json:"simulation"`
	Terrain    Terrain    `yaml:"terrain" json:"terrain"`
	Movement   Movement   `yaml:"movement" json:"movement"`
	Output     Output     `yaml:"output" json:"output"`
}

// Simulation bounds the run.
type Simulation struct {
	MaxRounds int `yaml:"max_rounds" json:"max_rounds"`
	FlockSize int `yaml:"flock_size" json:"flock_size"`
}

// Terrain defines where the flock starts.
type Terrain struct {
	InitPosLimit float64 `yaml:"init_pos_limit" json:"init_pos_limit"`
}

// Movement defines how far each animal travels per round.
type Movement struct {
	SheepMoveDist float64 `yaml:"sheep_move_dist" json:"sheep_move_dist"`
	WolfMoveDist  float64 `yaml:"wolf_move_dist" json:"wolf_move_dist"`
}

// Output selects where results are written.
type Output struct {
	Dir     string   `yaml:"dir" json:"dir"`
	Formats []string `yaml:"formats" json:"formats"`
	DB      string   `yaml:"db" json:"db"`
}

// Validate rejects any non-positive or non-finite simulation value. Values
// are never clamped.
func (c ChaseConfig) Validate() error {
	if c.Simulation.MaxRounds <= 0 {
		return fmt.Errorf("%w: number of rounds must be a positive integer, got %d", ErrInvalid, c.Simulation.MaxRounds)
	}
	if c.Simulation.FlockSize <= 0 {
		return fmt.Errorf("%w: number of sheep in flock must be a positive integer, got %d", ErrInvalid, c.Simulation.FlockSize)
	}
	if !positive(c.Terrain.InitPosLimit) {
		return fmt.Errorf("%w: limit for sheep initial positions must be positive, got %g", ErrInvalid, c.Terrain.InitPosLimit)
	}
	if !positive(c.Movement.SheepMoveDist) || !positive(c.Movement.WolfMoveDist) {
		return fmt.Errorf("%w: length by which animals move must be positive, got sheep=%g wolf=%g",
			ErrInvalid, c.Movement.SheepMoveDist, c.Movement.WolfMoveDist)
	}
	return nil
}

// positive reports whether x is a finite number above zero. NaN fails.
func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}

// Params converts the configuration into engine parameters.
func (c ChaseConfig) Params() chase.Params {
	return chase.Params{
		MaxRounds:     c.Simulation.MaxRounds,
		FlockSize:     c.Simulation.FlockSize,
		InitPosLimit:  c.Terrain.InitPosLimit,
		SheepMoveDist: c.Movement.SheepMoveDist,
		WolfMoveDist:  c.Movement.WolfMoveDist,
	}
}

// Overrides carries command-line values. Nil fields were not given.
type Overrides struct {
	MaxRounds *int
	FlockSize *int
	Dir       *string
	Formats   []string
	DB        *string
}

// Apply copies every set override into cfg.
func (o Overrides) Apply(cfg *ChaseConfig) {
	if o.MaxRounds != nil {
		cfg.Simulation.MaxRounds = *o.MaxRounds
	}
	if o.FlockSize != nil {
		cfg.Simulation.FlockSize = *o.FlockSize
	}
	if o.Dir != nil {
		cfg.Output.Dir = *o.Dir
	}
	if len(o.Formats) > 0 {
		cfg.Output.Formats = o.Formats
	}
	if o.DB != nil {
		cfg.Output.DB = *o.DB
	}
}
