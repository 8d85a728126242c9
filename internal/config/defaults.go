package config

import (
	_ "embed"
)

//go:embed defaults/chase.yaml
var defaultChaseYAML []byte

// DefaultChaseConfig returns the default configuration.
func DefaultChaseConfig() ChaseConfig {
	return ChaseConfig{
		Simulation: Simulation{
			MaxRounds: 50,
			FlockSize: 15,
		},
		Terrain: Terrain{
			InitPosLimit: 10.0,
		},
		Movement: Movement{
			SheepMoveDist: 0.5,
			WolfMoveDist:  1.0,
		},
		Output: Output{
			Formats: []string{"json", "csv"},
			DB:      "~/.chase/runs.db",
		},
	}
}
