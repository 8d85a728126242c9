package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vovakirdan/chase/internal/chase"
)

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
}

func TestEmbeddedMatchesHardcodedDefaults(t *testing.T) {
	if got, want := Embedded(), DefaultChaseConfig(); !reflect.DeepEqual(got, want) {
		t.Errorf("embedded defaults %+v differ from hardcoded %+v", got, want)
	}
	if err := Embedded().Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
}

func TestLoadCustomPathOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, `
terrain:
  init_pos_limit: 3.5
movement:
  wolf_move_dist: 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Terrain.InitPosLimit != 3.5 {
		t.Errorf("InitPosLimit = %v, expected 3.5", cfg.Terrain.InitPosLimit)
	}
	if cfg.Movement.WolfMoveDist != 2 {
		t.Errorf("WolfMoveDist = %v, expected 2", cfg.Movement.WolfMoveDist)
	}
	// Untouched keys keep their defaults
	if cfg.Movement.SheepMoveDist != 0.5 || cfg.Simulation.MaxRounds != 50 || cfg.Simulation.FlockSize != 15 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadCustomPathErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		writeFile(t, path, "simulation: [this is: not a map")
		if _, err := Load(path); err == nil {
			t.Error("expected a parse error")
		}
	})
}

func TestLoadedNonFiniteValuesFailValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nan.yaml")
	writeFile(t, path, `
terrain:
  init_pos_limit: .nan
movement:
  wolf_move_dist: .inf
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("Validate() = %v, expected ErrInvalid", err)
	}
}

func TestLoadSearchOrder(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, work)

	// Nothing on disk: embedded defaults
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Simulation.FlockSize != 15 {
		t.Errorf("FlockSize = %d, expected default 15", cfg.Simulation.FlockSize)
	}

	// Local configs directory
	writeFile(t, filepath.Join(work, "configs", "chase.yaml"), "simulation:\n  flock_size: 4\n")
	cfg, _ = Load("")
	if cfg.Simulation.FlockSize != 4 {
		t.Errorf("FlockSize = %d, expected 4 from ./configs", cfg.Simulation.FlockSize)
	}

	// User config wins over the local one
	writeFile(t, filepath.Join(home, ".chase", "chase.yaml"), "simulation:\n  flock_size: 9\n")
	cfg, _ = Load("")
	if cfg.Simulation.FlockSize != 9 {
		t.Errorf("FlockSize = %d, expected 9 from ~/.chase", cfg.Simulation.FlockSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ChaseConfig)
		wantErr bool
	}{
		{"defaults", func(c *ChaseConfig) {}, false},
		{"zero rounds", func(c *ChaseConfig) { c.Simulation.MaxRounds = 0 }, true},
		{"negative rounds", func(c *ChaseConfig) { c.Simulation.MaxRounds = -3 }, true},
		{"zero sheep", func(c *ChaseConfig) { c.Simulation.FlockSize = 0 }, true},
		{"zero limit", func(c *ChaseConfig) { c.Terrain.InitPosLimit = 0 }, true},
		{"negative limit", func(c *ChaseConfig) { c.Terrain.InitPosLimit = -1 }, true},
		{"zero sheep step", func(c *ChaseConfig) { c.Movement.SheepMoveDist = 0 }, true},
		{"zero wolf step", func(c *ChaseConfig) { c.Movement.WolfMoveDist = 0 }, true},
		{"NaN limit", func(c *ChaseConfig) { c.Terrain.InitPosLimit = math.NaN() }, true},
		{"infinite limit", func(c *ChaseConfig) { c.Terrain.InitPosLimit = math.Inf(1) }, true},
		{"NaN sheep step", func(c *ChaseConfig) { c.Movement.SheepMoveDist = math.NaN() }, true},
		{"NaN wolf step", func(c *ChaseConfig) { c.Movement.WolfMoveDist = math.NaN() }, true},
		{"infinite wolf step", func(c *ChaseConfig) { c.Movement.WolfMoveDist = math.Inf(1) }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultChaseConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v should wrap ErrInvalid", err)
			}
		})
	}
}

func TestOverridesApply(t *testing.T) {
	rounds, sheep, dir, db := 0, 3, "out", "runs.db"
	cfg := DefaultChaseConfig()

	Overrides{MaxRounds: &rounds, FlockSize: &sheep, Dir: &dir, DB: &db, Formats: []string{"csv"}}.Apply(&cfg)

	if cfg.Simulation.MaxRounds != 0 || cfg.Simulation.FlockSize != 3 {
		t.Errorf("simulation overrides not applied: %+v", cfg.Simulation)
	}
	if cfg.Output.Dir != "out" || cfg.Output.DB != "runs.db" || !reflect.DeepEqual(cfg.Output.Formats, []string{"csv"}) {
		t.Errorf("output overrides not applied: %+v", cfg.Output)
	}
	// An explicit zero is kept and then rejected, never clamped
	if err := cfg.Validate(); err == nil {
		t.Error("explicit --rounds 0 should fail validation")
	}

	untouched := DefaultChaseConfig()
	Overrides{}.Apply(&untouched)
	if !reflect.DeepEqual(untouched, DefaultChaseConfig()) {
		t.Error("empty overrides should change nothing")
	}
}

func TestParams(t *testing.T) {
	cfg := DefaultChaseConfig()
	want := chase.Params{MaxRounds: 50, FlockSize: 15, InitPosLimit: 10, SheepMoveDist: 0.5, WolfMoveDist: 1}
	if got := cfg.Params(); got != want {
		t.Errorf("Params() = %+v, expected %+v", got, want)
	}
}
