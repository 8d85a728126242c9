package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileName = "chase.yaml"

// Load loads the simulation configuration.
// Search order: customPath -> ~/.chase/chase.yaml -> ./configs/chase.yaml -> embedded default.
// Files only need to set the keys they change; everything else keeps its
// default. The result is not validated; call Validate after applying overrides.
func Load(customPath string) (ChaseConfig, error) {
	cfg := Embedded()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath(fileName); userCfgPath != "" {
		if overlay, ok := tryLoad(userCfgPath, cfg); ok {
			return overlay, nil
		}
	}

	// Try local configs directory
	if overlay, ok := tryLoad(filepath.Join("configs", fileName), cfg); ok {
		return overlay, nil
	}

	return cfg, nil
}

// tryLoad overlays the file at path onto base. Missing or malformed files
// are skipped.
func tryLoad(path string, base ChaseConfig) (ChaseConfig, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, false
	}
	if err := yaml.Unmarshal(data, &base); err != nil {
		return base, false
	}
	return base, true
}

// Embedded returns the embedded default configuration, falling back to the
// hardcoded defaults if it cannot be parsed.
func Embedded() ChaseConfig {
	var cfg ChaseConfig
	if err := yaml.Unmarshal(defaultChaseYAML, &cfg); err != nil {
		return DefaultChaseConfig()
	}
	return cfg
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultChaseYAML))
	copy(out, defaultChaseYAML)
	return out
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".chase", filename)
}
