package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// profileRoot matches the analysis profile YAML layout: a free-form
// `analysis:` map so profiles stay forward compatible with new options.
type profileRoot struct {
	Analysis map[string]any `yaml:"analysis"`
}

// ApplyProfile overlays an analysis profile YAML onto the loaded config.
// Unknown keys are rejected so typos fail fast instead of silently doing
// nothing.
func ApplyProfile(cfg *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("profile file does not exist: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var root profileRoot
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if root.Analysis == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg.Analysis,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(root.Analysis); err != nil {
		return fmt.Errorf("invalid analysis profile %s: %w", path, err)
	}

	if cfg.Analysis.MaxPackets <= 0 {
		return fmt.Errorf("profile %s: analysis.max_packets must be > 0", path)
	}
	return nil
}
