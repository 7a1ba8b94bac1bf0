package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds file-based defaults for the sync and resolve commands. Flags
// given on the command line always win over config values.
type Config struct {
	DB      string `yaml:"db"`
	Fixture string `yaml:"fixture"`
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
