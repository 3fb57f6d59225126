// Package config holds the session's tunables, loadable from a YAML
// file with sane defaults.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config bounds one session. Zero values for the caps mean unbounded.
type Config struct {
	Model         string `yaml:"model"`
	MaxTokens     int    `yaml:"max_tokens"`
	MaxSteps      int    `yaml:"max_steps"`
	MaxStackDepth int    `yaml:"max_stack_depth"`
	SnapshotRows  int    `yaml:"snapshot_rows"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		MaxTokens:    2048,
		MaxSteps:     30,
		SnapshotRows: 20,
	}
}

// Load reads a YAML config file over the defaults. Unknown keys are
// rejected so a typo doesn't silently fall back to a default.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.MaxTokens <= 0 {
		return Config{}, fmt.Errorf("max_tokens must be positive, got %d", cfg.MaxTokens)
	}
	return cfg, nil
}
