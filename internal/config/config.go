// Package config loads bootstrap configuration for the kiara CLI.
package config

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// Config holds the bootstrap defaults: where the system store lives and
// which store backs the default graph. Explicit URLs win over derived
// ones.
type Config struct {
	// DataDir is the directory holding file-backed stores.
	DataDir string `yaml:"data_dir"`

	// SystemName is the database name of the system store.
	SystemName string `yaml:"system_name"`

	// SystemURL overrides the derived system-store URL when set.
	SystemURL string `yaml:"system_url"`

	// DefaultGraphURL overrides the derived default-graph URL when set.
	DefaultGraphURL string `yaml:"default_graph_url"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:    "kiara-data",
		SystemName: "system",
	}
}

// Load reads configuration from a YAML file, applying defaults for
// unset fields. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = Default().DataDir
	}
	if cfg.SystemName == "" {
		cfg.SystemName = Default().SystemName
	}
	return cfg, nil
}

// ResolveSystemURL returns the system-store URL: the explicit override
// if set, otherwise a file URL built from data_dir and system_name.
func (c *Config) ResolveSystemURL() string {
	if c.SystemURL != "" {
		return c.SystemURL
	}
	return "file:" + path.Join(c.DataDir, c.SystemName+".db")
}
