// Package config loads the TOML-backed runtime configuration: entity
// and system node roots, the query-builder pool size, and per-system
// scheduling knobs.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level runtime configuration.
type Config struct {
	World   WorldConfig             `toml:"world"`
	Logging LoggingConfig           `toml:"logging"`
	Systems map[string]SystemConfig `toml:"systems"`
}

// WorldConfig mirrors the host-facing knobs a world construction reads.
type WorldConfig struct {
	EntityNodesRoot string `toml:"entity_nodes_root"`
	SystemNodesRoot string `toml:"system_nodes_root"`
	PoolSizeLimit   int    `toml:"pool_size_limit"`
}

// LoggingConfig controls the zap logger construction.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// SystemConfig holds the per-system overrides a config file can supply,
// keyed by system name under [systems.<name>].
type SystemConfig struct {
	Group              string `toml:"group"`
	ProcessEmpty       bool   `toml:"process_empty"`
	Active             bool   `toml:"active"`
	ParallelProcessing bool   `toml:"parallel_processing"`
	ParallelThreshold  int    `toml:"parallel_threshold"`
}

// Load reads and parses the TOML file at path, applying defaults for
// any [world] or [logging] field the file doesn't set. Entries under
// [systems.<name>] are stored as parsed; For fills their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		World: WorldConfig{
			EntityNodesRoot: "Entities",
			SystemNodesRoot: "Systems",
			PoolSizeLimit:   10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Systems: map[string]SystemConfig{},
	}
}

// SystemDefaults returns the knob values to use for a system not
// listed under [systems.<name>] in the loaded file.
func SystemDefaults() SystemConfig {
	return SystemConfig{
		Group:             "default",
		Active:            true,
		ParallelThreshold: 50,
	}
}

// For looks up a system's config. An unlisted system gets
// SystemDefaults; a listed one gets SystemDefaults' Group and
// ParallelThreshold where those fields are zero. Boolean fields are
// returned as stored, so an omitted active key reads as false.
func (c *Config) For(systemName string) SystemConfig {
	sc, ok := c.Systems[systemName]
	if !ok {
		return SystemDefaults()
	}
	if sc.Group == "" {
		sc.Group = SystemDefaults().Group
	}
	if sc.ParallelThreshold == 0 {
		sc.ParallelThreshold = SystemDefaults().ParallelThreshold
	}
	return sc
}
