// Package config provides configuration loading and management for the
// spsm filter and scorer.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete spsm configuration.
type Config struct {
	Filter  FilterConfig  `yaml:"filter"`
	TED     TEDConfig     `yaml:"ted"`
	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// FilterConfig configures the filter engine's documented behavior
// switches.
type FilterConfig struct {
	// RichRowPruneVariant selects the alternate row-pruning comparison
	// documented in filter.Options.
	RichRowPruneVariant bool `yaml:"rich_row_prune_variant"`
}

// TEDConfig configures tree edit distance weights and safeguards.
type TEDConfig struct {
	// PathLengthLimit bounds tree size before TED falls back to a coarse
	// upper-bound estimate (default: ted.DefaultPathLengthLimit).
	PathLengthLimit int `yaml:"path_length_limit"`
	// WeightInsert, WeightDelete, WeightSubstitute are the Symmetric
	// scorer's edit weights (the Asymmetric scorer always forces insert
	// to zero regardless of this setting).
	WeightInsert     float64 `yaml:"weight_insert"`
	WeightDelete     float64 `yaml:"weight_delete"`
	WeightSubstitute float64 `yaml:"weight_substitute"`
}

// NATSConfig configures the NATS connection used by package async.
type NATSConfig struct {
	// URL is the NATS server URL (empty = completion events are not
	// published).
	URL string `yaml:"url"`
	// CompletionSubject is the subject async.Publisher publishes
	// completed-task events to.
	CompletionSubject string `yaml:"completion_subject"`
}

// MetricsConfig configures the prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns on metrics registration in cmd/spsmtool.
	Enabled bool `yaml:"enabled"`
	// Addr is the listen address for the /metrics HTTP endpoint.
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Filter: FilterConfig{
			RichRowPruneVariant: false,
		},
		TED: TEDConfig{
			PathLengthLimit:  512,
			WeightInsert:     1.0,
			WeightDelete:     1.0,
			WeightSubstitute: 1.0,
		},
		NATS: NATSConfig{
			URL:               "",
			CompletionSubject: "spsm.filter.completed",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.TED.PathLengthLimit <= 0 {
		return fmt.Errorf("ted.path_length_limit must be positive")
	}
	if c.TED.WeightInsert < 0 || c.TED.WeightDelete < 0 || c.TED.WeightSubstitute < 0 {
		return fmt.Errorf("ted weights must be non-negative")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics.enabled is true")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, layered over
// DefaultConfig so unspecified fields keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge merges other into c; other takes precedence for non-zero
// values. Loader uses it to layer the user config file over
// DefaultConfig.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Filter.RichRowPruneVariant {
		c.Filter.RichRowPruneVariant = true
	}

	if other.TED.PathLengthLimit != 0 {
		c.TED.PathLengthLimit = other.TED.PathLengthLimit
	}
	if other.TED.WeightInsert != 0 {
		c.TED.WeightInsert = other.TED.WeightInsert
	}
	if other.TED.WeightDelete != 0 {
		c.TED.WeightDelete = other.TED.WeightDelete
	}
	if other.TED.WeightSubstitute != 0 {
		c.TED.WeightSubstitute = other.TED.WeightSubstitute
	}

	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.CompletionSubject != "" {
		c.NATS.CompletionSubject = other.NATS.CompletionSubject
	}

	if other.Metrics.Enabled {
		c.Metrics.Enabled = true
	}
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
}
