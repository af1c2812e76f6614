package config

import (
	"fmt"
	"os"

	"mit.edu/dsg/godf/common"
	"mit.edu/dsg/godf/logging"
	"sigs.k8s.io/yaml"
)

// Config is the session configuration. It can be written as YAML or JSON; field names are the
// json tags.
type Config struct {
	// Partition count for data loaded without an explicit one.
	DefaultPartitions int `json:"default_partitions"`

	// Maximum number of partitions the local runner processes at once. 0 means one per CPU.
	Parallelism int `json:"parallelism"`

	// Directory holding catalog.json. Empty keeps the catalog in memory.
	CatalogDir string `json:"catalog_dir"`

	Logging logging.Config `json:"logging"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		DefaultPartitions: 1,
		Parallelism:       0,
		CatalogDir:        "",
		Logging:           logging.DefaultConfig(),
	}
}

// Parse reads YAML or JSON on top of the defaults. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, common.Errorf(common.ConfigurationError, "failed to parse config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DefaultPartitions < 1 {
		return common.Errorf(common.ConfigurationError, "default_partitions must be at least 1, got %d", c.DefaultPartitions)
	}
	if c.Parallelism < 0 {
		return common.Errorf(common.ConfigurationError, "parallelism must not be negative, got %d", c.Parallelism)
	}
	return c.Logging.Validate()
}

// YAML renders the configuration in the form Parse accepts.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
