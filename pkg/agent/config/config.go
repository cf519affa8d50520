// Package config loads the agent's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds agent configuration. Zero values fall back to defaults;
// ServerAddr is required.
type Config struct {
	// NodeID identifies this agent in the capability handshake. Generated
	// when empty.
	NodeID string `yaml:"node_id"`

	// NodeCluster is the fleet this agent belongs to, sent in the handshake.
	NodeCluster string `yaml:"node_cluster"`

	// ServerAddr is the HDS server's gRPC address.
	ServerAddr string `yaml:"server_addr"`

	// DataDir holds the specifier snapshot database. Snapshots are disabled
	// when empty.
	DataDir string `yaml:"data_dir"`

	// MetricsAddr is the Prometheus listen address. Disabled when empty.
	MetricsAddr string `yaml:"metrics_addr"`

	// Retry backoff bounds for stream re-establishment.
	RetryInitialDelay time.Duration `yaml:"retry_initial_delay"`
	RetryMaxDelay     time.Duration `yaml:"retry_max_delay"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MetricsAddr:       ":9901",
		RetryInitialDelay: 1 * time.Second,
		RetryMaxDelay:     30 * time.Second,
		LogLevel:          "info",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Validate checks required fields and bound ordering.
func (c Config) Validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("server_addr is required")
	}
	if c.RetryInitialDelay <= 0 {
		return fmt.Errorf("retry_initial_delay must be positive")
	}
	if c.RetryMaxDelay < c.RetryInitialDelay {
		return fmt.Errorf("retry_max_delay must not be below retry_initial_delay")
	}
	return nil
}
