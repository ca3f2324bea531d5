// Package config loads zoneview's TOML configuration and watches it for
// changes at runtime.
package config

import (
	"fmt"
	"net/url"

	"github.com/BurntSushi/toml"

	"zoneview/internal/schema"
)

// Config holds the serve daemon's settings.
//
// Example zoneview.toml:
//
//	listen   = ":8080"
//	remote   = "http://amp.local:9090"
//	database = ".zoneview/stations.db"
//	zone     = 2
type Config struct {
	// Listen is the dashboard listen address.
	Listen string `toml:"listen"`

	// Remote is the controller API base URL.
	Remote string `toml:"remote"`

	// Database is the path of the local SQLite roster cache.
	Database string `toml:"database"`

	// Zone is the active zone filter. -1 means all zones.
	Zone int `toml:"zone"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:   ":8080",
		Remote:   "http://localhost:9090",
		Database: ".zoneview/stations.db",
		Zone:     schema.ZoneAll,
	}
}

// Load reads the TOML file at path on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Remote == "" {
		return fmt.Errorf("remote URL is required")
	}
	u, err := url.Parse(c.Remote)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("remote must be an absolute URL (got %q)", c.Remote)
	}
	if c.Database == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Zone < 0 && c.Zone != schema.ZoneAll {
		return fmt.Errorf("zone must be non-negative or %d for all zones (got %d)",
			schema.ZoneAll, c.Zone)
	}
	return nil
}
