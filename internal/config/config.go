// Package config provides configuration management for the dialogue server.
//
// Config file locations (priority order):
//  1. $BRANCHLINE_CONFIG
//  2. ./branchline.yaml
//  3. $XDG_CONFIG_HOME/branchline/config.yaml
//  4. ~/.config/branchline/config.yaml
//  5. /etc/branchline/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default values
const (
	DefaultAddr        = ":8080"
	DefaultDBPath      = "./branchline.db"
	DefaultMaxActive   = 1000
	DefaultIdleTimeout = 30 * time.Minute
	DefaultDebounce    = 250 * time.Millisecond
)

var validate = validator.New()

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	// Decode over the defaults so a key set explicitly to zero (such as
	// sessions.idle_timeout: 0) keeps its value
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{
		Sessions: SessionsConfig{IdleTimeout: Duration(DefaultIdleTimeout)},
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults. Zero is a valid
// idle timeout, so that default comes from DefaultConfig instead.
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDBPath
	}
	if c.Graphs.Debounce == 0 {
		c.Graphs.Debounce = Duration(DefaultDebounce)
	}
	if c.Sessions.MaxActive == 0 {
		c.Sessions.MaxActive = DefaultMaxActive
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	graphs := "none"
	if c.Graphs.Dir != "" {
		graphs = c.Graphs.Dir
		if c.Graphs.Watch {
			graphs += " (watched)"
		}
	}
	return fmt.Sprintf("addr=%s db=%s graphs=%s max_sessions=%d idle_timeout=%s log=%s/%s",
		c.Server.Addr, c.Database.Path, graphs,
		c.Sessions.MaxActive, c.Sessions.IdleTimeout.Duration(),
		c.Logging.Level, c.Logging.Format)
}
