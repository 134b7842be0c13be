package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Graphs   GraphsConfig   `yaml:"graphs"`
	Sessions SessionsConfig `yaml:"sessions"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`

	// AllowedOrigins feeds the CORS middleware; empty allows any origin
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// GraphsConfig controls loading graph files from disk
type GraphsConfig struct {
	Dir      string   `yaml:"dir"`                       // Empty disables file loading
	Watch    bool     `yaml:"watch"`                     // Re-import files as they change
	Debounce Duration `yaml:"debounce" validate:"gte=0"` // Quiet period before re-import
	Catalog  string   `yaml:"catalog,omitempty"`         // Optional localization catalog file
	Locale   string   `yaml:"locale,omitempty"`          // Locale used with Catalog
}

// SessionsConfig bounds live dialogue sessions
type SessionsConfig struct {
	MaxActive   int      `yaml:"max_active" validate:"gte=1"`
	IdleTimeout Duration `yaml:"idle_timeout" validate:"gte=0"` // Zero keeps idle sessions forever
}

// LoggingConfig selects the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
