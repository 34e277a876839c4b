// Package config loads and validates the rsvpd configuration.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (RSVPD_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete rsvpd configuration.
type Config struct {
	// Logging controls process log output
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains transport-level settings
	Server ServerConfig `mapstructure:"server"`

	// Audit specifies the audit sink type and type-specific configuration
	Audit AuditConfig `mapstructure:"audit"`

	// Metrics controls the Prometheus scrape endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls process logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// ServerConfig contains the transport settings of the RSVP server.
type ServerConfig struct {
	// Port the TCP listener binds to
	Port string `mapstructure:"port" validate:"required"`

	// MaxConnections bounds concurrently served connections (0 = unlimited)
	MaxConnections int `mapstructure:"max_connections" validate:"gte=0"`

	// ReadTimeout bounds reading one request payload
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"gte=0"`

	// WriteTimeout bounds writing one response
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`

	// RateLimit is the sustained requests-per-second budget (0 = unlimited)
	RateLimit uint `mapstructure:"rate_limit"`

	// RateBurst is the token bucket capacity (0 = 2x rate_limit)
	RateBurst uint `mapstructure:"rate_burst"`
}

// AuditConfig specifies the audit sink configuration.
//
// The Type field determines which sink implementation is used. Only the
// corresponding type-specific section is consulted.
type AuditConfig struct {
	// Type specifies which audit sink to use
	// Valid values: file, stdout
	Type string `mapstructure:"type" validate:"required,oneof=file stdout"`

	// File contains file-sink configuration
	// Only used when Type = "file"
	File map[string]any `mapstructure:"file"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns metrics collection and the scrape endpoint on
	Enabled bool `mapstructure:"enabled"`

	// Port the scrape endpoint listens on
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: path to a config file; empty uses the default location
//
// Returns the loaded and validated configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures environment variables and config file search.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the RSVPD_ prefix with underscores.
	// Example: RSVPD_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("RSVPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file is acceptable - defaults apply.
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path, preferring
// XDG_CONFIG_HOME, then ~/.config, then the current directory.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "rsvpd")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "rsvpd")
}
