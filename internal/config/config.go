// Package config loads and validates the transform service configuration.
//
// DESIGN: Configuration comes from YAML files. The binary embeds a default
// file, so every value is still explicit and auditable; Validate applies no
// defaults of its own.
//
// FILES:
//   - config.go:     Root Config struct, LoadFromBytes(), ParseBytes(), Validate()
//   - engine.go:     Adapter version and per-provider enablement
//   - monitoring.go: Logging and telemetry settings
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the transform service.
type Config struct {
	Server     ServerConfig     `yaml:"server"`     // HTTP server settings (serve mode)
	Engine     EngineConfig     `yaml:"engine"`     // Adapter registry and version
	Monitoring MonitoringConfig `yaml:"monitoring"` // Telemetry and logging
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`           // Port to listen on
	ReadTimeout  time.Duration `yaml:"read_timeout"`   // Max time to read request
	WriteTimeout time.Duration `yaml:"write_timeout"`  // Max time to write response
	RateLimit    int           `yaml:"rate_limit"`     // Requests per second per client IP
	MaxBodyBytes int64         `yaml:"max_body_bytes"` // Max canonical envelope size
}

var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvWithDefaults expands environment variables with support for default values.
// Supports both ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// LoadFromBytes parses configuration from raw YAML bytes and validates
// every section. The serve command loads through here.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg, err := ParseBytes(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ParseBytes expands ${VAR:-default} references, decodes the YAML and
// applies env overrides. It does not validate; callers pick the check
// that matches what they run.
func ParseBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()
	return &cfg, nil
}

// applyEnvOverrides lets deployments redirect logs without editing config files.
func (c *Config) applyEnvOverrides() {
	// OMNI_TELEMETRY_LOG overrides the telemetry path and enables telemetry
	if envPath := os.Getenv("OMNI_TELEMETRY_LOG"); envPath != "" {
		c.Monitoring.TelemetryPath = envPath
		c.Monitoring.TelemetryEnabled = true
	}

	if level := os.Getenv("OMNI_LOG_LEVEL"); level != "" {
		c.Monitoring.LogLevel = level
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ReadTimeout == 0 {
		return fmt.Errorf("server.read_timeout is required")
	}
	if c.Server.WriteTimeout == 0 {
		return fmt.Errorf("server.write_timeout is required")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("invalid server.rate_limit: %d (must be >= 0)", c.Server.RateLimit)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes is required")
	}

	return c.ValidateTransform()
}

// ValidateTransform checks only the engine and monitoring sections. The
// transform command never listens, so server settings do not apply to it.
func (c *Config) ValidateTransform() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	return c.Monitoring.Validate()
}
