package config_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compresr/omni-transform/internal/canonical"
	"github.com/compresr/omni-transform/internal/config"
)

const validYAML = `
server:
  port: 18090
  read_timeout: 10s
  write_timeout: 15s
  rate_limit: 50
  max_body_bytes: 1024
engine:
  adapter_version: v1
  providers:
    ollama: {enabled: true}
    openai: {enabled: true}
    gemini: {enabled: false}
monitoring:
  log_level: info
  log_format: json
  log_output: stderr
`

// =============================================================================
// LOADING
// =============================================================================

func TestLoadFromBytes_Valid(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, 18090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 50, cfg.Server.RateLimit)
	assert.Equal(t, int64(1024), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "v1", cfg.Engine.AdapterVersion)
	assert.Equal(t, "json", cfg.Monitoring.LogFormat)
	assert.False(t, cfg.Monitoring.TelemetryEnabled)
}

func TestLoadFromBytes_EnvExpansion(t *testing.T) {
	t.Setenv("OMNI_TEST_PORT", "19000")

	data := `
server:
  port: ${OMNI_TEST_PORT:-1}
  read_timeout: ${OMNI_TEST_UNSET_TIMEOUT:-3s}
  write_timeout: 3s
  max_body_bytes: 1
engine:
  adapter_version: ${OMNI_TEST_UNSET_VERSION:-v1}
  providers:
    openai: {enabled: true}
monitoring:
  log_format: console
`
	cfg, err := config.LoadFromBytes([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, 19000, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "v1", cfg.Engine.AdapterVersion)
}

func TestLoadFromBytes_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.jsonl")
	t.Setenv("OMNI_TELEMETRY_LOG", path)
	t.Setenv("OMNI_LOG_LEVEL", "debug")

	cfg, err := config.LoadFromBytes([]byte(validYAML))
	require.NoError(t, err)

	assert.True(t, cfg.Monitoring.TelemetryEnabled)
	assert.Equal(t, path, cfg.Monitoring.TelemetryPath)
	assert.Equal(t, "debug", cfg.Monitoring.LogLevel)
}

func TestLoadFromBytes_ParseError(t *testing.T) {
	_, err := config.LoadFromBytes([]byte("server: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestParseBytes_DoesNotValidate(t *testing.T) {
	t.Setenv("OMNI_TEST_PORT", "70000")
	data := strings.Replace(validYAML, "port: 18090", "port: ${OMNI_TEST_PORT}", 1)

	_, err := config.LoadFromBytes([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server.port: 70000")

	cfg, err := config.ParseBytes([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, 70000, cfg.Server.Port)
	assert.NoError(t, cfg.ValidateTransform())
}

func TestValidateTransform_IgnoresServerSection(t *testing.T) {
	cfg := validConfig(t)
	cfg.Server = config.ServerConfig{}
	assert.NoError(t, cfg.ValidateTransform())
	assert.Error(t, cfg.Validate())

	cfg.Engine.AdapterVersion = ""
	assert.Error(t, cfg.ValidateTransform())
}

// =============================================================================
// VALIDATION
// =============================================================================

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromBytes([]byte(validYAML))
	require.NoError(t, err)
	return cfg
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr string
	}{
		{"missing port", func(c *config.Config) { c.Server.Port = 0 }, "server.port is required"},
		{"port out of range", func(c *config.Config) { c.Server.Port = 70000 }, "invalid server.port"},
		{"missing read timeout", func(c *config.Config) { c.Server.ReadTimeout = 0 }, "server.read_timeout"},
		{"missing write timeout", func(c *config.Config) { c.Server.WriteTimeout = 0 }, "server.write_timeout"},
		{"negative rate limit", func(c *config.Config) { c.Server.RateLimit = -1 }, "server.rate_limit"},
		{"missing body limit", func(c *config.Config) { c.Server.MaxBodyBytes = 0 }, "server.max_body_bytes"},
		{"missing adapter version", func(c *config.Config) { c.Engine.AdapterVersion = "" }, "engine.adapter_version"},
		{"no providers", func(c *config.Config) { c.Engine.Providers = nil }, "engine.providers is required"},
		{"unknown provider", func(c *config.Config) {
			c.Engine.Providers["anthropic"] = config.ProviderConfig{Enabled: true}
		}, `unknown provider "anthropic"`},
		{"bad log format", func(c *config.Config) { c.Monitoring.LogFormat = "xml" }, "monitoring.log_format"},
		{"telemetry without path", func(c *config.Config) {
			c.Monitoring.TelemetryEnabled = true
			c.Monitoring.TelemetryPath = ""
		}, "monitoring.telemetry_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnabledProviders_DeclarationOrder(t *testing.T) {
	cfg := validConfig(t)

	assert.Equal(t, []canonical.ProviderID{canonical.ProviderOpenAI, canonical.ProviderOllama}, cfg.Engine.EnabledProviders())

	cfg.Engine.Providers = map[string]config.ProviderConfig{"gemini": {Enabled: false}}
	assert.Empty(t, cfg.Engine.EnabledProviders())
}
