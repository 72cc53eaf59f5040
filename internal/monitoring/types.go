// Package monitoring - types.go defines shared types.
//
// DESIGN: These types are used by the gateway, the CLI and monitoring itself.
// Defined here ONCE to avoid duplication and circular imports.
//
// TYPES:
//   - Outcome:        Coarse classification of a transform result
//   - TransformEvent: Telemetry data for each transform call
//   - Config types:   TelemetryConfig, LoggerConfig
package monitoring

import "time"

// =============================================================================
// OUTCOMES - Used by metrics, tracing and telemetry
// =============================================================================

// Outcome classifies how a transform call ended.
type Outcome string

const (
	OutcomeSelected  Outcome = "selected"  // first routed candidate succeeded
	OutcomeFallback  Outcome = "fallback"  // a later candidate succeeded
	OutcomeExhausted Outcome = "exhausted" // every candidate was rejected
	OutcomeInvalid   Outcome = "invalid"   // rejected before routing
)

// =============================================================================
// EVENT TYPES - Structured data for telemetry recording
// =============================================================================

// TransformEvent captures one transform call.
type TransformEvent struct {
	RequestID          string            `json:"request_id"`
	Timestamp          time.Time         `json:"timestamp"`
	Source             string            `json:"source"` // cli, http
	Model              string            `json:"model,omitempty"`
	Preferred          []string          `json:"preferred"`
	Outcome            Outcome           `json:"outcome"`
	OK                 bool              `json:"ok"`
	SelectedProvider   string            `json:"selected_provider,omitempty"`
	AttemptedProviders []string          `json:"attempted_providers"`
	FallbackCandidates []string          `json:"fallback_candidates"`
	ReasonCodes        map[string]string `json:"reason_codes,omitempty"` // provider -> reason code
	ErrorCode          string            `json:"error_code,omitempty"`
	PayloadBytes       int               `json:"payload_bytes"`
	LatencyUs          int64             `json:"latency_us"`
}

// =============================================================================
// CONFIG TYPES
// =============================================================================

// TelemetryConfig contains telemetry configuration.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	LogPath     string `yaml:"log_path"`
	LogToStdout bool   `yaml:"log_to_stdout"`
}

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	Output string `yaml:"output"` // stdout, stderr, or file path
}
