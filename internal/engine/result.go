package engine

import (
	"encoding/json"

	"github.com/compresr/omni-transform/internal/canonical"
)

// =============================================================================
// RESULT TYPES - the output document of a transform call
// =============================================================================

// Warning is a non-fatal observation attached to a result.
type Warning struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Detail  map[string]any `json:"detail"`
}

// Diagnostics is the observability bundle accumulated during one call.
// DroppedFields, Coercions and MappingTrace are extension points and stay
// empty today.
type Diagnostics struct {
	DroppedFields      []string                                          `json:"dropped_fields"`
	Coercions          []string                                          `json:"coercions"`
	MappingTrace       []string                                          `json:"mapping_trace"`
	ProviderReasons    map[canonical.ProviderID]canonical.ProviderReason `json:"provider_reasons"`
	AttemptedProviders []canonical.ProviderID                            `json:"attempted_providers"` // invocation order, append-only
}

// NewDiagnostics returns diagnostics with every collection initialized, so
// the document always carries [] and {} rather than null.
func NewDiagnostics() Diagnostics {
	return Diagnostics{
		DroppedFields:      []string{},
		Coercions:          []string{},
		MappingTrace:       []string{},
		ProviderReasons:    map[canonical.ProviderID]canonical.ProviderReason{},
		AttemptedProviders: []canonical.ProviderID{},
	}
}

// Result is the outcome of a transform call.
type Result struct {
	OK                 bool                   `json:"ok"`
	SelectedProvider   *canonical.ProviderID  `json:"selected_provider"`
	ProviderPayload    json.RawMessage        `json:"provider_payload"`
	FallbackCandidates []canonical.ProviderID `json:"fallback_candidates"` // untried suffix of the routed order
	Warnings           []Warning              `json:"warnings"`
	Diagnostics        Diagnostics            `json:"diagnostics"`
	Error              *canonical.Error       `json:"error"`
}

// Success creates a successful result.
func Success(provider canonical.ProviderID, payload json.RawMessage, fallbacks []canonical.ProviderID, warnings []Warning, diag Diagnostics) *Result {
	if fallbacks == nil {
		fallbacks = []canonical.ProviderID{}
	}
	if warnings == nil {
		warnings = []Warning{}
	}
	return &Result{
		OK:                 true,
		SelectedProvider:   &provider,
		ProviderPayload:    payload,
		FallbackCandidates: fallbacks,
		Warnings:           warnings,
		Diagnostics:        diag,
	}
}

// Failure creates a failed result.
func Failure(err *canonical.Error, warnings []Warning, diag Diagnostics) *Result {
	if warnings == nil {
		warnings = []Warning{}
	}
	return &Result{
		OK:                 false,
		FallbackCandidates: []canonical.ProviderID{},
		Warnings:           warnings,
		Diagnostics:        diag,
		Error:              err,
	}
}

// ReadFailure is the result emitted when the input document could not be read.
func ReadFailure(err error) *Result {
	return Failure(canonical.NewError(
		canonical.ErrInternalMappingError,
		"Failed to read canonical request",
		map[string]any{"error": err.Error()},
		true,
	), nil, NewDiagnostics())
}

// StartupFailure is the result emitted when the transform could not be set
// up at all. stage names the step that failed (flags, config, init).
func StartupFailure(stage string, err error) *Result {
	return Failure(canonical.NewError(
		canonical.ErrInternalMappingError,
		"Failed to initialize transform",
		map[string]any{"stage": stage, "error": err.Error()},
		false,
	), nil, NewDiagnostics())
}

// DecodeFailure is the result emitted when the input document is not a
// valid canonical envelope.
func DecodeFailure(err error) *Result {
	return Failure(canonical.NewError(
		canonical.ErrInvalidCanonicalRequest,
		"Failed to deserialize canonical request",
		map[string]any{"error": err.Error()},
		false,
	), nil, NewDiagnostics())
}

// ErrorCode returns the failure code, or "" on success.
func (r *Result) ErrorCode() canonical.ErrorCode {
	if r.Error == nil {
		return ""
	}
	return r.Error.Code
}
