package canonical

// =============================================================================
// REASONS - why a provider was skipped or failed
// =============================================================================

// ReasonClass is the coarse classification of a provider reason.
type ReasonClass string

const (
	ClassUnavailable    ReasonClass = "UNAVAILABLE"
	ClassIncompatible   ReasonClass = "INCOMPATIBLE"
	ClassAdapterFailure ReasonClass = "ADAPTER_FAILURE"
	ClassConfigError    ReasonClass = "CONFIG_ERROR"
	ClassPolicyBlocked  ReasonClass = "POLICY_BLOCKED"
)

// ReasonCode is the fine-grained code of a provider reason.
// Several codes are reserved for routing features that are not scheduled
// by this module (circuit breaking, cooldowns, policy).
type ReasonCode string

const (
	// Unavailable
	CodeHealthcheckDown       ReasonCode = "HEALTHCHECK_DOWN"
	CodeHostMarkedUnavailable ReasonCode = "HOST_MARKED_UNAVAILABLE"
	CodeCircuitOpen           ReasonCode = "CIRCUIT_OPEN"
	CodeRateLimitCooldown     ReasonCode = "RATE_LIMIT_COOLDOWN"
	CodeTimeoutRecent         ReasonCode = "TIMEOUT_RECENT"

	// Incompatible
	CodeUnsupportedModel             ReasonCode = "UNSUPPORTED_MODEL"
	CodeUnsupportedToolCalling       ReasonCode = "UNSUPPORTED_TOOL_CALLING"
	CodeUnsupportedResponseFormat    ReasonCode = "UNSUPPORTED_RESPONSE_FORMAT"
	CodeUnsupportedMultimodalContent ReasonCode = "UNSUPPORTED_MULTIMODAL_CONTENT"
	CodeUnsupportedParam             ReasonCode = "UNSUPPORTED_PARAM"

	// Adapter failure
	CodePayloadBuildError                ReasonCode = "PAYLOAD_BUILD_ERROR"
	CodeCanonicalToProviderMappingFailed ReasonCode = "CANONICAL_TO_PROVIDER_MAPPING_FAILED"
	CodeSerializationError               ReasonCode = "SERIALIZATION_ERROR"
	CodeAdapterVersionMismatch           ReasonCode = "ADAPTER_VERSION_MISMATCH"
	CodeInternalAdapterError             ReasonCode = "INTERNAL_ADAPTER_ERROR"

	// Config error
	CodeMissingProviderConfig      ReasonCode = "MISSING_PROVIDER_CONFIG"
	CodeInvalidProviderConfig      ReasonCode = "INVALID_PROVIDER_CONFIG"
	CodeMissingAdapterRegistration ReasonCode = "MISSING_ADAPTER_REGISTRATION"
	CodeInvalidRoutingConfig       ReasonCode = "INVALID_ROUTING_CONFIG"
	CodeInvalidAPIVersionTarget    ReasonCode = "INVALID_API_VERSION_TARGET"

	// Policy
	CodeProviderNotAllowed        ReasonCode = "PROVIDER_NOT_ALLOWED"
	CodeModelNotAllowed           ReasonCode = "MODEL_NOT_ALLOWED"
	CodeFeatureNotAllowed         ReasonCode = "FEATURE_NOT_ALLOWED"
	CodeDataClassificationBlocked ReasonCode = "DATA_CLASSIFICATION_BLOCKED"
	CodeRegionRestricted          ReasonCode = "REGION_RESTRICTED"
)

// ProviderReason explains why a provider was excluded, skipped, or failed.
// Detail is opaque to callers and exists for observability.
type ProviderReason struct {
	Class     ReasonClass    `json:"class"`
	Code      ReasonCode     `json:"code"`
	Retryable bool           `json:"retryable"`
	Detail    map[string]any `json:"detail"`
}

// Incompatible builds a non-retryable INCOMPATIBLE reason for a feature.
func Incompatible(code ReasonCode, feature string) ProviderReason {
	return ProviderReason{
		Class:     ClassIncompatible,
		Code:      code,
		Retryable: false,
		Detail:    map[string]any{"feature": feature},
	}
}

// =============================================================================
// ERRORS - top-level failures of a transform call
// =============================================================================

// ErrorCode classifies a top-level transform failure.
type ErrorCode string

const (
	ErrInvalidCanonicalRequest       ErrorCode = "INVALID_CANONICAL_REQUEST"
	ErrMissingRequiredField          ErrorCode = "MISSING_REQUIRED_FIELD"
	ErrUnsupportedFeatureForProvider ErrorCode = "UNSUPPORTED_FEATURE_FOR_PROVIDER"
	ErrProviderPayloadBuildFailed    ErrorCode = "PROVIDER_PAYLOAD_BUILD_FAILED"
	ErrNoProviderAvailable           ErrorCode = "NO_PROVIDER_AVAILABLE"
	ErrRoutingConfigInvalid          ErrorCode = "ROUTING_CONFIG_INVALID"
	ErrInternalMappingError          ErrorCode = "INTERNAL_MAPPING_ERROR"
)

// Error is the structured error carried by a failed transform result.
type Error struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details"`
	Retryable bool           `json:"retryable"`
}

// NewError creates a structured error.
func NewError(code ErrorCode, message string, details map[string]any, retryable bool) *Error {
	if details == nil {
		details = map[string]any{}
	}
	return &Error{Code: code, Message: message, Details: details, Retryable: retryable}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}
