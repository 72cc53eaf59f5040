package adapters

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/sjson"

	"github.com/compresr/omni-transform/internal/canonical"
)

// buildError creates the error BuildPayload returns for a mapping defect.
func buildError(message, reason string, cause error) *canonical.Error {
	details := map[string]any{"reason": reason}
	if cause != nil {
		details["error"] = cause.Error()
	}
	return canonical.NewError(canonical.ErrProviderPayloadBuildFailed, message, details, true)
}

// marshalPayload serializes a native payload struct.
func marshalPayload(provider canonical.ProviderID, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, buildError(provider.String()+" payload serialization failed", "payload could not be serialized", err)
	}
	return body, nil
}

// patchRaw sets a raw JSON block at path, marshalling value first.
func patchRaw(provider canonical.ProviderID, body []byte, path string, value any) (json.RawMessage, error) {
	block, err := json.Marshal(value)
	if err != nil {
		return nil, buildError(provider.String()+" payload serialization failed", "could not serialize "+path, err)
	}
	patched, err := sjson.SetRawBytes(body, path, block)
	if err != nil {
		return nil, buildError(provider.String()+" payload patch failed", "could not set "+path, err)
	}
	return patched, nil
}

// ErrorDetail extracts the code and message the engine records when
// BuildPayload fails. Errors that did not originate from an adapter map to
// INTERNAL_MAPPING_ERROR.
func ErrorDetail(err error) (canonical.ErrorCode, string) {
	var cerr *canonical.Error
	if errors.As(err, &cerr) {
		return cerr.Code, cerr.Message
	}
	return canonical.ErrInternalMappingError, err.Error()
}
