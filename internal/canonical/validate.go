package canonical

import (
	"fmt"
	"strings"
)

// Validate checks an envelope in a single pass and reports every violation
// it finds. It returns nil when the envelope is valid, otherwise a
// non-retryable INVALID_CANONICAL_REQUEST error whose details carry the
// full "violations" list.
func Validate(env *CanonicalEnvelope) error {
	var violations []string

	if env.Capability != CapabilityChat {
		violations = append(violations, fmt.Sprintf("capability must be %q", CapabilityChat))
	}

	if len(env.Provider.Preferred) == 0 {
		violations = append(violations, "provider.preferred must contain at least one provider")
	}

	req := &env.Request
	if strings.TrimSpace(req.Model) == "" {
		violations = append(violations, "request.model must not be empty")
	}

	if len(req.Messages) == 0 {
		violations = append(violations, "request.messages must contain at least one message")
	}

	for msgIdx, msg := range req.Messages {
		if len(msg.Content) == 0 {
			violations = append(violations, fmt.Sprintf("request.messages[%d].content must contain at least one part", msgIdx))
		}
		for partIdx, part := range msg.Content {
			switch part.Type {
			case ContentText:
				if strings.TrimSpace(part.Text) == "" {
					violations = append(violations, fmt.Sprintf("request.messages[%d].content[%d] text must not be empty", msgIdx, partIdx))
				}
			case ContentImageURL:
				if strings.TrimSpace(part.URL) == "" {
					violations = append(violations, fmt.Sprintf("request.messages[%d].content[%d] url must not be empty", msgIdx, partIdx))
				}
			}
		}
	}

	for toolIdx, tool := range req.Tools {
		if strings.TrimSpace(tool.Name) == "" {
			violations = append(violations, fmt.Sprintf("request.tools[%d].name must not be empty", toolIdx))
		}
	}

	if req.ToolChoice != nil && req.ToolChoice.Named() && strings.TrimSpace(req.ToolChoice.Name) == "" {
		violations = append(violations, "request.tool_choice.name must not be empty")
	}

	if req.WantsJSONSchema() && !req.ResponseFormat.HasSchema() {
		violations = append(violations, "request.response_format.json_schema is required when type is json_schema")
	}

	gen := req.Generation
	if gen.Temperature < MinTemperature || gen.Temperature > MaxTemperature {
		violations = append(violations, "request.generation.temperature must be between 0.0 and 2.0")
	}
	if gen.TopP < MinTopP || gen.TopP > MaxTopP {
		violations = append(violations, "request.generation.top_p must be between 0.0 and 1.0")
	}
	if gen.MaxTokens <= 0 {
		violations = append(violations, "request.generation.max_tokens must be greater than 0")
	}

	if len(violations) == 0 {
		return nil
	}

	return NewError(
		ErrInvalidCanonicalRequest,
		"Canonical request validation failed",
		map[string]any{"violations": violations},
		false,
	)
}
