package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// =============================================================================
// ENVELOPE
// =============================================================================

// CanonicalEnvelope is the top-level input document of a transform call.
type CanonicalEnvelope struct {
	Capability Capability        `json:"capability"`
	Provider   ProviderSelection `json:"provider"`
	Request    ChatRequest       `json:"request"`
	Metadata   json.RawMessage   `json:"metadata,omitempty"` // passthrough, never interpreted
}

// DecodeEnvelope parses a canonical envelope from JSON.
func DecodeEnvelope(data []byte) (*CanonicalEnvelope, error) {
	var env CanonicalEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode canonical envelope: %w", err)
	}
	return &env, nil
}

// ProviderSelection carries the caller's ordered preference and the
// availability snapshot the router filters it against.
type ProviderSelection struct {
	Preferred    []ProviderID                        `json:"preferred"`
	Availability map[ProviderID]ProviderAvailability `json:"availability,omitempty"`
}

// ProviderAvailability is one host-supplied snapshot entry. It is read by
// the router only and never mutated.
type ProviderAvailability struct {
	Available         bool    `json:"available"`
	Compatible        *bool   `json:"compatible,omitempty"`
	Reason            *string `json:"reason,omitempty"`
	LastSeenHealthyAt *string `json:"last_seen_healthy_at,omitempty"`
}

// UnmarshalJSON requires the "available" flag; the remaining fields are optional.
func (a *ProviderAvailability) UnmarshalJSON(data []byte) error {
	if !gjson.GetBytes(data, "available").Exists() {
		return fmt.Errorf("availability entry is missing required field \"available\"")
	}
	type alias ProviderAvailability
	var v alias
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = ProviderAvailability(v)
	return nil
}

// =============================================================================
// CHAT REQUEST
// =============================================================================

// ChatRequest is the provider-agnostic chat request.
type ChatRequest struct {
	Model          string           `json:"model"`
	Messages       []ChatMessage    `json:"messages"`
	Tools          []ToolDefinition `json:"tools,omitempty"`
	ToolChoice     *ToolChoice      `json:"tool_choice,omitempty"`
	ResponseFormat *ResponseFormat  `json:"response_format,omitempty"`
	Generation     GenerationConfig `json:"generation"`
	Stream         bool             `json:"stream"`
}

// NewChatRequest creates a request with default generation settings.
func NewChatRequest(model string, messages ...ChatMessage) ChatRequest {
	return ChatRequest{
		Model:      model,
		Messages:   messages,
		Generation: DefaultGenerationConfig(),
	}
}

// UnmarshalJSON seeds generation defaults so an omitted "generation" block
// decodes to the defaults table rather than zero values.
func (r *ChatRequest) UnmarshalJSON(data []byte) error {
	type alias ChatRequest
	v := alias{Generation: DefaultGenerationConfig()}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = ChatRequest(v)
	return nil
}

// HasTools reports whether any tool definitions are present.
func (r *ChatRequest) HasTools() bool {
	return len(r.Tools) > 0
}

// WantsJSONSchema reports whether structured JSON-schema output is requested.
func (r *ChatRequest) WantsJSONSchema() bool {
	return r.ResponseFormat != nil && r.ResponseFormat.Type == ResponseFormatJSONSchema
}

// HasImages reports whether any message carries an image part.
func (r *ChatRequest) HasImages() bool {
	for _, msg := range r.Messages {
		for _, part := range msg.Content {
			if part.Type == ContentImageURL {
				return true
			}
		}
	}
	return false
}

// ChatMessage is one message of the conversation.
type ChatMessage struct {
	Role       MessageRole   `json:"role"`
	Content    []ContentPart `json:"content"`
	Name       *string       `json:"name,omitempty"`
	ToolCallID *string       `json:"tool_call_id,omitempty"`
}

// NewMessage creates a message with the given parts.
func NewMessage(role MessageRole, parts ...ContentPart) ChatMessage {
	return ChatMessage{Role: role, Content: parts}
}

// UserText is shorthand for a single-part user text message.
func UserText(text string) ChatMessage {
	return NewMessage(RoleUser, TextPart(text))
}

// ToolDefinition declares a callable tool. InputSchema is opaque.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// =============================================================================
// RESPONSE FORMAT
// =============================================================================

// ResponseFormatType selects plain text or schema-constrained JSON output.
type ResponseFormatType string

const (
	ResponseFormatText       ResponseFormatType = "text"
	ResponseFormatJSONSchema ResponseFormatType = "json_schema"
)

// UnmarshalText rejects unknown format types.
func (t *ResponseFormatType) UnmarshalText(text []byte) error {
	switch v := ResponseFormatType(text); v {
	case ResponseFormatText, ResponseFormatJSONSchema:
		*t = v
		return nil
	default:
		return fmt.Errorf("unknown response_format type %q", string(text))
	}
}

// ResponseFormat requests a response shape. JSONSchema is required only
// when Type is json_schema.
type ResponseFormat struct {
	Type       ResponseFormatType `json:"type"`
	JSONSchema json.RawMessage    `json:"json_schema,omitempty"`
}

// HasSchema reports whether a non-null schema payload was supplied.
func (f *ResponseFormat) HasSchema() bool {
	trimmed := bytes.TrimSpace(f.JSONSchema)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
