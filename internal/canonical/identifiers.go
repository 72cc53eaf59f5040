// Package canonical defines the provider-agnostic chat request shape.
//
// DESIGN: Everything a caller sends lives here, plus the shared reason and
// error taxonomy that every later stage reports with:
//
//   - identifiers.go: ProviderID, Capability, MessageRole (strict decoding)
//   - envelope.go:    CanonicalEnvelope and ChatRequest types
//   - content.go:     ContentPart and ToolChoice unions with custom codecs
//   - generation.go:  GenerationConfig and its defaults table
//   - taxonomy.go:    ReasonClass, ReasonCode, ErrorCode, ProviderReason, Error
//   - validate.go:    single-pass envelope validation
//
// Unknown identifiers fail decoding instead of being carried as free strings,
// so a typo in "preferred" is reported at the boundary, not as a silent skip.
package canonical

import "fmt"

// =============================================================================
// PROVIDERS
// =============================================================================

// ProviderID identifies a backend provider on the wire.
type ProviderID string

const (
	ProviderOpenAI ProviderID = "openai"
	ProviderGemini ProviderID = "gemini"
	ProviderOllama ProviderID = "ollama"
)

// KnownProviders lists every provider identifier in declaration order.
var KnownProviders = []ProviderID{ProviderOpenAI, ProviderGemini, ProviderOllama}

// String returns the wire form.
func (p ProviderID) String() string { return string(p) }

// Valid reports whether p is a known provider.
func (p ProviderID) Valid() bool {
	for _, known := range KnownProviders {
		if p == known {
			return true
		}
	}
	return false
}

// UnmarshalText rejects unknown provider identifiers. It is also used for
// map keys in the availability snapshot.
func (p *ProviderID) UnmarshalText(text []byte) error {
	id := ProviderID(text)
	if !id.Valid() {
		return fmt.Errorf("unknown provider %q", string(text))
	}
	*p = id
	return nil
}

// MarshalText returns the wire form.
func (p ProviderID) MarshalText() ([]byte, error) {
	return []byte(p), nil
}

// =============================================================================
// CAPABILITIES
// =============================================================================

// Capability names the kind of request being normalized.
type Capability string

// CapabilityChat is the only capability currently defined.
const CapabilityChat Capability = "chat"

// UnmarshalText rejects unknown capabilities.
func (c *Capability) UnmarshalText(text []byte) error {
	if Capability(text) != CapabilityChat {
		return fmt.Errorf("unknown capability %q", string(text))
	}
	*c = Capability(text)
	return nil
}

// =============================================================================
// ROLES
// =============================================================================

// MessageRole is the author of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// UnmarshalText rejects unknown roles.
func (r *MessageRole) UnmarshalText(text []byte) error {
	switch role := MessageRole(text); role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		*r = role
		return nil
	default:
		return fmt.Errorf("unknown message role %q", string(text))
	}
}
