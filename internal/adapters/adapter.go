// Package adapters provides provider-specific payload construction.
//
// DESIGN: The gateway fronts multiple LLM providers (OpenAI, Gemini, Ollama)
// with one canonical request shape. Each provider has a different native
// request format and a different feature set. Adapters abstract both with a
// Supports/BuildPayload pair:
//
//   - Supports:     structural, side-effect-free feature check
//   - BuildPayload: map canonical fields into the native request shape
//
// FLOW:
//  1. Engine resolves an adapter from the Registry by (provider, capability, version)
//  2. Engine calls Supports(req); a rejection carries an INCOMPATIBLE reason
//  3. Engine calls BuildPayload(req); a failure is a mapping defect, not an incompatibility
//
// To add a new provider: implement Adapter and pass it to NewRegistry.
package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/compresr/omni-transform/internal/canonical"
)

// Version identifies an adapter implementation revision.
type Version string

// DefaultVersion is the version every built-in adapter registers under.
const DefaultVersion Version = "v1"

// Key identifies a registry entry. It is unique per registry.
type Key struct {
	Provider   canonical.ProviderID `json:"provider"`
	Capability canonical.Capability `json:"capability"`
	Version    Version              `json:"version"`
}

// String returns "provider/capability/version".
func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Provider, k.Capability, k.Version)
}

// KeyOf returns the registry key an adapter declares.
func KeyOf(a Adapter) Key {
	return Key{Provider: a.Provider(), Capability: a.Capability(), Version: a.Version()}
}

// SupportReport is the result of a Supports check. Reason is set only when
// Supported is false, and always has class INCOMPATIBLE.
type SupportReport struct {
	Supported bool                      `json:"supported"`
	Reason    *canonical.ProviderReason `json:"reason,omitempty"`
}

// Supported reports that the request can be expressed.
func Supported() SupportReport {
	return SupportReport{Supported: true}
}

// Unsupported reports that the request cannot be expressed, and why.
func Unsupported(reason canonical.ProviderReason) SupportReport {
	return SupportReport{Supported: false, Reason: &reason}
}

// Adapter defines the unified interface for provider-specific request building.
// Adapters are stateless and safe for concurrent use.
type Adapter interface {
	// Name returns the adapter identifier (e.g., "openai", "gemini")
	Name() string

	// Provider returns the provider this adapter builds payloads for
	Provider() canonical.ProviderID

	// Capability returns the request capability this adapter handles
	Capability() canonical.Capability

	// Version returns the adapter revision
	Version() Version

	// Supports checks, without side effects, whether the provider can
	// express every feature the request asks for.
	Supports(req *canonical.ChatRequest) SupportReport

	// BuildPayload maps the request into the provider's native JSON body.
	// Errors are *canonical.Error with code PROVIDER_PAYLOAD_BUILD_FAILED.
	BuildPayload(req *canonical.ChatRequest) (json.RawMessage, error)
}

// BaseAdapter provides identity for all adapters.
type BaseAdapter struct {
	name       string
	provider   canonical.ProviderID
	capability canonical.Capability
	version    Version
}

func newBaseAdapter(provider canonical.ProviderID) BaseAdapter {
	return BaseAdapter{
		name:       provider.String(),
		provider:   provider,
		capability: canonical.CapabilityChat,
		version:    DefaultVersion,
	}
}

// Name returns the adapter name.
func (a *BaseAdapter) Name() string {
	return a.name
}

// Provider returns the provider identifier.
func (a *BaseAdapter) Provider() canonical.ProviderID {
	return a.provider
}

// Capability returns the handled capability.
func (a *BaseAdapter) Capability() canonical.Capability {
	return a.capability
}

// Version returns the adapter version.
func (a *BaseAdapter) Version() Version {
	return a.version
}
