// Engine configuration - adapter version and provider enablement.
//
// DESIGN: Only enabled providers get an adapter registered. A provider the
// caller prefers but the operator disabled is therefore reported per call as
// CONFIG_ERROR/MISSING_ADAPTER_REGISTRATION rather than failing startup.
package config

import (
	"fmt"

	"github.com/compresr/omni-transform/internal/canonical"
)

// EngineConfig contains transform engine settings.
type EngineConfig struct {
	AdapterVersion string                    `yaml:"adapter_version"` // e.g. "v1"
	Providers      map[string]ProviderConfig `yaml:"providers"`       // keyed by provider id
}

// ProviderConfig contains per-provider settings.
type ProviderConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Validate checks the engine section.
func (e *EngineConfig) Validate() error {
	if e.AdapterVersion == "" {
		return fmt.Errorf("engine.adapter_version is required")
	}
	if len(e.Providers) == 0 {
		return fmt.Errorf("engine.providers is required")
	}
	for name := range e.Providers {
		if !canonical.ProviderID(name).Valid() {
			return fmt.Errorf("engine.providers: unknown provider %q", name)
		}
	}
	return nil
}

// EnabledProviders returns the enabled providers in canonical declaration order.
func (e *EngineConfig) EnabledProviders() []canonical.ProviderID {
	var enabled []canonical.ProviderID
	for _, id := range canonical.KnownProviders {
		if p, ok := e.Providers[id.String()]; ok && p.Enabled {
			enabled = append(enabled, id)
		}
	}
	return enabled
}
