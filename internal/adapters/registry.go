// Registry manages adapter lookup.
//
// DESIGN: Map of (provider, capability, version) → Adapter, built once at
// startup and never mutated afterwards. Because nothing writes after
// construction, concurrent lookups need no locking.
package adapters

import (
	"slices"
	"sort"

	"github.com/compresr/omni-transform/internal/canonical"
)

// Registry is an immutable adapter lookup table.
type Registry struct {
	adapters map[Key]Adapter
}

// NewRegistry builds a registry from the given adapters. An adapter whose
// key was already registered replaces the earlier one.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{
		adapters: make(map[Key]Adapter, len(adapters)),
	}
	for _, adapter := range adapters {
		r.adapters[KeyOf(adapter)] = adapter
	}
	return r
}

// BuiltinAdapters returns fresh instances of every built-in adapter.
func BuiltinAdapters() []Adapter {
	return []Adapter{
		NewOpenAIAdapter(),
		NewGeminiAdapter(),
		NewOllamaAdapter(),
	}
}

// DefaultRegistry creates a registry with all built-in adapters.
func DefaultRegistry() *Registry {
	return NewRegistry(BuiltinAdapters()...)
}

// RegistryFor creates a registry holding only the built-in adapters of the
// given providers.
func RegistryFor(providers ...canonical.ProviderID) *Registry {
	var selected []Adapter
	for _, adapter := range BuiltinAdapters() {
		if slices.Contains(providers, adapter.Provider()) {
			selected = append(selected, adapter)
		}
	}
	return NewRegistry(selected...)
}

// Get returns the adapter registered under key.
func (r *Registry) Get(key Key) (Adapter, bool) {
	adapter, ok := r.adapters[key]
	return adapter, ok
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	return len(r.adapters)
}

// Keys returns every registered key, sorted by provider, capability, version.
func (r *Registry) Keys() []Key {
	keys := make([]Key, 0, len(r.adapters))
	for k := range r.adapters {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Provider != b.Provider {
			return a.Provider < b.Provider
		}
		if a.Capability != b.Capability {
			return a.Capability < b.Capability
		}
		return a.Version < b.Version
	})
	return keys
}
