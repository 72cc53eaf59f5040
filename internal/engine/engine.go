// Package engine orchestrates one canonical-to-provider transform.
//
// DESIGN: Validating → Routing → Negotiating(i) → {Success | NextCandidate | Exhausted}
//  1. Validate the envelope; any violation ends the call before routing
//  2. Route the provider selection once (availability only)
//     - excluded providers are recorded as attempted at their preferred
//       position, with the router's reason
//  3. For each routed candidate, in order:
//     - no adapter registered  → CONFIG_ERROR, next candidate
//     - adapter.Supports says no → its INCOMPATIBLE reason, next candidate
//     - adapter.BuildPayload fails → ADAPTER_FAILURE, next candidate
//     - payload built → success, untried candidates become fallbacks
//  4. Nothing succeeded → NO_PROVIDER_AVAILABLE with every reason attached
//
// The engine holds only the registry, which is immutable, so one Engine is
// shared by any number of concurrent callers. Transform does no I/O.
package engine

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/compresr/omni-transform/internal/adapters"
	"github.com/compresr/omni-transform/internal/canonical"
	"github.com/compresr/omni-transform/internal/routing"
)

// Engine turns canonical envelopes into provider payloads.
type Engine struct {
	registry *adapters.Registry
	version  adapters.Version
	logger   zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithAdapterVersion selects which adapter version candidates resolve to.
func WithAdapterVersion(v adapters.Version) Option {
	return func(e *Engine) { e.version = v }
}

// WithLogger replaces the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine over registry.
func New(registry *adapters.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		version:  adapters.DefaultVersion,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's adapter registry.
func (e *Engine) Registry() *adapters.Registry {
	return e.registry
}

// Transform runs the whole pipeline for one envelope. It always returns a
// well-formed result.
func (e *Engine) Transform(env *canonical.CanonicalEnvelope) *Result {
	if err := canonical.Validate(env); err != nil {
		var cerr *canonical.Error
		if !errors.As(err, &cerr) {
			cerr = canonical.NewError(canonical.ErrInvalidCanonicalRequest, err.Error(), nil, false)
		}
		e.logger.Debug().Interface("details", cerr.Details).Msg("transform: validation failed")
		return Failure(cerr, nil, NewDiagnostics())
	}

	decision := routing.Route(env.Provider)
	for _, provider := range env.Provider.Preferred {
		if _, ok := env.Provider.Availability[provider]; !ok {
			e.logger.Debug().Str("provider", provider.String()).Msg("routing: no availability entry, assuming available")
		}
	}
	diag := NewDiagnostics()
	for provider, reason := range decision.Reasons {
		diag.ProviderReasons[provider] = reason
		e.logger.Debug().
			Str("provider", provider.String()).
			Str("code", string(reason.Code)).
			Msg("transform: excluded by routing")
	}
	warnings := []Warning{}
	attempts := &attemptLog{preferred: env.Provider.Preferred, excluded: decision.Reasons, diag: &diag}

	candidates := decision.Candidates()
	for idx, provider := range candidates {
		attempts.through(provider)

		key := adapters.Key{Provider: provider, Capability: canonical.CapabilityChat, Version: e.version}
		adapter, ok := e.registry.Get(key)
		if !ok {
			e.skip(&diag, provider, canonical.ProviderReason{
				Class:     canonical.ClassConfigError,
				Code:      canonical.CodeMissingAdapterRegistration,
				Retryable: false,
				Detail:    map[string]any{"provider": provider, "adapter_key": key.String()},
			})
			continue
		}

		support := adapter.Supports(&env.Request)
		if !support.Supported {
			reason := canonical.Incompatible(canonical.CodeUnsupportedParam, "unspecified")
			if support.Reason != nil {
				reason = *support.Reason
			}
			e.skip(&diag, provider, reason)
			continue
		}

		payload, err := adapter.BuildPayload(&env.Request)
		if err != nil {
			code, message := adapters.ErrorDetail(err)
			e.skip(&diag, provider, canonical.ProviderReason{
				Class:     canonical.ClassAdapterFailure,
				Code:      canonical.CodePayloadBuildError,
				Retryable: true,
				Detail:    map[string]any{"error_code": code, "message": message},
			})
			continue
		}

		fallbacks := append([]canonical.ProviderID{}, candidates[idx+1:]...)
		e.logger.Debug().
			Str("provider", provider.String()).
			Int("attempt", idx+1).
			Int("fallbacks", len(fallbacks)).
			Msg("transform: payload built")
		return Success(provider, payload, fallbacks, warnings, diag)
	}

	attempts.rest()
	e.logger.Debug().
		Int("attempted", len(diag.AttemptedProviders)).
		Int("reasons", len(diag.ProviderReasons)).
		Msg("transform: no provider available")

	return Failure(canonical.NewError(
		canonical.ErrNoProviderAvailable,
		"No configured providers are currently available",
		map[string]any{
			"attempted_providers": diag.AttemptedProviders,
			"reasons":             diag.ProviderReasons,
		},
		true,
	), warnings, diag)
}

// skip records why a candidate was passed over.
func (e *Engine) skip(diag *Diagnostics, provider canonical.ProviderID, reason canonical.ProviderReason) {
	diag.ProviderReasons[provider] = reason
	e.logger.Debug().
		Str("provider", provider.String()).
		Str("class", string(reason.Class)).
		Str("code", string(reason.Code)).
		Msg("transform: candidate skipped")
}

// attemptLog records attempted providers in preferred order. Providers the
// router excluded are folded in at their original position, so on failure
// the log equals the preferred list and every entry has a reason.
type attemptLog struct {
	preferred []canonical.ProviderID
	excluded  map[canonical.ProviderID]canonical.ProviderReason
	next      int
	diag      *Diagnostics
}

// through records every preferred entry up to and including candidate.
// Candidates are a subsequence of the preferred list, so the walk never
// skips a usable provider.
func (l *attemptLog) through(candidate canonical.ProviderID) {
	for l.next < len(l.preferred) {
		p := l.preferred[l.next]
		l.next++
		l.diag.AttemptedProviders = append(l.diag.AttemptedProviders, p)
		if _, excluded := l.excluded[p]; !excluded && p == candidate {
			return
		}
	}
}

// rest records the remaining preferred entries.
func (l *attemptLog) rest() {
	for ; l.next < len(l.preferred); l.next++ {
		l.diag.AttemptedProviders = append(l.diag.AttemptedProviders, l.preferred[l.next])
	}
}
