// Package routing filters a preferred provider list against an availability snapshot.
//
// DESIGN: Availability-first routing (no feature negotiation here):
//  1. Snapshot marks provider unavailable       → excluded (UNAVAILABLE, retryable)
//  2. Snapshot marks provider incompatible      → excluded (INCOMPATIBLE, not retryable)
//  3. Otherwise, including no snapshot entry    → usable
//
// Order is preserved and nothing is deduplicated. Whether a provider can
// express the request's features is decided later, per candidate, by its
// adapter.
package routing

import (
	"github.com/compresr/omni-transform/internal/canonical"
)

// snapshotSource tags reasons derived from the caller-supplied snapshot.
const snapshotSource = "host_snapshot"

// Decision is the outcome of routing one provider selection.
type Decision struct {
	Selected  *canonical.ProviderID                             // first usable provider, nil if none
	Fallbacks []canonical.ProviderID                            // remaining usable providers, original order
	Reasons   map[canonical.ProviderID]canonical.ProviderReason // why each excluded provider was excluded
}

// Candidates returns the selected provider followed by its fallbacks.
func (d Decision) Candidates() []canonical.ProviderID {
	if d.Selected == nil {
		return []canonical.ProviderID{}
	}
	candidates := make([]canonical.ProviderID, 0, 1+len(d.Fallbacks))
	candidates = append(candidates, *d.Selected)
	return append(candidates, d.Fallbacks...)
}

// Route partitions sel.Preferred into usable and excluded providers.
// A provider with no availability entry is assumed available.
func Route(sel canonical.ProviderSelection) Decision {
	usable := make([]canonical.ProviderID, 0, len(sel.Preferred))
	reasons := make(map[canonical.ProviderID]canonical.ProviderReason)

	for _, provider := range sel.Preferred {
		status, ok := sel.Availability[provider]
		switch {
		case !ok:
			usable = append(usable, provider)

		case !status.Available:
			reasons[provider] = canonical.ProviderReason{
				Class:     canonical.ClassUnavailable,
				Code:      canonical.CodeHostMarkedUnavailable,
				Retryable: true,
				Detail: map[string]any{
					"source":               snapshotSource,
					"reason":               status.Reason,
					"last_seen_healthy_at": status.LastSeenHealthyAt,
				},
			}

		case status.Compatible != nil && !*status.Compatible:
			reasons[provider] = canonical.ProviderReason{
				Class:     canonical.ClassIncompatible,
				Code:      canonical.CodeUnsupportedParam,
				Retryable: false,
				Detail: map[string]any{
					"source": snapshotSource,
					"reason": status.Reason,
				},
			}

		default:
			usable = append(usable, provider)
		}
	}

	decision := Decision{
		Fallbacks: []canonical.ProviderID{},
		Reasons:   reasons,
	}
	if len(usable) > 0 {
		selected := usable[0]
		decision.Selected = &selected
		decision.Fallbacks = append(decision.Fallbacks, usable[1:]...)
	}
	return decision
}
