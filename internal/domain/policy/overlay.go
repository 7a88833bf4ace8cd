package policy

import (
	"strings"

	"dario.cat/mergo"
)

// RuleKind names which permission set a grant/revoke targets.
type RuleKind string

const (
	RuleStorage RuleKind = "storage"
	RuleNetwork RuleKind = "network"
	RuleEnv     RuleKind = "environment"
)

// Overlay is the in-memory grant/revoke layer of spec.md §9 ("Policy
// overlays"): runtime grant/revoke never rewrites the on-disk policy
// document; it accumulates here and is merged with the base document on
// every compile and on get_policy.
type Overlay struct {
	Granted Document
	Revoked Document
}

// NewOverlay returns an empty overlay equivalent to "no runtime changes".
func NewOverlay() *Overlay {
	return &Overlay{Granted: Document{Version: CurrentVersion}, Revoked: Document{Version: CurrentVersion}}
}

// GrantStorage adds a runtime storage allow rule.
func (o *Overlay) GrantStorage(r StorageRule) {
	o.Granted.Storage.Allow = append(o.Granted.Storage.Allow, r)
}

// RevokeStorage adds a runtime storage deny rule, which (being deny) wins
// over any allow at equal-or-shorter prefix once compiled.
func (o *Overlay) RevokeStorage(r StorageRule) {
	o.Revoked.Storage.Deny = append(o.Revoked.Storage.Deny, r)
}

// GrantNetwork adds a runtime network allow rule.
func (o *Overlay) GrantNetwork(r NetworkRule) {
	o.Granted.Network.Allow = append(o.Granted.Network.Allow, r)
}

// RevokeNetwork undoes a runtime network grant for the given host. A
// deny entry alone isn't enough here: NetMatcher.Decide picks the most
// specific matching rule, and a host+port grant outranks a host-only
// deny, so the old grant would keep winning. RevokeNetwork therefore
// first drops any overlay grant for r.Host outright, then still records
// a deny so a matching grant living in the base document (outside the
// overlay) is also denied wherever the specificity happens to tie.
func (o *Overlay) RevokeNetwork(r NetworkRule) {
	kept := o.Granted.Network.Allow[:0]
	for _, g := range o.Granted.Network.Allow {
		if !strings.EqualFold(g.Host, r.Host) {
			kept = append(kept, g)
		}
	}
	o.Granted.Network.Allow = kept
	o.Revoked.Network.Deny = append(o.Revoked.Network.Deny, r)
}

// GrantEnv adds a runtime environment-variable allow entry.
func (o *Overlay) GrantEnv(key string) {
	o.Granted.Environment.Allow = append(o.Granted.Environment.Allow, key)
}

// RevokeEnv adds a runtime environment-variable deny entry.
func (o *Overlay) RevokeEnv(key string) {
	o.Revoked.Environment.Deny = append(o.Revoked.Environment.Deny, key)
}

// Reset clears all runtime grants and revokes (the "reset-permission"
// tool of spec.md §6).
func (o *Overlay) Reset() {
	*o = *NewOverlay()
}

// Apply merges base with the overlay's grants (additive) and then appends
// the overlay's revokes as deny entries, returning a new Document; base is
// never mutated. Field-level merge uses dario.cat/mergo so structural
// additions to Document (a new permission kind) are picked up by the merge
// without a matching change here, the same appeal the teacher's profile
// aggregation makes of mergo for combining partial documents.
func (o *Overlay) Apply(base *Document) *Document {
	merged := *base
	_ = mergo.Merge(&merged, o.Granted, mergo.WithAppendSlice)
	_ = mergo.Merge(&merged, o.Revoked, mergo.WithAppendSlice)
	return &merged
}

// Effective returns the document get_policy reports: the base merged with
// the overlay, exactly what Apply produces for compilation.
func Effective(base *Document, overlay *Overlay) *Document {
	if overlay == nil {
		return base
	}
	return overlay.Apply(base)
}
