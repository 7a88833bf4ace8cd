// Package sandbox models the compiled Sandbox Template: the three
// pre-indexed lookup structures spec.md §3 describes (storage path-trie,
// network matcher, environment allow-set) plus numeric resource ceilings,
// and the Decision Function that answers permission queries against them.
//
// A Template is immutable once built; Template replacement on a Component
// Record is atomic from the caller's perspective (see internal/lifecycle).
package sandbox

import "time"

// Decision is the polarity a Decision Function returns: the permission
// either allows or denies, or no rule matched at all (which also denies,
// but the caller may want to distinguish for event logging).
type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// Limits carries the Template's normalized resource ceilings: bytes for
// memory, a fuel count for CPU, and a duration for wall clock.
type Limits struct {
	MemoryBytes int64
	Fuel        uint64
	Timeout     time.Duration
}

// UnlimitedFuel marks a Template as having no CPU call-count ceiling, as
// opposed to Fuel == 0, which denies execution outright (spec.md §8
// scenario 6). A policy document with no resources.limits.cpu compiles to
// UnlimitedFuel, not 0 — only an explicit "0" cpu quantity produces the
// deny-before-first-instruction ceiling.
const UnlimitedFuel = ^uint64(0)

// Template is the compiled, immutable Sandbox Template attached to a
// Component Record.
type Template struct {
	Storage *PathTrie
	Network *NetMatcher
	Env     *EnvSet
	Limits  Limits
}

// DefaultDenyTemplate is installed when a component has no attached
// Policy Record ("default-deny", per spec.md §3's Component Record field).
// Default-deny denies every storage/network/env Decision Function query
// by construction (empty trie/matcher/set), but still lets the component
// run pure computation and surface a typed permission-denied result for
// any capability it tries to use — it is not the same as Fuel == 0, which
// denies the call before the first instruction runs.
func DefaultDenyTemplate() *Template {
	return &Template{
		Storage: NewPathTrie(),
		Network: NewNetMatcher(),
		Env:     NewEnvSet(nil, nil),
		Limits:  Limits{MemoryBytes: 256 << 20, Fuel: UnlimitedFuel, Timeout: 5 * time.Second},
	}
}

// CheckStorage answers "may I open path for access (read/write)?".
func (t *Template) CheckStorage(path string, access string) Decision {
	return t.Storage.Decide(path, access)
}

// CheckNetwork answers "may I connect to host:port over scheme?".
func (t *Template) CheckNetwork(host string, port int, scheme string) Decision {
	return t.Network.Decide(host, port, scheme)
}

// CheckEnv answers "may I read env K?" and returns its captured value.
func (t *Template) CheckEnv(key string) (value string, allowed bool) {
	return t.Env.Lookup(key)
}
