// Package events defines the Lifecycle Event structure broadcast by the
// Lifecycle Manager after every mutation and dispatch (spec.md §3, §4.D).
package events

import "time"

// Kind identifies what happened.
type Kind string

const (
	KindLoad           Kind = "load"
	KindUnload         Kind = "unload"
	KindPolicyAttached Kind = "policy-attached"
	KindToolCalled     Kind = "tool-called"
	KindToolFailed     Kind = "tool-failed"
	KindPermissionDeny Kind = "permission-denied"
)

// Event is one Lifecycle Event.
type Event struct {
	ID          string // uuid, assigned by the publisher; correlates an event across subscribers
	Kind        Kind
	Timestamp   time.Time
	ComponentID string
	Tool        string // empty unless Kind is tool-called/tool-failed/permission-denied
	Outcome     string
}
