package component

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/microsoft/wassette/internal/domain/ifacetype"
	"github.com/microsoft/wassette/internal/domain/policy"
	"github.com/microsoft/wassette/internal/domain/sandbox"
)

// Image is the compiled, immutable representation of a component's bytes,
// shared by every instantiation. It is an interface rather than a concrete
// wazero type so internal/domain never imports the WASM runtime package —
// internal/infrastructure/wasmrt supplies the concrete implementation and
// the Lifecycle Manager only ever holds this narrow view.
type Image interface {
	// Close releases any runtime resources (compiled module caches) held
	// by the image. Called once, when the owning Record is dropped.
	Close() error
}

// Record is the Component Record of spec.md §3: the primary entity owned
// by the Lifecycle Manager.
type Record struct {
	ID         string
	Image      Image
	Funcs      []ifacetype.Func
	Provenance Provenance
	Sequence   uint64

	mu       sync.RWMutex
	policy   *policy.Document
	overlay  *policy.Overlay
	template *sandbox.Template

	inFlight   atomic.Int64
	callsMu    sync.Mutex
	calls      map[uint64]context.CancelFunc
	nextCallID uint64
}

// NewRecord constructs a Record with a default-deny template; AttachPolicy
// replaces it once a Policy Record is attached.
func NewRecord(id string, img Image, funcs []ifacetype.Func, prov Provenance, seq uint64) *Record {
	return &Record{
		ID:         id,
		Image:      img,
		Funcs:      funcs,
		Provenance: prov,
		Sequence:   seq,
		overlay:    policy.NewOverlay(),
		template:   sandbox.DefaultDenyTemplate(),
	}
}

// Template returns the currently active Sandbox Template. Safe to call
// concurrently with AttachPolicy; in-flight calls that already captured a
// *sandbox.Template pointer keep using it after a subsequent replacement,
// satisfying spec.md §3's "template replacement is atomic from the
// caller's viewpoint" invariant — replacement never mutates the Template
// in place, it swaps the pointer.
func (r *Record) Template() *sandbox.Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.template
}

// Policy returns the currently attached base Policy Record, or nil if the
// component is running under the implicit default-deny template.
func (r *Record) Policy() *policy.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.policy
}

// EffectivePolicy returns the base policy merged with the runtime overlay,
// the document get_policy reports.
func (r *Record) EffectivePolicy() *policy.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.policy == nil {
		return nil
	}
	return policy.Effective(r.policy, r.overlay)
}

// AttachPolicy validates (the caller does that; see policy.Validate) and
// compiles doc, then atomically swaps in the new Template. The overlay is
// reset: a full policy replacement has no additive semantics at the
// document level, per spec.md §4.C.
func (r *Record) AttachPolicy(doc *policy.Document, hostEnv, secrets map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policy = doc
	r.overlay = policy.NewOverlay()
	r.template = policy.Compile(doc, r.overlay, hostEnv, secrets)
}

// Recompile rebuilds the Template from the current base policy and
// overlay, used after Grant/Revoke/Reset mutate the overlay.
func (r *Record) Recompile(hostEnv, secrets map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	base := r.policy
	if base == nil {
		base = &policy.Document{Version: policy.CurrentVersion}
	}
	r.template = policy.Compile(base, r.overlay, hostEnv, secrets)
}

// Overlay returns the record's runtime grant/revoke overlay for mutation
// by the Lifecycle Manager's grant/revoke operations.
func (r *Record) Overlay() *policy.Overlay {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overlay
}

// BeginCall registers an outstanding Invocation Context's cancel func and
// returns a call ID to hand back to EndCall. Unload uses the registered
// cancel funcs to cooperatively abort in-flight calls instead of merely
// waiting for them to drain, per spec.md §4.D/§8 scenario 4.
func (r *Record) BeginCall(cancel context.CancelFunc) uint64 {
	r.inFlight.Add(1)
	r.callsMu.Lock()
	defer r.callsMu.Unlock()
	if r.calls == nil {
		r.calls = make(map[uint64]context.CancelFunc)
	}
	id := r.nextCallID
	r.nextCallID++
	r.calls[id] = cancel
	return id
}

// EndCall unregisters the call started by the matching BeginCall.
func (r *Record) EndCall(id uint64) {
	r.callsMu.Lock()
	delete(r.calls, id)
	r.callsMu.Unlock()
	r.inFlight.Add(-1)
}

func (r *Record) InFlight() int64 {
	return r.inFlight.Load()
}

// CancelCalls fires the cancel func of every call currently in flight,
// without waiting for them to observe it. Used by Unload to turn a
// passive grace-period wait into an active cancellation.
func (r *Record) CancelCalls() {
	r.callsMu.Lock()
	defer r.callsMu.Unlock()
	for _, cancel := range r.calls {
		cancel()
	}
}
