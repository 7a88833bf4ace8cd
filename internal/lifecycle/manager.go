// Package lifecycle implements the Lifecycle Manager of spec.md §4.D:
// the owner of the Component Registry and Tool Index, serializing
// load/unload/attach_policy/grant/revoke and broadcasting a Lifecycle
// Event after each mutation and each dispatch.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/microsoft/wassette/internal/domain/component"
	"github.com/microsoft/wassette/internal/domain/events"
	"github.com/microsoft/wassette/internal/domain/ifacetype"
	"github.com/microsoft/wassette/internal/domain/policy"
	"github.com/microsoft/wassette/internal/domain/wassette"
	"github.com/microsoft/wassette/internal/infrastructure/loader"
	"github.com/microsoft/wassette/internal/infrastructure/policystore"
	"github.com/microsoft/wassette/internal/infrastructure/redaction"
	"github.com/microsoft/wassette/internal/infrastructure/schemabridge"
	"github.com/microsoft/wassette/internal/infrastructure/secretstore"
	"github.com/microsoft/wassette/internal/infrastructure/wasmrt"
)

// Manager owns the Component Registry and Tool Index. Mutating
// operations (Load, Unload, AttachPolicy, Grant*, Revoke*, Reset) are
// serialized through mu, the single-writer discipline of spec.md §4.D;
// reads (List, GetPolicy, Dispatch's tool lookup) take regMu for read
// access to the registry/index maps and only ever wait out the brief
// window a mutation holds it for, not the whole mutation.
type Manager struct {
	mu sync.Mutex // serializes mutating operations

	regMu   sync.RWMutex
	records map[string]*component.Record        // component_id -> Record
	tools   map[string]component.ToolDescriptor // tool name -> descriptor

	seq atomic.Uint64

	loader      *loader.Loader
	bridge      *schemabridge.Bridge
	pool        *wasmrt.Pool
	executor    *wasmrt.Executor
	policies    *policystore.Store
	secrets     *secretstore.Store
	bus         *events.Bus
	redactor    *redaction.Redactor
	logger      *slog.Logger
	unloadGrace time.Duration
}

// Config configures a Manager.
type Config struct {
	Loader      *loader.Loader
	PolicyStore *policystore.Store
	SecretStore *secretstore.Store
	EventsDepth int
	UnloadGrace time.Duration
	Redactor    *redaction.Redactor // optional; nil disables output scrubbing
	Logger      *slog.Logger
}

// New constructs a Manager with its own runtime Pool and Executor,
// wiring the redactor (if any) into the Executor's per-component
// stdout/stderr writers exactly as the teacher's wasm.Runtime wraps
// os.Stderr with a redaction.Writer.
func New(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.UnloadGrace <= 0 {
		cfg.UnloadGrace = 5 * time.Second
	}

	m := &Manager{
		records:     make(map[string]*component.Record),
		tools:       make(map[string]component.ToolDescriptor),
		loader:      cfg.Loader,
		bridge:      schemabridge.New(),
		pool:        wasmrt.NewPool(cfg.Logger),
		policies:    cfg.PolicyStore,
		secrets:     cfg.SecretStore,
		bus:         events.NewBus(orDefault(cfg.EventsDepth, 256)),
		redactor:    cfg.Redactor,
		logger:      cfg.Logger,
		unloadGrace: cfg.UnloadGrace,
	}
	m.executor = wasmrt.NewExecutor(m.pool, m.stdioWriter("stdout"), m.stdioWriter("stderr"), m.onHostFuncDeny)
	return m
}

// onHostFuncDeny publishes a permission-denied Lifecycle Event for a
// single host-function check that failed during a dispatch, independent
// of whether the guest component ultimately surfaces that denial as a
// call failure — spec.md §4.D requires the denial itself be observable,
// not just the failed call it caused.
func (m *Manager) onHostFuncDeny(componentID, tool, hostFn, reason string) {
	m.publish(events.KindPermissionDeny, componentID, tool, hostFn+": "+reason)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// stdioWriter builds the per-component writer constructor the Executor
// calls on every invocation, scrubbing through m.redactor when one is
// configured and otherwise logging raw through m.logger.
func (m *Manager) stdioWriter(stream string) func(componentID string) io.Writer {
	return func(componentID string) io.Writer {
		base := &slogWriter{logger: m.logger, componentID: componentID, stream: stream}
		if m.redactor == nil {
			return base
		}
		return redaction.NewWriter(base, m.redactor)
	}
}

// slogWriter adapts a component's stdout/stderr chunk to a structured
// log line, mirroring the teacher's choice to route plugin output
// through its own logger rather than the process's raw stdio.
type slogWriter struct {
	logger      *slog.Logger
	componentID string
	stream      string
}

func (w *slogWriter) Write(p []byte) (int, error) {
	w.logger.Info("component output", "component_id", w.componentID, "stream", w.stream, "data", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Subscribe registers an observer for Lifecycle Events.
func (m *Manager) Subscribe() (<-chan events.Event, func()) {
	return m.bus.Subscribe()
}

// Close releases the runtime pool and closes the event bus. Intended
// for process shutdown once every in-flight call has drained.
func (m *Manager) Close(ctx context.Context) error {
	m.bus.Close()
	return m.executor.Close(ctx)
}

func (m *Manager) publish(kind events.Kind, componentID, tool, outcome string) {
	id := uuid.New().String()
	m.bus.Publish(events.Event{
		ID:          id,
		Kind:        kind,
		Timestamp:   time.Now(),
		ComponentID: componentID,
		Tool:        tool,
		Outcome:     outcome,
	})
	m.logger.Info("lifecycle event", "id", id, "kind", kind, "component_id", componentID, "tool", tool, "outcome", outcome)
}

// hostEnv captures the frozen process environment, the input
// policy.Compile needs alongside per-component secrets to resolve
// environment permission values (spec.md §4.C).
func hostEnv() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			out[kv[:i]] = kv[i+1:]
		}
	}
	return out
}

func (m *Manager) secretsFor(componentID string) map[string]string {
	if m.secrets == nil {
		return nil
	}
	s, err := m.secrets.Get(componentID)
	if err != nil {
		m.logger.Warn("failed to load component secrets", "component_id", componentID, "error", err)
		return nil
	}
	return s
}

// ComponentSummary is the list() view of spec.md §6.
type ComponentSummary struct {
	ID             string
	ToolCount      int
	PolicyAttached bool
	Origin         string
}

// List returns a snapshot of currently loaded components. A concurrent
// Load or Unload never leaves a partially-installed component visible
// here: regMu is only released once every tool for a component has
// been inserted (or, on unload, removed).
func (m *Manager) List() []ComponentSummary {
	m.regMu.RLock()
	defer m.regMu.RUnlock()

	out := make([]ComponentSummary, 0, len(m.records))
	for id, rec := range m.records {
		count := 0
		for _, td := range m.tools {
			if td.ComponentID == id {
				count++
			}
		}
		out = append(out, ComponentSummary{
			ID:             id,
			ToolCount:      count,
			PolicyAttached: rec.Policy() != nil,
			Origin:         rec.Provenance.Origin.Raw,
		})
	}
	return out
}

// Tools returns a snapshot of the Tool Index, the surface dispatch and
// an MCP tools/list call both read from.
func (m *Manager) Tools() []component.ToolDescriptor {
	m.regMu.RLock()
	defer m.regMu.RUnlock()
	out := make([]component.ToolDescriptor, 0, len(m.tools))
	for _, td := range m.tools {
		out = append(out, td)
	}
	return out
}

// LoadResult is one component's outcome from LoadMany.
type LoadResult struct {
	ComponentID string
	Tools       []string
	Err         error
}

// LoadMany loads every origin concurrently — fetch, describe, and
// compile for each component run in parallel via errgroup, the same
// shape the teacher's capabilities.Manager.CollectRequiredCapabilities
// uses to fan out plugin loads — but each component's registry install
// still serializes through Load's own mu, so the single-writer
// discipline holds even when the fan-out is wide.
func (m *Manager) LoadMany(ctx context.Context, origins []string) []LoadResult {
	results := make([]LoadResult, len(origins))
	g, gctx := errgroup.WithContext(ctx)
	for i, origin := range origins {
		i, origin := i, origin
		g.Go(func() error {
			id, tools, err := m.Load(gctx, origin, nil)
			results[i] = LoadResult{ComponentID: id, Tools: tools, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Load implements spec.md §4.D's load(origin, policy?): fetch via the
// Loader, extract tool descriptors via wasmrt.Describe, compile the
// optional policy (or leave the Record's default-deny Template in
// place), then atomically install the Component Record and every one
// of its Tool Descriptors. Either every tool becomes visible or none
// does; a component_id or tool-name collision fails the whole load and
// leaves the registry untouched.
func (m *Manager) Load(ctx context.Context, origin string, doc *policy.Document) (string, []string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, prov, err := m.loader.Load(ctx, origin)
	if err != nil {
		m.publish(events.KindLoad, "", "", "error: "+err.Error())
		return "", nil, wassette.Originf("lifecycle.load", origin, err)
	}

	id := deriveComponentID(prov)

	m.regMu.RLock()
	_, collides := m.records[id]
	m.regMu.RUnlock()
	if collides {
		return "", nil, wassette.Collisionf("lifecycle.load", id)
	}

	img := wasmrt.NewImage(data, m.pool)
	funcs, err := wasmrt.Describe(ctx, img)
	if err != nil {
		_ = img.Close()
		return "", nil, wassette.Internalf("lifecycle.load", id, err)
	}

	descriptors := component.DescribeFuncs(id, funcs)

	m.regMu.RLock()
	for _, td := range descriptors {
		if _, exists := m.tools[td.Name]; exists {
			m.regMu.RUnlock()
			_ = img.Close()
			return "", nil, wassette.Collisionf("lifecycle.load", td.Name)
		}
	}
	m.regMu.RUnlock()

	rec := component.NewRecord(id, img, funcs, prov, m.seq.Add(1))

	if doc != nil {
		if diags := policy.Validate(doc); len(diags) > 0 {
			_ = img.Close()
			msgs := make([]string, len(diags))
			for i, d := range diags {
				msgs[i] = d.String()
			}
			return "", nil, wassette.Validationf("lifecycle.load", id, msgs...)
		}
		rec.AttachPolicy(doc, hostEnv(), m.secretsFor(id))
		if m.policies != nil {
			if err := m.policies.Save(id, doc); err != nil {
				m.logger.Warn("failed to persist policy", "component_id", id, "error", err)
			}
		}
	}

	for _, td := range descriptors {
		if err := m.bridge.Register(td.Name, td.ArgsSchema); err != nil {
			_ = img.Close()
			return "", nil, wassette.Internalf("lifecycle.load", id, err)
		}
	}

	m.regMu.Lock()
	m.records[id] = rec
	names := make([]string, 0, len(descriptors))
	for _, td := range descriptors {
		m.tools[td.Name] = td
		names = append(names, td.Name)
	}
	m.regMu.Unlock()

	m.publish(events.KindLoad, id, "", "ok")
	return id, names, nil
}

// Unload removes componentID and every tool it published. It cancels
// every in-flight Invocation Context up front, then waits up to
// unloadGrace for them to actually unwind before proceeding anyway, per
// spec.md §4.D/§8 scenario 4's "unload cancels outstanding calls, which
// must observe Cancelled within the grace period" rule — a bounded
// wait, not an unbounded block, since a call that ignores cancellation
// must not wedge unload forever.
func (m *Manager) Unload(ctx context.Context, componentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.regMu.RLock()
	rec, ok := m.records[componentID]
	m.regMu.RUnlock()
	if !ok {
		return wassette.NotFoundf("lifecycle.unload", componentID)
	}

	rec.CancelCalls()

	deadline := time.Now().Add(m.unloadGrace)
	for rec.InFlight() > 0 && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return wassette.Cancelledf("lifecycle.unload", componentID)
		case <-time.After(10 * time.Millisecond):
		}
	}

	m.regMu.Lock()
	delete(m.records, componentID)
	for name, td := range m.tools {
		if td.ComponentID == componentID {
			delete(m.tools, name)
			m.bridge.Unregister(name)
		}
	}
	m.regMu.Unlock()

	if m.policies != nil {
		if err := m.policies.Delete(componentID); err != nil {
			m.logger.Warn("failed to delete persisted policy", "component_id", componentID, "error", err)
		}
	}
	if err := rec.Image.Close(); err != nil {
		m.logger.Warn("failed to close component image", "component_id", componentID, "error", err)
	}

	m.publish(events.KindUnload, componentID, "", "ok")
	return nil
}

// AttachPolicy replaces componentID's base Policy Record wholesale,
// resets its runtime overlay, and recompiles the Template — spec.md
// §4.C's "a new policy fully replaces the old one on that component; no
// merging happens at this layer" rule.
func (m *Manager) AttachPolicy(componentID string, doc *policy.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.lookup(componentID)
	if err != nil {
		return err
	}

	if diags := policy.Validate(doc); len(diags) > 0 {
		msgs := make([]string, len(diags))
		for i, d := range diags {
			msgs[i] = d.String()
		}
		return wassette.Validationf("lifecycle.attach_policy", componentID, msgs...)
	}

	rec.AttachPolicy(doc, hostEnv(), m.secretsFor(componentID))
	if m.policies != nil {
		if err := m.policies.Save(componentID, doc); err != nil {
			return wassette.Internalf("lifecycle.attach_policy", componentID, err)
		}
	}

	m.publish(events.KindPolicyAttached, componentID, "", "ok")
	return nil
}

// GetPolicy returns componentID's effective policy document, the base
// Policy Record merged with its runtime overlay (spec.md §9).
func (m *Manager) GetPolicy(componentID string) (*policy.Document, error) {
	rec, err := m.lookup(componentID)
	if err != nil {
		return nil, err
	}
	return rec.EffectivePolicy(), nil
}

// GrantStorage adds a runtime storage allow rule to componentID's
// overlay and recompiles its Template.
func (m *Manager) GrantStorage(componentID string, rule policy.StorageRule) error {
	return m.mutateOverlay(componentID, func(o *policy.Overlay) { o.GrantStorage(rule) })
}

// RevokeStorage adds a runtime storage deny rule to componentID's
// overlay and recompiles its Template.
func (m *Manager) RevokeStorage(componentID string, rule policy.StorageRule) error {
	return m.mutateOverlay(componentID, func(o *policy.Overlay) { o.RevokeStorage(rule) })
}

// GrantNetwork adds a runtime network allow rule to componentID's
// overlay and recompiles its Template.
func (m *Manager) GrantNetwork(componentID string, rule policy.NetworkRule) error {
	return m.mutateOverlay(componentID, func(o *policy.Overlay) { o.GrantNetwork(rule) })
}

// RevokeNetwork adds a runtime network deny rule to componentID's
// overlay and recompiles its Template.
func (m *Manager) RevokeNetwork(componentID string, rule policy.NetworkRule) error {
	return m.mutateOverlay(componentID, func(o *policy.Overlay) { o.RevokeNetwork(rule) })
}

// GrantEnv adds a runtime environment-variable allow entry to
// componentID's overlay and recompiles its Template.
func (m *Manager) GrantEnv(componentID, key string) error {
	return m.mutateOverlay(componentID, func(o *policy.Overlay) { o.GrantEnv(key) })
}

// RevokeEnv adds a runtime environment-variable deny entry to
// componentID's overlay and recompiles its Template.
func (m *Manager) RevokeEnv(componentID, key string) error {
	return m.mutateOverlay(componentID, func(o *policy.Overlay) { o.RevokeEnv(key) })
}

// ResetPolicy clears componentID's runtime overlay, reverting it to its
// base Policy Record (or the implicit default-deny Template if none is
// attached) — the "reset-permission" tool of spec.md §6.
func (m *Manager) ResetPolicy(componentID string) error {
	return m.mutateOverlay(componentID, func(o *policy.Overlay) { o.Reset() })
}

// mutateOverlay serializes a grant/revoke/reset against componentID's
// overlay, recompiles the Template, and publishes a policy-attached
// event — grant/revoke share the same atomicity and observability
// contract as a full AttachPolicy, per spec.md §4.D.
func (m *Manager) mutateOverlay(componentID string, mutate func(*policy.Overlay)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.lookup(componentID)
	if err != nil {
		return err
	}

	mutate(rec.Overlay())
	rec.Recompile(hostEnv(), m.secretsFor(componentID))

	m.publish(events.KindPolicyAttached, componentID, "", "ok")
	return nil
}

func (m *Manager) lookup(componentID string) (*component.Record, error) {
	m.regMu.RLock()
	defer m.regMu.RUnlock()
	rec, ok := m.records[componentID]
	if !ok {
		return nil, wassette.NotFoundf("lifecycle", componentID)
	}
	return rec, nil
}

// Dispatch looks up toolName in the Tool Index and invokes the owning
// component's export through the Executor under its currently attached
// Sandbox Template, per spec.md §4.E. Dispatch never takes mu:
// concurrent dispatches run in parallel with each other and are only
// ever blocked by a mutation's brief registry-install window.
func (m *Manager) Dispatch(ctx context.Context, toolName string, args map[string]ifacetype.Value) ([]ifacetype.Value, error) {
	m.regMu.RLock()
	td, ok := m.tools[toolName]
	var rec *component.Record
	if ok {
		rec = m.records[td.ComponentID]
	}
	m.regMu.RUnlock()

	if !ok || rec == nil {
		return nil, wassette.NotFoundf("lifecycle.dispatch", toolName)
	}

	results, err := m.executor.Execute(ctx, rec, td, args)
	if err != nil {
		m.publish(events.KindToolFailed, td.ComponentID, toolName, "error: "+err.Error())
		return nil, err
	}

	m.publish(events.KindToolCalled, td.ComponentID, toolName, "ok")
	return results, nil
}

// deriveComponentID assigns a component_id from the origin when the
// caller did not choose one explicitly, per spec.md §3's "identified by
// a string component_id chosen at load time (or derived from the origin
// reference)".
func deriveComponentID(prov component.Provenance) string {
	o := prov.Origin
	switch o.Scheme {
	case component.SchemeFile:
		base := o.Path
		if i := strings.LastIndexByte(base, '/'); i >= 0 {
			base = base[i+1:]
		}
		return strings.TrimSuffix(base, ".wasm")
	case component.SchemeHTTPS:
		base := o.URL
		if i := strings.LastIndexByte(base, '/'); i >= 0 {
			base = base[i+1:]
		}
		return strings.TrimSuffix(base, ".wasm")
	case component.SchemeOCI:
		name := o.Repository
		if i := strings.LastIndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
		if o.Tag != "" {
			return fmt.Sprintf("%s-%s", name, o.Tag)
		}
		return name
	default:
		if len(prov.Digest) > 12 {
			return prov.Digest[:12]
		}
		return prov.Digest
	}
}
