package policy

import (
	"strings"
	"time"

	"github.com/microsoft/wassette/internal/domain/sandbox"
)

// baseFuelPerCPU is the fuel-per-whole-CPU-unit scale factor used to turn a
// Kubernetes-style cpu quantity into the Executor's fuel ceiling. There is
// no natural real-world unit conversion here (fuel is a wazero-side
// call-count budget, not wall-clock CPU time) so the constant is a
// deliberate, documented choice rather than a derived one.
const baseFuelPerCPU = 10_000_000

// defaultMemoryBytes and defaultTimeout apply when a Document's Resources
// section is entirely absent.
const defaultMemoryBytes = 256 << 20

var defaultTimeout = 5 * time.Second

// Compile turns a validated Document plus an Overlay into an immutable
// sandbox.Template, per spec.md §4.C's compilation rules. Compile does not
// itself call Validate; callers (the Lifecycle Manager) must validate
// first and refuse to compile an invalid document. secrets supplies
// environment values not found in the frozen host environment (the
// per-component secret store supplement, see
// internal/infrastructure/secretstore).
func Compile(doc *Document, overlay *Overlay, hostEnv, secrets map[string]string) *sandbox.Template {
	effective := doc
	if overlay != nil {
		effective = overlay.Apply(doc)
	}

	trie := sandbox.NewPathTrie()
	for _, r := range effective.Storage.Allow {
		trie.AddRule(stripFSScheme(r.URI), r.Access, true)
	}
	for _, r := range effective.Storage.Deny {
		trie.AddRule(stripFSScheme(r.URI), r.Access, false)
	}

	net := sandbox.NewNetMatcher()
	for _, r := range effective.Network.Allow {
		net.AddRule(r.Host, r.Ports, r.Protocol, true)
	}
	for _, r := range effective.Network.Deny {
		net.AddRule(r.Host, r.Ports, r.Protocol, false)
	}

	merged := make(map[string]string, len(hostEnv)+len(secrets))
	for k, v := range hostEnv {
		merged[k] = v
	}
	for k, v := range secrets {
		merged[k] = v
	}
	allow := effective.Environment.Allow
	if len(effective.Environment.Deny) > 0 {
		denied := make(map[string]bool, len(effective.Environment.Deny))
		for _, k := range effective.Environment.Deny {
			denied[k] = true
		}
		filtered := make([]string, 0, len(allow))
		for _, k := range allow {
			if !denied[k] {
				filtered = append(filtered, k)
			}
		}
		allow = filtered
	}
	env := sandbox.NewEnvSet(allow, merged)

	limits := sandbox.Limits{
		MemoryBytes: defaultMemoryBytes,
		Fuel:        sandbox.UnlimitedFuel,
		Timeout:     defaultTimeout,
	}
	if bytes, explicit, err := effective.Resources.EffectiveMemoryBytes(); err == nil && explicit {
		limits.MemoryBytes = bytes
	}
	if cpu := effective.Resources.Limits.CPU; cpu != "" {
		if fuel, err := ParseCPUQuantity(cpu, baseFuelPerCPU); err == nil {
			limits.Fuel = fuel
		}
	}
	if ms := effective.Resources.Limits.TimeoutMS; ms > 0 {
		limits.Timeout = time.Duration(ms) * time.Millisecond
	}

	return &sandbox.Template{Storage: trie, Network: net, Env: env, Limits: limits}
}

func stripFSScheme(uri string) string {
	return strings.TrimPrefix(uri, "fs://")
}
