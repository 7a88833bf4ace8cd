// Package wasmrt is the Executor (spec.md §4.E): it instantiates compiled
// component Images under the Sandbox Template attached to their Component
// Record and invokes a single function, enforcing memory, fuel, and
// wall-clock ceilings and converting traps to the typed error taxonomy.
package wasmrt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/microsoft/wassette/internal/infrastructure/wasmrt/hostfuncs"
)

// globalCache is shared by every pooled Runtime, mirroring the teacher's
// package-level globalCache in wasm/runtime.go — compiling the same
// component bytes twice (once per distinct memory ceiling) still reuses
// the cached intermediate representation.
var globalCache = wazero.NewCompilationCache()

const bytesPerPage = 1 << 16 // wazero/WASM page size, 64KiB.

// pagesFor converts a byte ceiling to a wazero page count. Zero or
// negative means unlimited: no WithMemoryLimitPages call is made.
func pagesFor(memoryBytes int64) uint32 {
	if memoryBytes <= 0 {
		return 0
	}
	pages := memoryBytes / bytesPerPage
	if memoryBytes%bytesPerPage != 0 {
		pages++
	}
	return uint32(pages)
}

// Pool hands out a wazero.Runtime per distinct memory-page ceiling.
// wazero bounds memory at the RuntimeConfig level (WithMemoryLimitPages),
// not per module instance, so a per-component memory ceiling — which can
// change via attach_policy/grant/revoke without reloading the component's
// Image — requires one Runtime per ceiling actually in use rather than
// one Runtime per component. Every Runtime in the pool shares
// globalCache, so switching a component between two already-seen
// ceilings costs no recompilation.
type Pool struct {
	mu       sync.Mutex
	runtimes map[uint32]wazero.Runtime
	logger   *slog.Logger
}

// NewPool constructs an empty runtime pool.
func NewPool(logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{runtimes: make(map[uint32]wazero.Runtime), logger: logger}
}

// Get returns the Runtime for memoryBytes, creating and instantiating WASI
// plus the wassette_host module on first use for that ceiling.
func (p *Pool) Get(ctx context.Context, memoryBytes int64) (wazero.Runtime, error) {
	pages := pagesFor(memoryBytes)

	p.mu.Lock()
	defer p.mu.Unlock()

	if r, ok := p.runtimes[pages]; ok {
		return r, nil
	}

	config := wazero.NewRuntimeConfig().WithCompilationCache(globalCache).WithCloseOnContextDone(true)
	if pages > 0 {
		config = config.WithMemoryLimitPages(pages)
	}

	r := wazero.NewRuntimeWithConfig(ctx, config)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("wasmrt: instantiate WASI for %d pages: %w", pages, err)
	}
	if err := hostfuncs.Register(ctx, r, p.logger); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("wasmrt: register host functions for %d pages: %w", pages, err)
	}

	p.runtimes[pages] = r
	p.logger.Debug("wasmrt: created runtime", "pages", pages, "memory_bytes", memoryBytes)
	return r, nil
}

// Close closes every pooled Runtime. Intended for process shutdown.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for pages, r := range p.runtimes {
		if err := r.Close(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("wasmrt: close runtime for %d pages: %w", pages, err)
		}
	}
	p.runtimes = make(map[uint32]wazero.Runtime)
	return firstErr
}
