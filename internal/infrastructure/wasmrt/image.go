package wasmrt

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"

	"github.com/microsoft/wassette/internal/domain/component"
)

// Image is the concrete component.Image: the raw component bytes plus a
// compiled-module cache keyed by memory-page ceiling, since a
// wazero.CompiledModule is bound to the specific wazero.Runtime that
// compiled it and the Pool hands out one Runtime per ceiling. Compiling
// against a new ceiling the first time a component runs under it is the
// price of per-component memory limits on a runtime whose memory limit
// API is per-Runtime, not per-module (see runtime.go's Pool doc comment).
type Image struct {
	bytes []byte
	pool  *Pool

	mu       sync.Mutex
	compiled map[uint32]wazero.CompiledModule
}

// NewImage wraps raw component bytes for execution against pool.
func NewImage(raw []byte, pool *Pool) *Image {
	return &Image{bytes: raw, pool: pool, compiled: make(map[uint32]wazero.CompiledModule)}
}

// compiledFor returns (compiling and caching if necessary) the
// CompiledModule for the Runtime backing memoryBytes.
func (img *Image) compiledFor(ctx context.Context, memoryBytes int64) (wazero.Runtime, wazero.CompiledModule, error) {
	runtime, err := img.pool.Get(ctx, memoryBytes)
	if err != nil {
		return nil, nil, err
	}
	pages := pagesFor(memoryBytes)

	img.mu.Lock()
	defer img.mu.Unlock()
	if cm, ok := img.compiled[pages]; ok {
		return runtime, cm, nil
	}
	cm, err := runtime.CompileModule(ctx, img.bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("wasmrt: compile module for %d pages: %w", pages, err)
	}
	img.compiled[pages] = cm
	return runtime, cm, nil
}

// Close releases every compiled module this Image produced. The
// underlying pooled Runtimes are left open: other components may still
// be using them.
func (img *Image) Close() error {
	img.mu.Lock()
	defer img.mu.Unlock()
	var firstErr error
	for pages, cm := range img.compiled {
		if err := cm.Close(context.Background()); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("wasmrt: close compiled module for %d pages: %w", pages, err)
		}
	}
	img.compiled = make(map[uint32]wazero.CompiledModule)
	return firstErr
}

var _ component.Image = (*Image)(nil)
