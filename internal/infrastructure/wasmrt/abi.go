package wasmrt

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// readPacked unpacks a packed-ptr+len i64 result (the ABI a describe()/
// invoke() export returns) and reads the referenced guest memory,
// deallocating it afterward — the same contract the teacher's
// plugin.go::readString implements for describe()/schema()/observe().
func readPacked(ctx context.Context, mod api.Module, packed uint64) ([]byte, error) {
	ptr := uint32(packed >> 32)
	size := uint32(packed & 0xFFFFFFFF)
	if ptr == 0 || size == 0 {
		return nil, fmt.Errorf("wasmrt: null result pointer")
	}
	defer func() {
		defer func() { _ = recover() }()
		if dealloc := mod.ExportedFunction("deallocate"); dealloc != nil {
			_, _ = dealloc.Call(ctx, uint64(ptr), uint64(size))
		}
	}()

	data, ok := mod.Memory().Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("wasmrt: failed to read result memory at %d (%d bytes)", ptr, size)
	}
	out := make([]byte, size)
	copy(out, data)
	return out, nil
}

// writeBytes allocates guest memory via the exported allocate() function
// and copies data into it, returning the pointer for use as a call
// argument — grounded in plugin.go::writeToMemory.
func writeBytes(ctx context.Context, mod api.Module, data []byte) (uint32, error) {
	allocate := mod.ExportedFunction("allocate")
	if allocate == nil {
		return 0, fmt.Errorf("wasmrt: guest does not export allocate()")
	}
	results, err := allocate.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("wasmrt: allocate() failed: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("wasmrt: allocate() returned no results")
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		return 0, fmt.Errorf("wasmrt: allocate() returned null pointer")
	}
	if !mod.Memory().Write(ptr, data) {
		return 0, fmt.Errorf("wasmrt: failed to write %d bytes at %d", len(data), ptr)
	}
	return ptr, nil
}

// deallocate best-effort frees a pointer previously returned by
// writeBytes. Cleanup failures are swallowed, mirroring the teacher's
// recover-guarded deallocate calls.
func deallocate(ctx context.Context, mod api.Module, ptr uint32, size int) {
	defer func() { _ = recover() }()
	if dealloc := mod.ExportedFunction("deallocate"); dealloc != nil {
		_, _ = dealloc.Call(ctx, uint64(ptr), uint64(size))
	}
}

// packed splits a 64-bit result into its ptr/size halves.
func unpack(v uint64) (ptr, size uint32) {
	return uint32(v >> 32), uint32(v & 0xFFFFFFFF)
}
