// Package hostfuncs registers the "wassette_host" module: the set of host
// functions through which a sandboxed component reaches the outside
// world. Every call here is mediated by the Sandbox Template's Decision
// Function (spec.md §4.E "Host-call mediation") — a denied call surfaces
// to the component as a typed failure, never a trap.
package hostfuncs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// OpenRequest is the wire payload of open_path.
type OpenRequest struct {
	Path   string `json:"path"`
	Access string `json:"access"` // "read" or "write"
}

// OpenResponse is the wire payload of open_path's result.
type OpenResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// ConnectRequest is the wire payload of connect_net.
type ConnectRequest struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Scheme string `json:"scheme"`
}

// ConnectResponse is the wire payload of connect_net's result.
type ConnectResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// EnvRequest is the wire payload of get_env.
type EnvRequest struct {
	Key string `json:"key"`
}

// EnvResponse is the wire payload of get_env's result.
type EnvResponse struct {
	Allowed bool   `json:"allowed"`
	Value   string `json:"value,omitempty"`
}

// readPacked decodes a packed ptr+len i64 stack argument into bytes, the
// same ABI the teacher's hostfuncs use for every wire-format request.
func readPacked(mod api.Module, packed uint64) ([]byte, error) {
	ptr := uint32(packed >> 32)
	size := uint32(packed & 0xFFFFFFFF)
	if ptr == 0 || size == 0 {
		return nil, fmt.Errorf("hostfuncs: null request pointer")
	}
	data, ok := mod.Memory().Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("hostfuncs: failed to read request memory at %d", ptr)
	}
	out := make([]byte, size)
	copy(out, data)
	return out, nil
}

// writeResponse allocates guest memory for v (JSON-encoded) via the
// guest's exported allocate() function and writes it, returning the
// packed ptr+len result the host function returns to the guest.
func writeResponse(ctx context.Context, mod api.Module, v interface{}) (uint64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("hostfuncs: marshal response: %w", err)
	}
	allocate := mod.ExportedFunction("allocate")
	if allocate == nil {
		return 0, fmt.Errorf("hostfuncs: guest does not export allocate()")
	}
	results, err := allocate.Call(ctx, uint64(len(data)))
	if err != nil || len(results) == 0 {
		return 0, fmt.Errorf("hostfuncs: guest allocate() failed: %w", err)
	}
	ptr := uint32(results[0])
	if !mod.Memory().Write(ptr, data) {
		return 0, fmt.Errorf("hostfuncs: failed to write response memory at %d", ptr)
	}
	return uint64(ptr)<<32 | uint64(len(data)), nil
}

func decodeRequest[T any](mod api.Module, packed uint64) (T, error) {
	var req T
	data, err := readPacked(mod, packed)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("hostfuncs: decode request: %w", err)
	}
	return req, nil
}
