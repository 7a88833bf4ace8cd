package wasmrt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/microsoft/wassette/internal/domain/ifacetype"
	"github.com/microsoft/wassette/internal/domain/sandbox"
)

// describeDoc is the JSON shape a component's describe() export returns:
// the function signatures that make up the interface-type algebra
// extraction of spec.md §4.B Direction 1.
type describeDoc struct {
	Functions []ifacetype.Func `json:"functions"`
}

// Describe instantiates img under a default-deny Template — describe()
// is a pure metadata call, never granted storage/network/env access —
// and returns the function signatures it reports. This is the one
// Executor entry point the Lifecycle Manager calls during load, before a
// Component Record or its Template exist.
func Describe(ctx context.Context, img *Image) ([]ifacetype.Func, error) {
	tpl := sandbox.DefaultDenyTemplate()
	runtime, cm, err := img.compiledFor(ctx, tpl.Limits.MemoryBytes)
	if err != nil {
		return nil, err
	}

	var stdout, stderr discardWriter
	cfg := moduleConfigFor(tpl, stdout, stderr)

	instance, err := instantiate(ctx, runtime, cm, cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = instance.Close(ctx) }()

	describeFn := instance.ExportedFunction("describe")
	if describeFn == nil {
		return nil, fmt.Errorf("wasmrt: component does not export describe()")
	}
	results, err := describeFn.Call(ctx)
	if err != nil {
		return nil, fmt.Errorf("wasmrt: call describe(): %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("wasmrt: describe() returned no results")
	}

	data, err := readPacked(ctx, instance, results[0])
	if err != nil {
		return nil, fmt.Errorf("wasmrt: read describe() result: %w", err)
	}

	var doc describeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("wasmrt: parse describe() result: %w", err)
	}
	for i := range doc.Functions {
		for _, p := range doc.Functions[i].Params {
			if err := p.Type.Validate(); err != nil {
				return nil, fmt.Errorf("wasmrt: describe() function %q param %q: %w", doc.Functions[i].Name, p.Name, err)
			}
		}
		for _, r := range doc.Functions[i].Results {
			if err := r.Type.Validate(); err != nil {
				return nil, fmt.Errorf("wasmrt: describe() function %q result %q: %w", doc.Functions[i].Name, r.Name, err)
			}
		}
	}
	return doc.Functions, nil
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
