package wasmrt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/microsoft/wassette/internal/domain/component"
	"github.com/microsoft/wassette/internal/domain/ifacetype"
	"github.com/microsoft/wassette/internal/domain/sandbox"
	"github.com/microsoft/wassette/internal/domain/wassette"
	"github.com/microsoft/wassette/internal/infrastructure/wasmrt/hostfuncs"
)

// Executor runs invoke calls against Component Records under their
// currently attached Sandbox Template, implementing spec.md §4.E.
type Executor struct {
	pool         *Pool
	stdoutWriter func(componentID string) io.Writer
	stderrWriter func(componentID string) io.Writer
	onDeny       func(componentID, tool, hostFn, reason string)
}

// NewExecutor constructs an Executor against pool. stdout/stderr
// functions supply (possibly redacted) per-component writers; nil means
// discard, matching the teacher's "stderr/stdout always wrapped, never
// raw" discipline being optional only in tests. onDeny, if non-nil, is
// called synchronously every time a host function denies a call during
// Execute, so a caller can surface the denial as a Lifecycle Event
// (spec.md §4.D).
func NewExecutor(pool *Pool, stdout, stderr func(componentID string) io.Writer, onDeny func(componentID, tool, hostFn, reason string)) *Executor {
	return &Executor{pool: pool, stdoutWriter: stdout, stderrWriter: stderr, onDeny: onDeny}
}

// Pool exposes the runtime pool backing this Executor, so callers can
// construct Images (see NewImage) against the same pool before a
// Component Record exists.
func (e *Executor) Pool() *Pool { return e.pool }

// Close releases every pooled Runtime. Intended for process shutdown.
func (e *Executor) Close(ctx context.Context) error { return e.pool.Close(ctx) }

func (e *Executor) writers(componentID string) (stdout, stderr io.Writer) {
	stdout, stderr = discardWriter{}, discardWriter{}
	if e.stdoutWriter != nil {
		stdout = e.stdoutWriter(componentID)
	}
	if e.stderrWriter != nil {
		stderr = e.stderrWriter(componentID)
	}
	return
}

// invokeEnvelope is the JSON argument/result envelope an exported
// function's invoke_<name> wrapper consumes and produces: a flat array
// of typed values on each side, paralleling describe()'s Func shape.
type invokeEnvelope struct {
	Values []ifacetype.Value `json:"values"`
}

// Execute instantiates rec's Image under rec's current Template and
// invokes the named function with args, returning its typed results.
// It implements the Running -> {Succeeded, Trapped, TimedOut, Cancelled}
// state machine of spec.md §4.E.
func (e *Executor) Execute(ctx context.Context, rec *component.Record, tool component.ToolDescriptor, args map[string]ifacetype.Value) ([]ifacetype.Value, error) {
	img, ok := rec.Image.(*Image)
	if !ok {
		return nil, wassette.Internalf("executor.execute", rec.ID, fmt.Errorf("component image is not a wasmrt.Image"))
	}

	tpl := rec.Template()
	if tpl.Limits.Fuel == 0 {
		return nil, wassette.ResourceExceededf("executor.execute", tool.Name)
	}

	callCtx, cancel := context.WithTimeout(ctx, tpl.Limits.Timeout)
	defer cancel()

	callID := rec.BeginCall(cancel)
	defer rec.EndCall(callID)
	var fuelExhausted atomic.Bool
	if tpl.Limits.Fuel != sandbox.UnlimitedFuel {
		callCtx = withFuelLimit(callCtx, tpl.Limits.Fuel, cancel, &fuelExhausted)
	}
	callCtx = hostfuncs.WithTemplate(callCtx, tpl)
	if e.onDeny != nil {
		callCtx = hostfuncs.WithDenyHook(callCtx, func(hostFn, reason string) {
			e.onDeny(rec.ID, tool.Name, hostFn, reason)
		})
	}

	runtime, cm, err := img.compiledFor(callCtx, tpl.Limits.MemoryBytes)
	if err != nil {
		return nil, wassette.Internalf("executor.execute", tool.Name, err)
	}

	stdout, stderr := e.writers(rec.ID)
	instance, err := instantiate(callCtx, runtime, cm, moduleConfigFor(tpl, stdout, stderr))
	if err != nil {
		return nil, classifyErr(callCtx, &fuelExhausted, "executor.execute", tool.Name, err)
	}
	defer func() { _ = instance.Close(context.Background()) }()

	fn := instance.ExportedFunction(tool.FuncName)
	if fn == nil {
		return nil, wassette.NotFoundf("executor.execute", tool.Name)
	}

	envelope := invokeEnvelope{Values: orderArgs(tool.Func.Params, args)}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, wassette.Internalf("executor.execute", tool.Name, fmt.Errorf("marshal args: %w", err))
	}

	argPtr, err := writeBytes(callCtx, instance, payload)
	if err != nil {
		return nil, wassette.Internalf("executor.execute", tool.Name, fmt.Errorf("write args: %w", err))
	}
	defer deallocate(context.Background(), instance, argPtr, len(payload))

	results, err := fn.Call(callCtx, uint64(argPtr), uint64(len(payload)))
	if err != nil {
		return nil, classifyErr(callCtx, &fuelExhausted, "executor.execute", tool.Name, err)
	}
	if len(results) == 0 {
		return nil, wassette.Internalf("executor.execute", tool.Name, fmt.Errorf("function returned no results"))
	}

	data, err := readPacked(callCtx, instance, results[0])
	if err != nil {
		return nil, classifyErr(callCtx, &fuelExhausted, "executor.execute", tool.Name, err)
	}

	var out invokeEnvelope
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, wassette.Internalf("executor.execute", tool.Name, fmt.Errorf("decode result: %w", err))
	}
	return out.Values, nil
}

// orderArgs projects the args map into the function's declared parameter
// order, since the wire envelope is positional.
func orderArgs(params []ifacetype.Field, args map[string]ifacetype.Value) []ifacetype.Value {
	out := make([]ifacetype.Value, len(params))
	for i, p := range params {
		out[i] = args[p.Name]
	}
	return out
}

// classifyErr maps a wazero-level failure to the typed error taxonomy.
// The fuel listener and the Template's wall-clock timeout both cancel
// callCtx, so ctx.Err() alone can't tell them apart: a fuel-triggered
// cancel also observes context.Canceled, not DeadlineExceeded. fuelHit
// carries the fuel listener's own signal and is checked first so fuel
// exhaustion reports ResourceExceeded (spec.md §7, §8 scenario 6) while
// a genuine deadline or an external cancel (e.g. Unload) reports
// Cancelled. Anything else is a guest trap surfaced as Internal per
// spec.md §7's "trap converts to a typed failure, not a process crash".
func classifyErr(ctx context.Context, fuelHit *atomic.Bool, op, subject string, err error) error {
	switch {
	case fuelHit != nil && fuelHit.Load():
		return wassette.ResourceExceededf(op, subject)
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(ctx.Err(), context.Canceled):
		return wassette.Cancelledf(op, subject)
	default:
		return wassette.Internalf(op, subject, fmt.Errorf("trap: %w", err))
	}
}
