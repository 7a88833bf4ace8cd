package wasmrt

import (
	"context"
	"sync/atomic"

	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
)

// wazero has no wasmtime-style per-instruction fuel counter, so the
// Sandbox Template's Fuel ceiling (spec.md §4.E, §8 scenario 6) is
// approximated by counting function-call boundaries — both host and
// guest function invocations — rather than instructions, and cancelling
// the call's context once the count exceeds the ceiling. This is
// intentionally coarse: a single guest function that loops internally
// without calling out again is invisible to it. Combined with
// experimental.WithCloseOnContextDone, cancellation aborts execution at
// the next function-call boundary, which is the finest granularity
// available without a true fuel-metering runtime.
type fuelListenerFactory struct {
	ceiling   uint64
	count     *atomic.Uint64
	cancel    context.CancelFunc
	exhausted *atomic.Bool
}

func (f *fuelListenerFactory) NewFunctionListener(api.FunctionDefinition) experimental.FunctionListener {
	return f
}

func (f *fuelListenerFactory) Before(_ context.Context, _ api.Module, _ api.FunctionDefinition, _ []uint64, _ experimental.StackIterator) {
	if f.count.Add(1) > f.ceiling {
		f.exhausted.Store(true)
		f.cancel()
	}
}

func (f *fuelListenerFactory) After(context.Context, api.Module, api.FunctionDefinition, []uint64) {}

func (f *fuelListenerFactory) Abort(context.Context, api.Module, api.FunctionDefinition, error) {}

// withFuelLimit wraps ctx so that once more than ceiling function calls
// have crossed a boundary, exhausted is set and cancel fires. exhausted
// lets classifyErr tell a fuel-triggered cancellation apart from the
// wall-clock deadline, since both otherwise collapse to the same
// context.Canceled/DeadlineExceeded pair. Fuel==0 is handled by the
// caller as a direct short-circuit before instantiation — the fuel
// listener only ever sees Fuel > 0.
func withFuelLimit(ctx context.Context, ceiling uint64, cancel context.CancelFunc, exhausted *atomic.Bool) context.Context {
	factory := &fuelListenerFactory{ceiling: ceiling, count: &atomic.Uint64{}, cancel: cancel, exhausted: exhausted}
	return experimental.WithFunctionListenerFactory(ctx, factory)
}
