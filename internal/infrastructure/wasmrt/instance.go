package wasmrt

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/microsoft/wassette/internal/domain/sandbox"
)

// moduleConfigFor builds the wazero ModuleConfig for one call, deriving
// filesystem pre-opens from tpl.Storage's literal prefixes and captured
// environment from tpl.Env — the Template-driven analogue of the
// teacher's capability-driven createModuleConfig/extractFilesystemMounts.
// Every component gets its own directory mounts rather than the host's
// full filesystem: a prefix with no rule at all is unreachable, matching
// the storage Decision Function's implicit deny.
func moduleConfigFor(tpl *sandbox.Template, stdout, stderr io.Writer) wazero.ModuleConfig {
	fsConfig := wazero.NewFSConfig()
	for _, prefix := range tpl.Storage.Prefixes() {
		if prefix == "" {
			continue
		}
		// Mount read-write; the open_path host function (see hostfuncs)
		// is the actual read/write decision point for guests that go
		// through the host-call ABI rather than WASI preopens directly.
		fsConfig = fsConfig.WithDirMount(prefix, prefix)
	}

	config := wazero.NewModuleConfig().
		WithFSConfig(fsConfig).
		WithSysWalltime().
		WithSysNanotime().
		WithSysNanosleep().
		WithRandSource(rand.Reader).
		WithStdout(stdout).
		WithStderr(stderr)

	for _, key := range tpl.Env.Keys() {
		if value, ok := tpl.Env.Lookup(key); ok {
			config = config.WithEnv(key, value)
		}
	}
	return config
}

// instantiate compiles-and-instantiates cm fresh under cfg, calling
// _initialize if the component exports it, mirroring the teacher's
// createInstance. A fresh instance per call keeps memory isolated between
// concurrent invocations of the same component, same as the teacher's
// "no caching, fresh instance every time" plugin discipline.
func instantiate(ctx context.Context, runtime wazero.Runtime, cm wazero.CompiledModule, cfg wazero.ModuleConfig) (api.Module, error) {
	instance, err := runtime.InstantiateModule(ctx, cm, cfg)
	if err != nil {
		return nil, fmt.Errorf("wasmrt: instantiate module: %w", err)
	}
	if initFn := instance.ExportedFunction("_initialize"); initFn != nil {
		if _, err := initFn.Call(ctx); err != nil {
			_ = instance.Close(ctx)
			return nil, fmt.Errorf("wasmrt: _initialize: %w", err)
		}
	}
	return instance, nil
}
