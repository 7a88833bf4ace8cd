package hostfuncs

import (
	"context"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// moduleName is the host module every component import-binds against,
// mirroring the teacher's own "reglet_host" module name for its
// dns_lookup/http_request/exec_command host functions.
const moduleName = "wassette_host"

// Register builds and instantiates the wassette_host module against
// runtime once, mediating every call through the Sandbox Template
// attached to the calling context (see WithTemplate). A Runtime in the
// pool is shared across components with the same memory ceiling, so the
// Template cannot be closed over at registration time the way the
// teacher's hostfuncs close over a per-runtime CapabilityChecker — it
// must instead be threaded per call the same way the teacher threads the
// plugin name via WithPluginName, so a grant/revoke takes effect on the
// very next call without re-registering this module.
func Register(ctx context.Context, runtime wazero.Runtime, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	builder := runtime.NewHostModuleBuilder(moduleName)

	builder.NewFunctionBuilder().WithGoModuleFunction(
		api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = openPath(ctx, mod, stack[0])
		}),
		[]api.ValueType{api.ValueTypeI64},
		[]api.ValueType{api.ValueTypeI64},
	).Export("open_path")

	builder.NewFunctionBuilder().WithGoModuleFunction(
		api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = connectNet(ctx, mod, stack[0])
		}),
		[]api.ValueType{api.ValueTypeI64},
		[]api.ValueType{api.ValueTypeI64},
	).Export("connect_net")

	builder.NewFunctionBuilder().WithGoModuleFunction(
		api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = getEnv(ctx, mod, stack[0])
		}),
		[]api.ValueType{api.ValueTypeI64},
		[]api.ValueType{api.ValueTypeI64},
	).Export("get_env")

	builder.NewFunctionBuilder().WithGoModuleFunction(
		api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			logMessage(mod, logger, stack[0])
		}),
		[]api.ValueType{api.ValueTypeI64},
		nil,
	).Export("log_message")

	_, err := builder.Instantiate(ctx)
	return err
}

func openPath(ctx context.Context, mod api.Module, packed uint64) uint64 {
	req, err := decodeRequest[OpenRequest](mod, packed)
	if err != nil {
		resp, _ := writeResponse(ctx, mod, OpenResponse{Allowed: false, Reason: err.Error()})
		return resp
	}
	tpl := TemplateFromContext(ctx)
	d := tpl.CheckStorage(req.Path, req.Access)
	if !d.Allowed {
		denyHookFromContext(ctx)("open_path", d.Reason)
	}
	resp, err := writeResponse(ctx, mod, OpenResponse{Allowed: d.Allowed, Reason: d.Reason})
	if err != nil {
		return 0
	}
	return resp
}

func connectNet(ctx context.Context, mod api.Module, packed uint64) uint64 {
	req, err := decodeRequest[ConnectRequest](mod, packed)
	if err != nil {
		resp, _ := writeResponse(ctx, mod, ConnectResponse{Allowed: false, Reason: err.Error()})
		return resp
	}
	tpl := TemplateFromContext(ctx)
	d := tpl.CheckNetwork(req.Host, req.Port, req.Scheme)
	if !d.Allowed {
		denyHookFromContext(ctx)("connect_net", d.Reason)
	}
	resp, err := writeResponse(ctx, mod, ConnectResponse{Allowed: d.Allowed, Reason: d.Reason})
	if err != nil {
		return 0
	}
	return resp
}

func getEnv(ctx context.Context, mod api.Module, packed uint64) uint64 {
	req, err := decodeRequest[EnvRequest](mod, packed)
	if err != nil {
		resp, _ := writeResponse(ctx, mod, EnvResponse{Allowed: false})
		return resp
	}
	tpl := TemplateFromContext(ctx)
	value, allowed := tpl.CheckEnv(req.Key)
	if !allowed {
		denyHookFromContext(ctx)("get_env", "environment variable not permitted: "+req.Key)
	}
	resp, err := writeResponse(ctx, mod, EnvResponse{Allowed: allowed, Value: value})
	if err != nil {
		return 0
	}
	return resp
}

func logMessage(mod api.Module, logger *slog.Logger, packed uint64) {
	data, err := readPacked(mod, packed)
	if err != nil {
		return
	}
	logger.Info("component log", "message", string(data))
}
