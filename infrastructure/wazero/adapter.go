package wazero

import (
	"context"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/middle-dev/middle-sdk/hostfuncs"
)

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// ModuleName is the import module name (default: "middle").
	ModuleName string

	// Logger receives failures to bind guest memory.
	Logger *slog.Logger
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the import module name.
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		if name != "" {
			c.ModuleName = name
		}
	}
}

// WithLogger sets the adapter's logger.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}

func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName: hostfuncs.ModuleName,
		Logger:     slog.Default(),
	}
}

type importShape int

const (
	shapeCall   importShape = iota // (i32, i32) -> i32
	shapeNotify                    // (i32, i32) -> ()
	shapePause                     // (i64) -> i32
)

// shapeOf returns the calling convention of an import. Handlers registered
// under other names are exposed as calls.
func shapeOf(name string) importShape {
	switch name {
	case hostfuncs.FuncPrint, hostfuncs.FuncPanic:
		return shapeNotify
	case hostfuncs.FuncPause:
		return shapePause
	default:
		return shapeCall
	}
}

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

// RegisterWithRuntime instantiates the import module exporting every handler
// served by server.
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, server *hostfuncs.ImportServer, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)
	for _, name := range server.Registry().Names() {
		funcName := name
		fb := builder.NewFunctionBuilder()
		switch shapeOf(funcName) {
		case shapePause:
			fb = fb.WithGoFunction(api.GoFunc(func(ctx context.Context, stack []uint64) {
				stack[0] = uint64(server.Pause(ctx, stack[0]))
			}), []api.ValueType{i64}, []api.ValueType{i32})
		case shapeNotify:
			fb = fb.WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				mem, err := NewMemory(mod)
				if err != nil {
					cfg.Logger.ErrorContext(ctx, "wazero: cannot bind guest memory", "function", funcName, "error", err)
					return
				}
				server.Notify(ctx, mem, funcName, api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
			}), []api.ValueType{i32, i32}, []api.ValueType{})
		default:
			fb = fb.WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				mem, err := NewMemory(mod)
				if err != nil {
					cfg.Logger.ErrorContext(ctx, "wazero: cannot bind guest memory", "function", funcName, "error", err)
					stack[0] = 0
					return
				}
				stack[0] = api.EncodeU32(server.Call(ctx, mem, funcName, api.DecodeU32(stack[0]), api.DecodeU32(stack[1])))
			}), []api.ValueType{i32, i32}, []api.ValueType{i32})
		}
		fb.WithParameterNames(paramNames(funcName)...).Export(funcName)
	}

	_, err := builder.Instantiate(ctx)
	return err
}

func paramNames(name string) []string {
	if shapeOf(name) == shapePause {
		return []string{"millis"}
	}
	return []string{"addr", "len"}
}
