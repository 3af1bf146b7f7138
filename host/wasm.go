package host

import (
	"context"
	"fmt"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/middle-dev/middle-sdk/domain/ports"
	wazeroadapter "github.com/middle-dev/middle-sdk/infrastructure/wazero"
)

// ExportSetup is called once after instantiation so the guest can install
// its fault reporter.
const ExportSetup = "setup"

// LoadModule instantiates a compiled guest. The module is started as a
// reactor: `_initialize` runs on instantiation, then `setup`.
func (e *Executor) LoadModule(ctx context.Context, wasmBytes []byte) (*Module, error) {
	cfg := wazero.NewModuleConfig().
		WithName(fmt.Sprintf("guest-%d", e.modules.Add(1))).
		WithStartFunctions("_initialize")

	mod, err := e.runtime.InstantiateWithConfig(ctx, wasmBytes, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if setup := mod.ExportedFunction(ExportSetup); setup != nil {
		if _, err := setup.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, fmt.Errorf("failed to call %s: %w", ExportSetup, err)
		}
	}

	mem, err := wazeroadapter.NewMemory(mod)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}

	return newModule(e, &wasmGuest{mod: mod, mem: mem}), nil
}

type wasmGuest struct {
	mod api.Module
	mem *wazeroadapter.Memory
}

func (g *wasmGuest) exports() []string {
	defs := g.mod.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (g *wasmGuest) memory() ports.GuestMemory {
	return g.mem
}

func (g *wasmGuest) invoke(ctx context.Context, export string, addr, size uint32) (uint32, error) {
	return g.call(ctx, export, uint64(addr), uint64(size))
}

func (g *wasmGuest) info(ctx context.Context, export string) (uint32, error) {
	return g.call(ctx, export)
}

func (g *wasmGuest) call(ctx context.Context, export string, params ...uint64) (uint32, error) {
	fn := g.mod.ExportedFunction(export)
	if fn == nil {
		return 0, fmt.Errorf("export %q not found", export)
	}
	results, err := fn.Call(ctx, params...)
	if err != nil {
		return 0, fmt.Errorf("%s trapped: %w", export, err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("%s returned no results", export)
	}
	return api.DecodeU32(results[0]), nil
}

func (g *wasmGuest) close(ctx context.Context) error {
	return g.mod.Close(ctx)
}
