package host

import (
	"context"

	sdk "github.com/middle-dev/middle-sdk"
	"github.com/middle-dev/middle-sdk/application/entry"
	"github.com/middle-dev/middle-sdk/domain/ports"
	"github.com/middle-dev/middle-sdk/hostfuncs"
	"github.com/middle-dev/middle-sdk/internal/abi"
)

// LinkNative links an entry registry running in this process. Its host
// calls go through the executor's import server against the registry's
// arena, and faults are reported the way a wasm guest reports them.
//
// The registry's context and reporter hooks are replaced.
func (e *Executor) LinkNative(reg *entry.Registry) *Module {
	arena := reg.Arena()
	mem := abi.NewGuestMemory(arena)
	bound := e.server.Bind(mem)

	client := sdk.NewClient(bound, sdk.WithArena(arena))
	reg.SetContext(func(ctx context.Context) context.Context {
		return sdk.NewContext(ctx, client)
	})
	reg.SetReporter(client.ReportPanic)

	return newModule(e, &nativeGuest{reg: reg, mem: mem, bound: bound})
}

type nativeGuest struct {
	reg   *entry.Registry
	mem   abi.GuestMemory
	bound *hostfuncs.BoundImports
}

func (g *nativeGuest) exports() []string {
	var names []string
	for _, e := range g.reg.Entries() {
		names = append(names, e.Export, e.InfoExport)
	}
	return names
}

func (g *nativeGuest) memory() ports.GuestMemory {
	return g.mem
}

func (g *nativeGuest) invoke(ctx context.Context, export string, addr, size uint32) (uint32, error) {
	g.bound.SetContext(ctx)
	defer g.bound.SetContext(context.Background())
	return g.reg.Invoke(export, addr, size), nil
}

func (g *nativeGuest) info(ctx context.Context, export string) (uint32, error) {
	g.bound.SetContext(ctx)
	defer g.bound.SetContext(context.Background())
	return g.reg.Info(export), nil
}

func (g *nativeGuest) close(context.Context) error {
	return nil
}
