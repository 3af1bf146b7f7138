package hostfuncs

import (
	"context"
	"sync"

	"github.com/middle-dev/middle-sdk/domain/ports"
)

var _ ports.HostImports = (*BoundImports)(nil)

// BoundImports serves a guest that runs in-process: its host calls go
// straight to the ImportServer against mem.
type BoundImports struct {
	server *ImportServer
	mem    ports.GuestMemory

	mu  sync.RWMutex
	ctx context.Context
}

// Bind returns imports for an in-process guest whose memory is mem.
func (s *ImportServer) Bind(mem ports.GuestMemory) *BoundImports {
	return &BoundImports{server: s, mem: mem, ctx: context.Background()}
}

// SetContext sets the context later calls run under, typically one carrying
// the current Run.
func (b *BoundImports) SetContext(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctx = ctx
}

func (b *BoundImports) context() context.Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ctx
}

// Request implements ports.HostImports.
func (b *BoundImports) Request(addr, size uint32) uint32 {
	return b.server.Call(b.context(), b.mem, FuncRequest, addr, size)
}

// Print implements ports.HostImports.
func (b *BoundImports) Print(addr, size uint32) {
	b.server.Notify(b.context(), b.mem, FuncPrint, addr, size)
}

// Pause implements ports.HostImports.
func (b *BoundImports) Pause(millis uint64) uint32 {
	return b.server.Pause(b.context(), millis)
}

// Prompt implements ports.HostImports.
func (b *BoundImports) Prompt(addr, size uint32) uint32 {
	return b.server.Call(b.context(), b.mem, FuncPrompt, addr, size)
}

// Panic implements ports.HostImports.
func (b *BoundImports) Panic(addr, size uint32) {
	b.server.Notify(b.context(), b.mem, FuncPanic, addr, size)
}
