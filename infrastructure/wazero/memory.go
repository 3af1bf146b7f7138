package wazero

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/middle-dev/middle-sdk/domain/ports"
)

// Guest export names of the memory protocol.
const (
	ExportMemory   = "memory"
	ExportAllocate = "allocate"
	ExportRelease  = "release"
)

var _ ports.GuestMemory = (*Memory)(nil)

// Memory implements ports.GuestMemory for a wazero module.
type Memory struct {
	mod      api.Module
	mem      api.Memory
	allocate api.Function
	release  api.Function
}

// NewMemory binds to mod's memory and its allocate/release exports.
func NewMemory(mod api.Module) (*Memory, error) {
	m := &Memory{
		mod:      mod,
		mem:      mod.ExportedMemory(ExportMemory),
		allocate: mod.ExportedFunction(ExportAllocate),
		release:  mod.ExportedFunction(ExportRelease),
	}
	switch {
	case m.mem == nil:
		return nil, fmt.Errorf("module %q exports no memory", mod.Name())
	case m.allocate == nil:
		return nil, fmt.Errorf("module %q does not export %q", mod.Name(), ExportAllocate)
	case m.release == nil:
		return nil, fmt.Errorf("module %q does not export %q", mod.Name(), ExportRelease)
	}
	return m, nil
}

// Read implements ports.GuestMemory. The bytes are copied out so later guest
// activity cannot change them.
func (m *Memory) Read(addr, size uint32) ([]byte, error) {
	view, ok := m.mem.Read(addr, size)
	if !ok {
		return nil, m.outOfRange("read", addr, size)
	}
	data := make([]byte, size)
	copy(data, view)
	return data, nil
}

// Write implements ports.GuestMemory.
func (m *Memory) Write(addr uint32, data []byte) error {
	if !m.mem.Write(addr, data) {
		return m.outOfRange("write", addr, uint32(len(data))) //nolint:gosec // G115: bounded by guest memory
	}
	return nil
}

// Allocate implements ports.GuestMemory.
func (m *Memory) Allocate(ctx context.Context, size uint32) (uint32, error) {
	results, err := m.allocate.Call(ctx, uint64(size))
	if err != nil {
		return 0, fmt.Errorf("guest allocate(%d): %w", size, err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("guest allocate(%d) returned no result", size)
	}
	addr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit
	if addr == 0 && size > 0 {
		return 0, &errors.MemoryError{Err: errors.ErrAllocationLimit, Op: "allocate", Requested: int(size)}
	}
	return addr, nil
}

// Release implements ports.GuestMemory.
func (m *Memory) Release(ctx context.Context, addr, size uint32) error {
	if _, err := m.release.Call(ctx, uint64(addr), uint64(size)); err != nil {
		return fmt.Errorf("guest release(%d, %d): %w", addr, size, err)
	}
	return nil
}

func (m *Memory) outOfRange(op string, addr, size uint32) error {
	return &errors.MemoryError{
		Err:  fmt.Errorf("out of range of %d-byte memory", m.mem.Size()),
		Op:   op,
		Addr: addr,
		Size: size,
	}
}
