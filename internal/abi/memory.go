package abi

import (
	"context"

	"github.com/middle-dev/middle-sdk/domain/ports"
)

var _ ports.GuestMemory = GuestMemory{}

// GuestMemory is the host's view of an Arena when the guest runs in-process:
// allocate and release go straight to the arena instead of through exports.
type GuestMemory struct {
	arena *Arena
}

// NewGuestMemory adapts a to ports.GuestMemory.
func NewGuestMemory(a *Arena) GuestMemory {
	return GuestMemory{arena: a}
}

// Read implements ports.GuestMemory.
func (m GuestMemory) Read(addr, size uint32) ([]byte, error) {
	return m.arena.Read(addr, size)
}

// Write implements ports.GuestMemory.
func (m GuestMemory) Write(addr uint32, data []byte) error {
	return m.arena.Write(addr, data)
}

// Allocate implements ports.GuestMemory.
func (m GuestMemory) Allocate(_ context.Context, size uint32) (uint32, error) {
	b, err := m.arena.Allocate(size)
	if err != nil {
		return 0, err
	}
	return b.Addr, nil
}

// Release implements ports.GuestMemory.
func (m GuestMemory) Release(_ context.Context, addr, size uint32) error {
	return m.arena.Release(addr, size)
}
