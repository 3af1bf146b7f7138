//go:build wasip1

package abi

import "unsafe"

// addressSpace hands out real linear-memory offsets. The arena keeps a
// reference to every tracked slice, so the offset stays valid until release.
type addressSpace struct{}

func (addressSpace) assign(buf []byte) uint32 {
	// WASM linear memory: pointer -> uint32 offset conversion is safe and necessary
	//nolint:gosec // G103: Valid unsafe.Pointer use for WASM linear memory access
	return uint32(uintptr(unsafe.Pointer(&buf[0])))
}
