//go:build wasip1

package abi

import "log/slog"

// allocate reserves memory for the host to write into and returns its address.
// Exceeding the allocation limit is fatal to the current call.
//
//go:wasmexport allocate
func allocate(size uint32) uint32 {
	b, err := defaultArena.Allocate(size)
	if err != nil {
		panic(err)
	}
	return b.Addr
}

// release destroys a block the host owns. Violations are logged rather than
// trapping, since the host cannot recover from a trap mid-release.
//
//go:wasmexport release
func release(addr, size uint32) {
	if err := defaultArena.Release(addr, size); err != nil {
		slog.Error("abi: release rejected", "addr", addr, "len", size, "error", err)
	}
}
