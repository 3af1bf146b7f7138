//go:build !wasip1

// Package wasm provides infrastructure adapters that interface with the WASM host environment.
package wasm

import "github.com/middle-dev/middle-sdk/domain/ports"

var _ ports.HostImports = HostImports{}

// HostImports stub for native builds. Tests inject a fake instead.
type HostImports struct{}

func (HostImports) Request(addr, size uint32) uint32 {
	panic("WASM host imports not available in native build")
}

func (HostImports) Print(addr, size uint32) {
	panic("WASM host imports not available in native build")
}

func (HostImports) Pause(millis uint64) uint32 {
	panic("WASM host imports not available in native build")
}

func (HostImports) Prompt(addr, size uint32) uint32 {
	panic("WASM host imports not available in native build")
}

func (HostImports) Panic(addr, size uint32) {
	panic("WASM host imports not available in native build")
}
