//go:build wasip1

// Package wasm provides infrastructure adapters that interface with the WASM host environment.
package wasm

import "github.com/middle-dev/middle-sdk/domain/ports"

//go:wasmimport middle host_request
func hostRequest(addr, size uint32) uint32

//go:wasmimport middle host_print
func hostPrint(addr, size uint32)

//go:wasmimport middle host_pause
func hostPause(millis uint64) uint32

//go:wasmimport middle host_prompt
func hostPrompt(addr, size uint32) uint32

//go:wasmimport middle host_panic
func hostPanic(addr, size uint32)

// Compile-time interface compliance check
var _ ports.HostImports = HostImports{}

// HostImports binds ports.HostImports to the `middle` import module.
type HostImports struct{}

// Request implements ports.HostImports.
func (HostImports) Request(addr, size uint32) uint32 { return hostRequest(addr, size) }

// Print implements ports.HostImports.
func (HostImports) Print(addr, size uint32) { hostPrint(addr, size) }

// Pause implements ports.HostImports.
func (HostImports) Pause(millis uint64) uint32 { return hostPause(millis) }

// Prompt implements ports.HostImports.
func (HostImports) Prompt(addr, size uint32) uint32 { return hostPrompt(addr, size) }

// Panic implements ports.HostImports.
func (HostImports) Panic(addr, size uint32) { hostPanic(addr, size) }
