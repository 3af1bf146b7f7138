// Package ports defines interfaces for infrastructure operations.
// These ports enable dependency inversion - domain logic depends on abstractions,
// and infrastructure adapters implement these interfaces.
//
// Guest-side ports (HostImports, Printer) abstract the raw wasm imports so the
// SDK can run natively under test. Host-side ports (GuestMemory, Prompter,
// HTTPClient) abstract the runtime and the outside world.
package ports
