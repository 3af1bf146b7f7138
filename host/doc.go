// Package host is the reference runtime for middle guests.
//
// An Executor owns a wazero runtime with the `middle` import module
// registered, and the host services behind it: outbound requests, console
// output, pause timers and prompts. Guests are loaded from compiled wasm with
// LoadModule, or linked in-process from an entry registry with LinkNative,
// which drives the same boundary protocol against the registry's arena.
//
// Functions run once per Call. Workflows run through RunWorkflow, which
// re-invokes the entry point from the start until it returns Ready. Host
// answers to pause and prompt are keyed by their position within an attempt,
// so a replayed attempt observes the same answers and makes progress.
package host
