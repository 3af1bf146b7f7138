// Package hostfuncs implements the host side of the `middle` import module:
// host_request, host_print, host_pause, host_prompt and host_panic.
//
// Handlers here work on decoded payload bytes and have no WASM runtime
// dependency; infrastructure/wazero moves the bytes across guest memory and
// the host package drives runs and replays.
package hostfuncs
