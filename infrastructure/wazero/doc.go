// Package wazero links the `middle` host imports into a wazero runtime.
//
// It translates wazero's calling convention into hostfuncs.ImportServer calls:
//
//   - host_request, host_prompt: (addr i32, len i32) -> record i32
//   - host_print, host_panic:    (addr i32, len i32) -> ()
//   - host_pause:                (millis i64) -> elapsed i32
//
// Guest memory is reached through Memory, which reads and writes the
// module's linear memory and calls its allocate and release exports.
//
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
//	    hostfuncs.WithBundle(services.Bundle()),
//	)
//	server := hostfuncs.NewImportServer(registry)
//	err = wazero.RegisterWithRuntime(ctx, runtime, server)
package wazero
