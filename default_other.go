//go:build !wasip1

package sdk

import (
	"github.com/middle-dev/middle-sdk/infrastructure/wasm"
)

// defaultClient in native builds panics on use; tests build their own
// client over guesttest.Imports.
var defaultClient = NewClient(wasm.HostImports{})

// Default returns the client bound to the module's `middle` imports.
func Default() *Client {
	return defaultClient
}
