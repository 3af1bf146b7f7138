//go:build wasip1

package sdk

import (
	"context"
	"log/slog"

	"github.com/middle-dev/middle-sdk/application/entry"
	"github.com/middle-dev/middle-sdk/infrastructure/wasm"
	sdklog "github.com/middle-dev/middle-sdk/log"
)

var defaultClient = NewClient(wasm.HostImports{})

// Default returns the client bound to the module's `middle` imports.
func Default() *Client {
	return defaultClient
}

func init() {
	entry.Default().SetContext(func(ctx context.Context) context.Context {
		return NewContext(ctx, defaultClient)
	})
	slog.SetDefault(slog.New(sdklog.NewHandler(defaultClient)))
}

// setup is called once by the host after instantiation. It routes entry
// point faults to host_panic.
//
//go:wasmexport setup
func setup() {
	entry.Default().SetReporter(defaultClient.ReportPanic)
}
