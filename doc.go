// Package sdk is the guest-side SDK for middle modules.
//
// Guest functions are exported with the middlegen tool, which registers them
// with the entry package and emits the wasm export shims. Inside a function,
// host capabilities are reached through a *Client, injected by accepting a
// leading context.Context and calling FromContext:
//
//	//middle:fn
//	// Fetches a URL and returns its status code.
//	func Fetch(ctx context.Context, url string) (uint32, error) {
//	    resp, err := sdk.Get(url).Call(ctx)
//	    if err != nil {
//	        return 0, err
//	    }
//	    return resp.Code(), nil
//	}
//
// Workflows return resumable.Resumable[T] and may pause with Client.Pause or
// Prompt; the host re-invokes them from the start until they are ready.
package sdk
