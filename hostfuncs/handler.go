package hostfuncs

import (
	"context"
	"fmt"

	"github.com/middle-dev/middle-sdk/application/codec"
)

// HostFunc is a typed host function.
type HostFunc[Req any, Resp any] func(context.Context, Req) Resp

// SinkFunc is a typed host function with no response.
type SinkFunc[Req any] func(context.Context, Req)

// ByteHandler accepts an encoded request and returns an encoded response.
// A nil response means the import returns nothing to the guest.
type ByteHandler func(context.Context, []byte) ([]byte, error)

// NewHandler wraps a typed HostFunc into a ByteHandler that speaks the
// MessagePack value encoding.
//
//	requestHandler := hostfuncs.NewHandler(func(ctx context.Context, req entities.HostRequest) entities.RequestResult {
//	    return hostfuncs.PerformRequest(ctx, client, req)
//	})
func NewHandler[Req any, Resp any](fn HostFunc[Req, Resp]) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Req
		if err := codec.Decode(payload, &req); err != nil {
			return nil, fmt.Errorf("failed to decode request: %w", err)
		}

		resp := fn(ctx, req)

		respBytes, err := codec.Encode(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to encode response: %w", err)
		}
		return respBytes, nil
	}
}

// NewSink wraps a SinkFunc into a ByteHandler with no response.
func NewSink[Req any](fn SinkFunc[Req]) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Req
		if err := codec.Decode(payload, &req); err != nil {
			return nil, fmt.Errorf("failed to decode request: %w", err)
		}
		fn(ctx, req)
		return nil, nil
	}
}
