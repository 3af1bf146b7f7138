package sdk

import (
	"context"
	"fmt"

	"github.com/middle-dev/middle-sdk/application/codec"
	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/middle-dev/middle-sdk/domain/ports"
	"github.com/middle-dev/middle-sdk/internal/abi"
)

// Client issues host calls. All calls are synchronous from the guest's view.
type Client struct {
	imports ports.HostImports
	arena   *abi.Arena
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithArena sets the arena used for boundary transfers.
func WithArena(a *abi.Arena) ClientOption {
	return func(c *Client) {
		if a != nil {
			c.arena = a
		}
	}
}

// NewClient creates a client over the given host imports.
func NewClient(imports ports.HostImports, opts ...ClientOption) *Client {
	c := &Client{imports: imports, arena: abi.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReportPanic sends a fault report to the host. It is the entry point
// reporter installed by setup.
func (c *Client) ReportPanic(report entities.PanicReport) {
	blk, err := c.send(report)
	if err != nil {
		return
	}
	c.imports.Panic(blk.Addr, blk.Len)
}

// send encodes v and transfers it to the host, which will release it.
func (c *Client) send(v any) (abi.Block, error) {
	data, err := codec.Encode(v)
	if err != nil {
		return abi.Block{}, err
	}
	return c.arena.TransferOut(data)
}

// receive takes the response described by the record at rec and decodes it.
func (c *Client) receive(call string, rec uint32, out any) error {
	if rec == 0 {
		return &errors.ProtocolError{Call: call, Err: fmt.Errorf("host returned no response record")}
	}
	data, err := c.arena.TakeRecord(rec)
	if err != nil {
		return &errors.ProtocolError{Call: call, Err: err}
	}
	return codec.Decode(data, out)
}

type clientKey struct{}

// NewContext returns a context carrying c.
func NewContext(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// FromContext returns the client carried by ctx, or Default() when none is.
func FromContext(ctx context.Context) *Client {
	if ctx != nil {
		if c, ok := ctx.Value(clientKey{}).(*Client); ok && c != nil {
			return c
		}
	}
	return Default()
}
