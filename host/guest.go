package host

import (
	"context"

	"github.com/middle-dev/middle-sdk/domain/ports"
)

// guest is one linked guest instance. Both methods return the address of a
// result record, 0 when the guest faulted.
type guest interface {
	exports() []string
	memory() ports.GuestMemory
	invoke(ctx context.Context, export string, addr, size uint32) (uint32, error)
	info(ctx context.Context, export string) (uint32, error)
	close(ctx context.Context) error
}
