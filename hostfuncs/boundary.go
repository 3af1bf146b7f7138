package hostfuncs

import (
	"context"
	"fmt"

	"github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/middle-dev/middle-sdk/domain/ports"
	"github.com/middle-dev/middle-sdk/internal/abi"
)

// Receive reads a block the guest transferred to the host and releases it.
func Receive(ctx context.Context, mem ports.GuestMemory, addr, size uint32) ([]byte, error) {
	if addr == 0 && size == 0 {
		return nil, nil
	}
	data, err := mem.Read(addr, size)
	if err != nil {
		return nil, err
	}
	if err := mem.Release(ctx, addr, size); err != nil {
		return nil, err
	}
	return data, nil
}

// Send allocates a guest block, fills it with data and lends it to the guest.
// The guest captures and releases it.
func Send(ctx context.Context, mem ports.GuestMemory, data []byte) (addr, size uint32, err error) {
	if len(data) == 0 {
		return 0, 0, nil
	}
	size = uint32(len(data)) //nolint:gosec // bounded by MaxRequestSize
	addr, err = mem.Allocate(ctx, size)
	if err != nil {
		return 0, 0, err
	}
	if err := mem.Write(addr, data); err != nil {
		_ = mem.Release(ctx, addr, size)
		return 0, 0, err
	}
	return addr, size, nil
}

// Respond sends data plus the 8-byte record describing it and returns the
// record's address, the single value a host import can return.
func Respond(ctx context.Context, mem ports.GuestMemory, data []byte) (uint32, error) {
	addr, size, err := Send(ctx, mem, data)
	if err != nil {
		return 0, err
	}
	rec, _, err := Send(ctx, mem, abi.EncodeRecord(addr, size))
	if err != nil {
		if size > 0 {
			_ = mem.Release(ctx, addr, size)
		}
		return 0, err
	}
	return rec, nil
}

// TakeResult reads the record at rec and the block it describes, releasing
// both. A zero rec means the guest produced no result.
func TakeResult(ctx context.Context, mem ports.GuestMemory, rec uint32) ([]byte, error) {
	if rec == 0 {
		return nil, &errors.ProtocolError{Call: "result", Err: fmt.Errorf("guest returned a null record")}
	}
	raw, err := Receive(ctx, mem, rec, abi.RecordSize)
	if err != nil {
		return nil, err
	}
	addr, size, err := abi.DecodeRecord(raw)
	if err != nil {
		return nil, err
	}
	return Receive(ctx, mem, addr, size)
}
