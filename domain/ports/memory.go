package ports

import "context"

// GuestMemory is the host's view of a guest's linear memory and its
// allocate/release exports.
type GuestMemory interface {
	// Read copies size bytes starting at addr.
	Read(addr, size uint32) ([]byte, error)

	// Write copies data into guest memory at addr.
	Write(addr uint32, data []byte) error

	// Allocate asks the guest for a block of size bytes and returns its address.
	Allocate(ctx context.Context, size uint32) (uint32, error)

	// Release hands a block back to the guest.
	Release(ctx context.Context, addr, size uint32) error
}
