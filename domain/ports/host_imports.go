package ports

// HostImports is the raw host call surface seen from the guest.
// Every argument is an address or length in guest memory; payload-carrying
// calls hand ownership of the argument block to the host, and calls with a
// response return the address of an 8-byte block record.
type HostImports interface {
	// Request performs an HTTP request described by the encoded payload.
	Request(addr, size uint32) uint32

	// Print writes the encoded string to the host console.
	Print(addr, size uint32)

	// Pause returns nonzero once the given number of milliseconds has elapsed
	// for the current call site, and zero while the caller should pause.
	Pause(millis uint64) uint32

	// Prompt asks the host to collect a value for the encoded schema.
	Prompt(addr, size uint32) uint32

	// Panic reports an encoded guest fault.
	Panic(addr, size uint32)
}

// Printer writes text to the host console.
type Printer interface {
	Print(msg string)
}
