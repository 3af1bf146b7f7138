// Package abi manages the guest memory blocks that cross the guest/host
// boundary.
//
// Every block is tracked by an Arena from the moment it is allocated or
// transferred until it is released. Tracking pins the backing slice so the Go
// GC cannot reclaim memory the host still addresses, and it turns protocol
// violations (unknown addresses, double release, length mismatch) into errors
// instead of memory corruption.
package abi

import (
	"sort"
	"sync"

	"github.com/middle-dev/middle-sdk/domain/errors"
)

// DefaultMaxTotalAllocations is the maximum total memory that can be tracked
// by an Arena. This prevents unbounded memory growth in WASM linear memory.
const DefaultMaxTotalAllocations = 100 * 1024 * 1024 // 100 MB

// maxTombstones bounds the released-address history kept for double-release detection.
const maxTombstones = 4096

type blockState uint8

const (
	// stateLent: allocated for the host to write into; the guest has not consumed it.
	stateLent blockState = iota + 1
	// stateCaptured: produced by the host and now owned by the guest.
	stateCaptured
	// stateTransferred: handed to the host, pending its release.
	stateTransferred
)

func (s blockState) String() string {
	switch s {
	case stateLent:
		return "lent"
	case stateCaptured:
		return "captured"
	case stateTransferred:
		return "transferred"
	default:
		return "unknown"
	}
}

// Block describes a tracked buffer. The generation distinguishes successive
// blocks that happen to reuse the same address.
type Block struct {
	Addr uint32
	Len  uint32
	gen  uint64
}

// IsZero reports whether b is the empty block (address 0, length 0).
func (b Block) IsZero() bool {
	return b.Addr == 0 && b.Len == 0
}

type entry struct {
	buf   []byte
	gen   uint64
	state blockState
}

// Arena tracks every live boundary block.
type Arena struct {
	mu         sync.Mutex
	live       map[uint32]*entry
	tombstones map[uint32]struct{}
	tombOrder  []uint32
	space      addressSpace
	seq        uint64
	total      int
	limit      int
}

// Option configures an Arena.
type Option func(*Arena)

// WithMaxTotalAllocations sets the maximum number of bytes the arena may track.
// Zero or negative limits are ignored.
func WithMaxTotalAllocations(limit int) Option {
	return func(a *Arena) {
		if limit > 0 {
			a.limit = limit
		}
	}
}

// NewArena creates an empty arena.
func NewArena(opts ...Option) *Arena {
	a := &Arena{
		live:       make(map[uint32]*entry),
		tombstones: make(map[uint32]struct{}),
		limit:      DefaultMaxTotalAllocations,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultArena = NewArena()

// Default returns the process-wide arena backing the allocate and release exports.
func Default() *Arena {
	return defaultArena
}

// Allocate reserves size bytes for the host to write into.
// A zero size returns the zero block.
func (a *Arena) Allocate(size uint32) (Block, error) {
	if size == 0 {
		return Block{}, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.track(make([]byte, size), stateLent)
}

// TransferOut takes ownership of data and hands it to the host. The caller
// must not touch data afterwards. Empty data yields the zero block.
func (a *Arena) TransferOut(data []byte) (Block, error) {
	if len(data) == 0 {
		return Block{}, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.track(data, stateTransferred)
}

// TransferRecord transfers the 8-byte record describing b and returns the
// record's address, the single value an export can return.
func (a *Arena) TransferRecord(b Block) (uint32, error) {
	rec, err := a.TransferOut(EncodeRecord(b.Addr, b.Len))
	if err != nil {
		return 0, err
	}
	return rec.Addr, nil
}

// CaptureIn takes ownership of a block the host filled in. The block must
// have been allocated for the host with exactly size bytes.
func (a *Arena) CaptureIn(addr, size uint32) (Block, []byte, error) {
	if addr == 0 && size == 0 {
		return Block{}, nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	e, err := a.lookup("capture_in", addr, size)
	if err != nil {
		return Block{}, nil, err
	}
	if e.state != stateLent {
		return Block{}, nil, &errors.MemoryError{Err: errors.ErrBlockState, Op: "capture_in", Addr: addr, Size: size}
	}
	e.state = stateCaptured
	return Block{Addr: addr, Len: size, gen: e.gen}, e.buf, nil
}

// Take captures a host-produced block, copies its contents out and releases it.
func (a *Arena) Take(addr, size uint32) ([]byte, error) {
	b, buf, err := a.CaptureIn(addr, size)
	if err != nil || b.IsZero() {
		return nil, err
	}
	data := make([]byte, len(buf))
	copy(data, buf)
	if err := a.ReleaseBlock(b); err != nil {
		return nil, err
	}
	return data, nil
}

// TakeRecord takes the 8-byte record at addr and then the block it describes.
func (a *Arena) TakeRecord(addr uint32) ([]byte, error) {
	rec, err := a.Take(addr, RecordSize)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &errors.MemoryError{Err: errors.ErrUnknownBlock, Op: "take_record", Addr: addr, Size: RecordSize}
	}
	payloadAddr, payloadLen, err := DecodeRecord(rec)
	if err != nil {
		return nil, err
	}
	return a.Take(payloadAddr, payloadLen)
}

// Release is the host-facing release: it destroys a block the host owns
// (transferred to it, or lent to it and never handed back).
func (a *Arena) Release(addr, size uint32) error {
	if addr == 0 && size == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	e, err := a.lookup("release", addr, size)
	if err != nil {
		return err
	}
	if e.state == stateCaptured {
		return &errors.MemoryError{Err: errors.ErrBlockState, Op: "release", Addr: addr, Size: size}
	}
	a.drop(addr, e)
	return nil
}

// ReleaseBlock is the guest-facing release. The generation check rejects a
// stale Block whose address has since been released or reused.
func (a *Arena) ReleaseBlock(b Block) error {
	if b.IsZero() {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	e, err := a.lookup("release", b.Addr, b.Len)
	if err != nil {
		return err
	}
	if e.gen != b.gen {
		return &errors.MemoryError{Err: errors.ErrDoubleRelease, Op: "release", Addr: b.Addr, Size: b.Len}
	}
	if e.state == stateTransferred {
		return &errors.MemoryError{Err: errors.ErrBlockState, Op: "release", Addr: b.Addr, Size: b.Len}
	}
	a.drop(b.Addr, e)
	return nil
}

// Read copies size bytes from the start of the live block at addr. Only
// host-visible blocks (lent or transferred) can be read.
func (a *Arena) Read(addr, size uint32) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.live[addr]
	if !ok {
		return nil, a.missing("read", addr, size)
	}
	if int(size) > len(e.buf) {
		return nil, &errors.MemoryError{Err: errors.ErrLengthMismatch, Op: "read", Addr: addr, Size: size}
	}
	if e.state == stateCaptured {
		return nil, &errors.MemoryError{Err: errors.ErrBlockState, Op: "read", Addr: addr, Size: size}
	}
	out := make([]byte, size)
	copy(out, e.buf[:size])
	return out, nil
}

// Write copies data into a lent block at addr.
func (a *Arena) Write(addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	size := uint32(len(data))
	e, ok := a.live[addr]
	if !ok {
		return a.missing("write", addr, size)
	}
	if len(data) > len(e.buf) {
		return &errors.MemoryError{Err: errors.ErrLengthMismatch, Op: "write", Addr: addr, Size: size}
	}
	if e.state != stateLent {
		return &errors.MemoryError{Err: errors.ErrBlockState, Op: "write", Addr: addr, Size: size}
	}
	copy(e.buf, data)
	return nil
}

// Stats returns the number of live blocks and the bytes they hold.
func (a *Arena) Stats() (blocks int, bytes int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live), a.total
}

// Outstanding lists live blocks ordered by address.
func (a *Arena) Outstanding() []Block {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Block, 0, len(a.live))
	for addr, e := range a.live {
		out = append(out, Block{Addr: addr, Len: uint32(len(e.buf)), gen: e.gen})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// Reset forgets every tracked block. Used on module shutdown and in tests.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.live = make(map[uint32]*entry)
	a.tombstones = make(map[uint32]struct{})
	a.tombOrder = nil
	a.total = 0
}

func (a *Arena) track(buf []byte, state blockState) (Block, error) {
	if a.total+len(buf) > a.limit {
		return Block{}, &errors.MemoryError{
			Err:       errors.ErrAllocationLimit,
			Op:        "allocate",
			Requested: len(buf),
			Current:   a.total,
			Limit:     a.limit,
		}
	}

	addr := a.space.assign(buf)
	a.seq++
	a.live[addr] = &entry{buf: buf, gen: a.seq, state: state}
	delete(a.tombstones, addr)
	a.total += len(buf)

	return Block{Addr: addr, Len: uint32(len(buf)), gen: a.seq}, nil
}

func (a *Arena) lookup(op string, addr, size uint32) (*entry, error) {
	e, ok := a.live[addr]
	if !ok {
		return nil, a.missing(op, addr, size)
	}
	if uint32(len(e.buf)) != size {
		return nil, &errors.MemoryError{Err: errors.ErrLengthMismatch, Op: op, Addr: addr, Size: size}
	}
	return e, nil
}

func (a *Arena) missing(op string, addr, size uint32) error {
	if _, released := a.tombstones[addr]; released {
		return &errors.MemoryError{Err: errors.ErrDoubleRelease, Op: op, Addr: addr, Size: size}
	}
	return &errors.MemoryError{Err: errors.ErrUnknownBlock, Op: op, Addr: addr, Size: size}
}

func (a *Arena) drop(addr uint32, e *entry) {
	delete(a.live, addr)
	a.total -= len(e.buf)

	a.tombstones[addr] = struct{}{}
	a.tombOrder = append(a.tombOrder, addr)
	if len(a.tombOrder) > maxTombstones {
		delete(a.tombstones, a.tombOrder[0])
		a.tombOrder = a.tombOrder[1:]
	}
}
