// Package guesttest is a test harness that plays the host against an
// in-process guest.
//
// A Host owns an arena and an entry registry linked to it, and drives the
// boundary protocol exactly as a runtime would: it allocates and writes input
// blocks, calls entry points, reads result records and releases every block
// it receives. AssertNoLeaks then proves the discipline held.
package guesttest

import (
	"fmt"
	"testing"

	"github.com/middle-dev/middle-sdk/application/codec"
	"github.com/middle-dev/middle-sdk/application/entry"
	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/middle-dev/middle-sdk/internal/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Host is a simulated host bound to one guest registry.
type Host struct {
	Arena    *abi.Arena
	Registry *entry.Registry
	Imports  *Imports

	faults []entities.PanicReport
}

// Option configures a Host.
type Option func(*hostConfig)

type hostConfig struct {
	arenaOpts []abi.Option
	entryOpts []entry.Option
}

// WithArenaOptions passes options to the Host's arena.
func WithArenaOptions(opts ...abi.Option) Option {
	return func(c *hostConfig) {
		c.arenaOpts = append(c.arenaOpts, opts...)
	}
}

// WithRegistryOptions passes options to the Host's registry.
func WithRegistryOptions(opts ...entry.Option) Option {
	return func(c *hostConfig) {
		c.entryOpts = append(c.entryOpts, opts...)
	}
}

// New creates a Host with a fresh arena, a registry that reports faults to
// the Host, and fake host imports over the same arena.
func New(opts ...Option) *Host {
	cfg := &hostConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	h := &Host{Arena: abi.NewArena(cfg.arenaOpts...)}
	h.Imports = NewImports(h.Arena)

	entryOpts := append([]entry.Option{
		entry.WithArena(h.Arena),
		entry.WithReporter(func(r entities.PanicReport) { h.faults = append(h.faults, r) }),
	}, cfg.entryOpts...)
	h.Registry = entry.NewRegistry(entryOpts...)

	return h
}

// Faults returns the reports received so far.
func (h *Host) Faults() []entities.PanicReport {
	return h.faults
}

// Send allocates a guest block, writes data into it and returns its address.
func (h *Host) Send(data []byte) (addr, size uint32, err error) {
	blk, err := h.Arena.Allocate(uint32(len(data)))
	if err != nil {
		return 0, 0, err
	}
	if err := h.Arena.Write(blk.Addr, data); err != nil {
		return 0, 0, err
	}
	return blk.Addr, blk.Len, nil
}

// Receive reads the record at rec and the payload it describes, releasing both.
func (h *Host) Receive(rec uint32) ([]byte, error) {
	raw, err := h.Arena.Read(rec, abi.RecordSize)
	if err != nil {
		return nil, err
	}
	addr, size, err := abi.DecodeRecord(raw)
	if err != nil {
		return nil, err
	}
	payload, err := h.Arena.Read(addr, size)
	if err != nil {
		return nil, err
	}
	if err := h.Arena.Release(rec, abi.RecordSize); err != nil {
		return nil, err
	}
	if err := h.Arena.Release(addr, size); err != nil {
		return nil, err
	}
	return payload, nil
}

// CallRaw sends an already-encoded envelope to an invocation export.
func (h *Host) CallRaw(export string, input []byte) ([]byte, error) {
	addr, size, err := h.Send(input)
	if err != nil {
		return nil, err
	}
	rec := h.Registry.Invoke(export, addr, size)
	if rec == 0 {
		return nil, h.lastFault(export)
	}
	return h.Receive(rec)
}

// Call encodes input as the Input Envelope, invokes export and decodes the
// Output Envelope into out (which may be nil).
func (h *Host) Call(export string, input any, out any) error {
	data, err := codec.Encode(input)
	if err != nil {
		return err
	}
	payload, err := h.CallRaw(export, data)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return codec.Decode(payload, out)
}

// Info calls an introspection export.
func (h *Host) Info(export string) (entities.FnInfo, error) {
	var info entities.FnInfo
	rec := h.Registry.Info(export)
	if rec == 0 {
		return info, h.lastFault(export)
	}
	payload, err := h.Receive(rec)
	if err != nil {
		return info, err
	}
	return info, codec.Decode(payload, &info)
}

func (h *Host) lastFault(export string) error {
	if len(h.faults) == 0 {
		return fmt.Errorf("%s returned no envelope", export)
	}
	return &errors.GuestFaultError{Report: h.faults[len(h.faults)-1]}
}

// AssertNoLeaks fails t if any block is still tracked.
func (h *Host) AssertNoLeaks(t testing.TB) {
	t.Helper()
	assert.Empty(t, h.Arena.Outstanding(), "guest memory blocks leaked")
}

// MustCall is Call that fails the test on error.
func (h *Host) MustCall(t testing.TB, export string, input any, out any) {
	t.Helper()
	require.NoError(t, h.Call(export, input, out))
}
