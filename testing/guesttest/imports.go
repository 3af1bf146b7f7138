package guesttest

import (
	"sync"

	"github.com/middle-dev/middle-sdk/application/codec"
	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/domain/ports"
	"github.com/middle-dev/middle-sdk/internal/abi"
	"github.com/middle-dev/middle-sdk/resumable"
)

var _ ports.HostImports = (*Imports)(nil)

// Imports is a fake host call surface that follows the boundary protocol
// against an arena. Handlers default to benign answers.
type Imports struct {
	arena *abi.Arena
	mu    sync.Mutex

	// OnRequest answers host_request. Defaults to a 200 with an empty body.
	OnRequest func(entities.HostRequest) entities.RequestResult
	// OnPause answers host_pause; true means elapsed. Defaults to true.
	OnPause func(millis uint64) bool
	// OnPrompt answers host_prompt. Defaults to Pause.
	OnPrompt func(entities.PromptIn) resumable.Resumable[entities.PromptAnswer]

	Printed  []string
	Panics   []entities.PanicReport
	Requests []entities.HostRequest
	Errors   []error
}

// NewImports creates fake imports over arena.
func NewImports(arena *abi.Arena) *Imports {
	return &Imports{arena: arena}
}

// Request implements ports.HostImports.
func (f *Imports) Request(addr, size uint32) uint32 {
	var req entities.HostRequest
	if !f.receive(addr, size, &req) {
		return 0
	}
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	f.mu.Unlock()

	result := entities.RequestResult{OK: &entities.HostResponse{StatusCode: 200}}
	if f.OnRequest != nil {
		result = f.OnRequest(req)
	}
	return f.respond(result)
}

// Print implements ports.HostImports.
func (f *Imports) Print(addr, size uint32) {
	var msg string
	if f.receive(addr, size, &msg) {
		f.mu.Lock()
		f.Printed = append(f.Printed, msg)
		f.mu.Unlock()
	}
}

// Pause implements ports.HostImports.
func (f *Imports) Pause(millis uint64) uint32 {
	if f.OnPause == nil || f.OnPause(millis) {
		return 1
	}
	return 0
}

// Prompt implements ports.HostImports.
func (f *Imports) Prompt(addr, size uint32) uint32 {
	var in entities.PromptIn
	if !f.receive(addr, size, &in) {
		return 0
	}
	out := resumable.Pause[entities.PromptAnswer]()
	if f.OnPrompt != nil {
		out = f.OnPrompt(in)
	}
	return f.respond(out)
}

// Panic implements ports.HostImports.
func (f *Imports) Panic(addr, size uint32) {
	var report entities.PanicReport
	if f.receive(addr, size, &report) {
		f.mu.Lock()
		f.Panics = append(f.Panics, report)
		f.mu.Unlock()
	}
}

// receive reads and releases a guest-transferred block and decodes it into v.
func (f *Imports) receive(addr, size uint32, v any) bool {
	data, err := f.arena.Read(addr, size)
	if err == nil {
		err = f.arena.Release(addr, size)
	}
	if err == nil {
		err = codec.Decode(data, v)
	}
	if err != nil {
		f.fail(err)
		return false
	}
	return true
}

// respond writes v into a guest block plus its record and returns the record address.
func (f *Imports) respond(v any) uint32 {
	data, err := codec.Encode(v)
	if err != nil {
		f.fail(err)
		return 0
	}
	payload, err := f.arena.Allocate(uint32(len(data)))
	if err == nil {
		err = f.arena.Write(payload.Addr, data)
	}
	if err != nil {
		f.fail(err)
		return 0
	}
	rec, err := f.arena.Allocate(abi.RecordSize)
	if err == nil {
		err = f.arena.Write(rec.Addr, abi.EncodeRecord(payload.Addr, payload.Len))
	}
	if err != nil {
		f.fail(err)
		return 0
	}
	return rec.Addr
}

func (f *Imports) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors = append(f.Errors, err)
}
