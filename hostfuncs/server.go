package hostfuncs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/middle-dev/middle-sdk/application/codec"
	"github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/middle-dev/middle-sdk/domain/ports"
)

// DefaultMaxRequestSize limits a single import payload (10MB). A guest
// claiming more is answered with a null record.
const DefaultMaxRequestSize = 10 * 1024 * 1024

// ImportServer runs host imports against a guest's memory. Runtime adapters
// translate their calling convention into these three call shapes.
type ImportServer struct {
	registry       *HandlerRegistry
	maxRequestSize uint32
	logger         *slog.Logger
}

// ServerOption configures an ImportServer.
type ServerOption func(*ImportServer)

// WithMaxRequestSize caps import payloads.
func WithMaxRequestSize(size uint32) ServerOption {
	return func(s *ImportServer) {
		if size > 0 {
			s.maxRequestSize = size
		}
	}
}

// WithServerLogger sets the logger for protocol failures.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *ImportServer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewImportServer creates a server over registry.
func NewImportServer(registry *HandlerRegistry, opts ...ServerOption) *ImportServer {
	s := &ImportServer{registry: registry, maxRequestSize: DefaultMaxRequestSize, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the handlers served.
func (s *ImportServer) Registry() *HandlerRegistry {
	return s.registry
}

// Call serves a (addr, len) -> record import. Any failure is logged and
// answered with 0, the null record.
func (s *ImportServer) Call(ctx context.Context, mem ports.GuestMemory, name string, addr, size uint32) uint32 {
	resp, err := s.invoke(ctx, mem, name, addr, size)
	if err != nil {
		s.fail(ctx, name, err)
		return 0
	}
	rec, err := Respond(ctx, mem, resp)
	if err != nil {
		s.fail(ctx, name, err)
		return 0
	}
	return rec
}

// Notify serves a (addr, len) -> () import.
func (s *ImportServer) Notify(ctx context.Context, mem ports.GuestMemory, name string, addr, size uint32) {
	if _, err := s.invoke(ctx, mem, name, addr, size); err != nil {
		s.fail(ctx, name, err)
	}
}

// Pause serves host_pause: 1 when the pause has elapsed, 0 otherwise.
func (s *ImportServer) Pause(ctx context.Context, millis uint64) uint32 {
	payload, err := codec.Encode(millis)
	if err != nil {
		s.fail(ctx, FuncPause, err)
		return 0
	}
	resp, err := s.registry.Invoke(ctx, FuncPause, payload)
	if err != nil {
		s.fail(ctx, FuncPause, err)
		return 0
	}
	var elapsed bool
	if err := codec.Decode(resp, &elapsed); err != nil {
		s.fail(ctx, FuncPause, err)
		return 0
	}
	if elapsed {
		return 1
	}
	return 0
}

func (s *ImportServer) invoke(ctx context.Context, mem ports.GuestMemory, name string, addr, size uint32) ([]byte, error) {
	if size > s.maxRequestSize {
		// The block is still the host's to release.
		_ = mem.Release(ctx, addr, size)
		return nil, &errors.MemoryError{
			Err:       errors.ErrAllocationLimit,
			Op:        name,
			Addr:      addr,
			Requested: int(size),
			Limit:     int(s.maxRequestSize),
		}
	}
	payload, err := Receive(ctx, mem, addr, size)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, NewValidationError(fmt.Sprintf("%s called with an empty payload", name))
	}
	return s.registry.Invoke(ctx, name, payload)
}

func (s *ImportServer) fail(ctx context.Context, name string, err error) {
	attrs := []any{slog.String("func", name), slog.Any("error", err)}
	if run := RunFrom(ctx); run != nil {
		attrs = append(attrs, slog.String("run", run.ID))
	}
	s.logger.ErrorContext(ctx, "host import failed", attrs...)
}
