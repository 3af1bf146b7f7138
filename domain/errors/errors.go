// Package errors provides domain-specific error types for the SDK.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/middle-dev/middle-sdk/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail. New error types only need to implement this
// interface without modifying ToErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
// This function recognizes custom error types and categorizes them appropriately.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// Reasons a function cannot be turned into an entry point.
var (
	ErrInvalidName       = stdErrors.New("entry point name must be a Go identifier")
	ErrReceiverParam     = stdErrors.New("methods with a receiver cannot be entry points")
	ErrMissingReturn     = stdErrors.New("entry points must return a value")
	ErrUnsupportedParam  = stdErrors.New("parameters must be plain named identifiers")
	ErrNameCollision     = stdErrors.New("entry point name already in use")
	ErrUnsupportedReturn = stdErrors.New("entry points return a single value or (value, error)")
	ErrWorkflowReturn    = stdErrors.New("workflows must return resumable.Resumable[T]")
	ErrNotAFunction      = stdErrors.New("bound value is not a function")
	ErrParamCount        = stdErrors.New("descriptor parameters do not match function signature")
)

// SynthesisError reports why a user function was rejected as an entry point.
type SynthesisError struct {
	Err      error
	Function string
	Detail   string
}

func (e *SynthesisError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("cannot export %s: %v (%s)", e.Function, e.Err, e.Detail)
	}
	return fmt.Sprintf("cannot export %s: %v", e.Function, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *SynthesisError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "synthesis", Code: e.Function}
}

// DecodeError is returned when bytes cannot be decoded as the requested shape:
// the payload is empty, truncated, of the wrong type, or has trailing bytes.
type DecodeError struct {
	Err    error
	Target string
	Size   int
}

func (e *DecodeError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("decode %d bytes into %s: %v", e.Size, e.Target, e.Err)
	}
	return fmt.Sprintf("decode %d bytes: %v", e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *DecodeError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "decode", Code: e.Target}
}

// Boundary memory protocol violations.
var (
	ErrUnknownBlock    = stdErrors.New("address does not name a live block")
	ErrDoubleRelease   = stdErrors.New("block was already released")
	ErrLengthMismatch  = stdErrors.New("length does not match block")
	ErrBlockState      = stdErrors.New("block is not in the expected state")
	ErrAllocationLimit = stdErrors.New("allocation limit exceeded")
)

// MemoryError represents a boundary memory failure: a protocol violation
// (Err is one of the block sentinels) or an exhausted allocation budget.
type MemoryError struct {
	Err       error
	Op        string
	Addr      uint32
	Size      uint32
	Requested int // Requested allocation size
	Current   int // Current total allocated
	Limit     int // Maximum allowed
}

func (e *MemoryError) Error() string {
	if stdErrors.Is(e.Err, ErrAllocationLimit) {
		return fmt.Sprintf("memory allocation failed: requested %d bytes, current %d bytes, limit %d bytes",
			e.Requested, e.Current, e.Limit)
	}
	return fmt.Sprintf("%s(addr=%d, len=%d): %v", e.Op, e.Addr, e.Size, e.Err)
}

func (e *MemoryError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *MemoryError) ToErrorDetail() *entities.ErrorDetail {
	code := "memory_protocol"
	if stdErrors.Is(e.Err, ErrAllocationLimit) {
		code = "memory_limit"
	}
	return &entities.ErrorDetail{Message: e.Error(), Type: "memory", Code: code}
}

// GuestFaultError is returned on the host when a guest entry point reported a
// panic instead of producing an envelope.
type GuestFaultError struct {
	Report entities.PanicReport
}

func (e *GuestFaultError) Error() string {
	if e.Report.Entry != "" {
		return fmt.Sprintf("guest fault in %s: %s", e.Report.Entry, e.Report.String())
	}
	return "guest fault: " + e.Report.String()
}

// ToErrorDetail implements DetailedError.
func (e *GuestFaultError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message: e.Error(),
		Type:    "panic",
		Code:    e.Report.Entry,
		Details: map[string]any{"file": e.Report.File, "line": e.Report.Line, "function": e.Report.Function},
	}
}

// NetworkError represents a network operation failure.
type NetworkError struct {
	Err       error
	Operation string
	Target    string
}

func (e *NetworkError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("network %s failed for %s: %v", e.Operation, e.Target, e.Err)
	}
	return fmt.Sprintf("network %s failed: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *NetworkError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "network", Code: e.Operation}
}

// TimeoutError represents a timeout during an operation.
type TimeoutError struct {
	Operation string
	Target    string
	Duration  time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s timeout after %v (target: %s)", e.Operation, e.Duration, e.Target)
	}
	return fmt.Sprintf("%s timeout after %v", e.Operation, e.Duration)
}

func (e *TimeoutError) Timeout() bool {
	return true
}

// ToErrorDetail implements DetailedError.
func (e *TimeoutError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "timeout", Code: e.Operation, IsTimeout: true}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field}
}

// SchemaError represents a schema generation or validation error.
type SchemaError struct {
	Err  error
	Type string
}

func (e *SchemaError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("schema error for type %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("schema error: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *SchemaError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "validation", Code: "schema"}
}

// ProtocolError reports a host call whose response did not follow the
// boundary protocol (null record, bad record length, unexpected state).
type ProtocolError struct {
	Err  error
	Call string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("host call %s: %v", e.Call, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ProtocolError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "internal", Code: "protocol_" + e.Call}
}

// WireFormatError represents a wire format encoding failure.
type WireFormatError struct {
	Err       error
	Operation string
	Type      string
}

func (e *WireFormatError) Error() string {
	return fmt.Sprintf("wire format %s failed for %s: %v", e.Operation, e.Type, e.Err)
}

func (e *WireFormatError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *WireFormatError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "internal", Code: "wire_format"}
}
