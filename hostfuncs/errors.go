package hostfuncs

import "fmt"

// HostError is a structured failure of a host function. The runtime logs it
// and hands the guest a null record.
type HostError struct {
	// Kind is a machine-readable identifier (e.g. "VALIDATION_ERROR").
	Kind string `json:"error"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Code is a numeric error code (e.g. 400, 500).
	Code int `json:"code"`
}

func (e *HostError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Code, e.Message)
}

// NewValidationError reports bad input, such as an undecodable payload.
func NewValidationError(message string) *HostError {
	return &HostError{Kind: "VALIDATION_ERROR", Message: message, Code: 400}
}

// NewNotFoundError reports an unknown handler name.
func NewNotFoundError(name string) *HostError {
	return &HostError{Kind: "NOT_FOUND", Message: "unknown host function: " + name, Code: 404}
}

// NewInternalError reports an unexpected failure.
func NewInternalError(message string) *HostError {
	return &HostError{Kind: "INTERNAL_ERROR", Message: message, Code: 500}
}

// NewPanicError reports a recovered panic.
func NewPanicError(panicValue any) *HostError {
	var msg string
	switch v := panicValue.(type) {
	case error:
		msg = v.Error()
	case string:
		msg = v
	default:
		msg = "panic recovered"
	}
	return &HostError{Kind: "INTERNAL_ERROR", Message: "panic: " + msg, Code: 500}
}
