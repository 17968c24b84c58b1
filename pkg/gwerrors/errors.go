// Package gwerrors defines the typed errors the gateway surfaces to
// callers and the internal load/validation pipeline.
package gwerrors

import "fmt"

// Error kinds. These map onto the error kinds a client sees from tools/call,
// plus an internal kind used for registry load failures.
const (
	ErrUnknownTool        = "unknown_tool"
	ErrDisabledTool       = "disabled_tool"
	ErrAuthRequired       = "auth_required"
	ErrBackendUnavailable = "backend_unavailable"
	ErrBackendError       = "backend_error"
	ErrBadInput           = "bad_input"
	ErrLoad               = "load_error"
)

// Error is a typed gateway error: a stable machine-readable Type, a
// human-readable Message, and an optional wrapped Cause.
type Error struct {
	Type    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError constructs an Error of the given type.
func NewError(errType, message string, cause error) *Error {
	return &Error{Type: errType, Message: message, Cause: cause}
}

// NewUnknownToolError reports a tools/call for a name absent from the catalog.
func NewUnknownToolError(message string, cause error) *Error {
	return NewError(ErrUnknownTool, message, cause)
}

// NewDisabledToolError reports a call against a strict-disabled tool.
func NewDisabledToolError(message string, cause error) *Error {
	return NewError(ErrDisabledTool, message, cause)
}

// NewAuthRequiredError reports a call against a backend pending OAuth attach.
func NewAuthRequiredError(message string, cause error) *Error {
	return NewError(ErrAuthRequired, message, cause)
}

// NewBackendUnavailableError reports a call against a backend that failed to initialize.
func NewBackendUnavailableError(message string, cause error) *Error {
	return NewError(ErrBackendUnavailable, message, cause)
}

// NewBackendError wraps an isError=true reply forwarded verbatim from a backend.
func NewBackendError(message string, cause error) *Error {
	return NewError(ErrBackendError, message, cause)
}

// NewBadInputError reports an argument schema violation surfaced by a backend.
func NewBadInputError(message string, cause error) *Error {
	return NewError(ErrBadInput, message, cause)
}

// NewLoadError reports a fatal registry-loading failure.
func NewLoadError(message string, cause error) *Error {
	return NewError(ErrLoad, message, cause)
}

func is(err error, errType string) bool {
	e, ok := err.(*Error)
	if !ok || e == nil {
		return false
	}
	return e.Type == errType
}

// IsUnknownTool reports whether err is an unknown-tool Error.
func IsUnknownTool(err error) bool { return is(err, ErrUnknownTool) }

// IsDisabledTool reports whether err is a disabled-tool Error.
func IsDisabledTool(err error) bool { return is(err, ErrDisabledTool) }

// IsAuthRequired reports whether err is an auth-required Error.
func IsAuthRequired(err error) bool { return is(err, ErrAuthRequired) }

// IsBackendUnavailable reports whether err is a backend-unavailable Error.
func IsBackendUnavailable(err error) bool { return is(err, ErrBackendUnavailable) }

// IsBackendError reports whether err is a backend-error Error.
func IsBackendError(err error) bool { return is(err, ErrBackendError) }

// IsBadInput reports whether err is a bad-input Error.
func IsBadInput(err error) bool { return is(err, ErrBadInput) }

// IsLoad reports whether err is a load Error.
func IsLoad(err error) bool { return is(err, ErrLoad) }
