package domain

import (
	"errors"
	"fmt"
)

// Application error codes
const (
	EINVALID     = "invalid"     // Invalid input or validation failure
	EFORBIDDEN   = "forbidden"   // Feature gated by plan
	EQUOTA       = "quota"       // Question quota exhausted
	ENOTFOUND    = "not_found"   // Resource not found
	EMETHOD      = "method"      // HTTP method not allowed on route
	ECONFLICT    = "conflict"    // Resource conflict (e.g., duplicate)
	ERATELIMIT   = "rate_limit"  // Rate limit exceeded
	ETIMEOUT     = "timeout"     // Upstream call exceeded its deadline
	EUPSTREAM    = "upstream"    // Language model or other upstream failed
	EUNAVAILABLE = "unavailable" // Backing store unreachable or failing
	EINTERNAL    = "internal"    // Internal server error
)

// Error represents an application error with structured information.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "entitlement.consume")
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code, op, message string) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// IsServerSide reports whether the code describes a failure that is not the
// caller's fault. Details of these errors are never sent to clients.
func IsServerSide(code string) bool {
	switch code {
	case EINTERNAL, EUPSTREAM, ETIMEOUT, EUNAVAILABLE:
		return true
	}
	return false
}

const genericMessage = "An internal error occurred. Please try again later."

// ErrorMessage returns the human-readable message of the error.
//
// Server-side errors only expose the message chosen by the operation that
// failed, never the text of the wrapped cause.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message()
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Message == "" {
			return genericMessage
		}
		return e.Message
	}
	return genericMessage
}

// ErrorOp returns the operation of the root error, if any.
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Convenience constructors for common error types

// NotFound creates a not found error.
func NotFound(op, resource, id string) *Error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s %q not found", resource, id),
	}
}

// Invalid creates a validation error.
func Invalid(op, message string) *Error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Forbidden creates an entitlement error for plan-gated features.
func Forbidden(op, message string) *Error {
	return &Error{
		Code:    EFORBIDDEN,
		Op:      op,
		Message: message,
	}
}

// QuotaExceeded creates an entitlement error for an exhausted question quota.
func QuotaExceeded(op string, used, limit int) *Error {
	return &Error{
		Code:    EQUOTA,
		Op:      op,
		Message: fmt.Sprintf("Question limit reached (%d of %d used). Upgrade or refer a friend for more.", used, limit),
	}
}

// MethodNotAllowed creates the error returned for a known path hit with the wrong method.
func MethodNotAllowed(op string) *Error {
	return &Error{
		Code:    EMETHOD,
		Op:      op,
		Message: "Method Not Allowed",
	}
}

// Conflict creates a conflict error.
func Conflict(op, message string) *Error {
	return &Error{
		Code:    ECONFLICT,
		Op:      op,
		Message: message,
	}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Upstream creates an error for a failed language model call.
func Upstream(err error, op, message string) *Error {
	return &Error{
		Code:    EUPSTREAM,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// UpstreamTimeout creates an error for a language model call that ran past its deadline.
func UpstreamTimeout(err error, op, message string) *Error {
	return &Error{
		Code:    ETIMEOUT,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// StorageUnavailable wraps a failure of the backing store.
func StorageUnavailable(err error, op string) *Error {
	return &Error{
		Code:    EUNAVAILABLE,
		Op:      op,
		Message: genericMessage,
		Err:     err,
	}
}

// RateLimit creates a rate limit error.
func RateLimit(op string) *Error {
	return &Error{
		Code:    ERATELIMIT,
		Op:      op,
		Message: "Too many requests. Please try again later.",
	}
}

// ValidationError represents field-level validation errors.
type ValidationError struct {
	Op      string
	Summary string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed", e.Op)
}

// Message returns the summary shown to clients. Without a summary the first
// field error is used.
func (e *ValidationError) Message() string {
	if e.Summary != "" {
		return e.Summary
	}
	for _, msg := range e.Fields {
		return msg
	}
	return "Invalid request."
}

// NewValidationError creates a new validation error with the first field error.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{
		Op: op,
		Fields: map[string]string{
			field: message,
		},
	}
}

// AddFieldError adds a field error to an existing validation error.
// If err is not a ValidationError, returns a new one.
func AddFieldError(err error, field, message string) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return NewValidationError("", field, message)
}
