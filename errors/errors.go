package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError is the unified error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// ErrorCode returns the error's code.
func (e *AppError) ErrorCode() ErrorCode { return e.Code }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates a new AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// --- Common Error Constructors ---

// InputBinding creates an error for arguments that could not be bound to the
// parameters of the named computation.
func InputBinding(kind, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeInputBinding,
		Message: fmt.Sprintf("cannot bind inputs of %s: %s", kind, reason),
		Details: map[string]any{"kind": kind},
	}
}

// InvalidSignature creates an error for a malformed parameter list.
func InvalidSignature(kind, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidSignature,
		Message: fmt.Sprintf("invalid signature for %s: %s", kind, reason),
		Details: map[string]any{"kind": kind},
	}
}

// ScopeMismatch creates an error for an input node owned by a different scope.
func ScopeMismatch(kind, key string) *AppError {
	return &AppError{
		Code:    ErrCodeScopeMismatch,
		Message: fmt.Sprintf("input %q of %s belongs to a different scope", key, kind),
		Details: map[string]any{"kind": kind, "key": key},
	}
}

// Cycle creates an error for an update that would introduce a dependency cycle.
func Cycle(kind, key string) *AppError {
	return &AppError{
		Code:    ErrCodeCycle,
		Message: fmt.Sprintf("input %q of %s would make the node depend on itself", key, kind),
		Details: map[string]any{"kind": kind, "key": key},
	}
}

// InvalidOption creates an error for a configuration option with a bad value.
func InvalidOption(name string, value any, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidOption,
		Message: fmt.Sprintf("invalid value %v for option %s: %s", value, name, reason),
		Details: map[string]any{"option": name},
	}
}

// InvalidBatchMode creates an error for an unknown batch combination strategy.
func InvalidBatchMode(mode string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidBatchMode,
		Message: fmt.Sprintf("invalid batch_iter mode: %q", mode),
		Details: map[string]any{"batch_iter": mode},
	}
}

// UnsupportedOperand creates an error for an operator applied to incompatible values.
func UnsupportedOperand(op string, operands ...any) *AppError {
	types := make([]string, 0, len(operands))
	for _, o := range operands {
		types = append(types, fmt.Sprintf("%T", o))
	}
	return &AppError{
		Code:    ErrCodeUnsupportedOperand,
		Message: fmt.Sprintf("unsupported operand type(s) for %s: %s", op, strings.Join(types, ", ")),
		Details: map[string]any{"op": op},
	}
}

// NotFound creates an error for a missing resource.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s %q not found", resource, id),
		Details: details,
	}
}

// AlreadyExists creates an error for a resource that is already registered.
func AlreadyExists(resource, id string) *AppError {
	return &AppError{
		Code:    ErrCodeAlreadyExists,
		Message: fmt.Sprintf("%s %q already exists", resource, id),
		Details: map[string]any{"resource": resource, "id": id},
	}
}

// InplaceOperation creates the error returned by every in-place operator form.
func InplaceOperation(op string) *AppError {
	return &AppError{
		Code:    ErrCodeInplaceOperation,
		Message: fmt.Sprintf("in-place operation %s is not supported for nodes", op),
		Details: map[string]any{"op": op},
	}
}

// Internal creates an error for an unexpected internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "an unexpected internal error occurred",
		Cause:   cause,
	}
}

// --- Inspection helpers ---

// coded is implemented by every error type that carries an ErrorCode.
type coded interface {
	ErrorCode() ErrorCode
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first coded error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var c coded
	if stderrors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

// HasCode reports whether any error in err's chain carries the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if c, ok := err.(coded); ok && c.ErrorCode() == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// Is, As, Join and Unwrap re-export the standard library helpers so callers
// only need one errors import.
var (
	Is     = stderrors.Is
	As     = stderrors.As
	Join   = stderrors.Join
	Unwrap = stderrors.Unwrap
)
