package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified engine error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
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

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
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

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// Precondition creates a new AppError for a task that is not launchable as configured.
func Precondition(what string) *AppError {
	return &AppError{
		Code: ErrCodePrecondition, Message: fmt.Sprintf("Task precondition violated: %s.", what),
		Retryable: false,
		Details:   map[string]any{"precondition": what},
	}
}

// ChannelResolution creates a new AppError for an input source that could not
// be resolved to a channel.
func ChannelResolution(input, reason string) *AppError {
	return &AppError{
		Code: ErrCodeChannelResolution, Message: fmt.Sprintf("Cannot resolve a channel for input %q: %s.", input, reason),
		Retryable: false,
		Details:   map[string]any{"input": input},
	}
}

// LaunchFailed creates a new AppError for a subprocess that could not be spawned.
func LaunchFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeLaunchFailure, Message: "The task subprocess could not be started.",
		Retryable: false, Cause: cause,
	}
}

// IO creates a new AppError for a failed artifact read or write.
func IO(op, path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeIOFailure, Message: fmt.Sprintf("Artifact %s failed for %s.", op, path),
		Retryable: true, Cause: cause,
		Details: map[string]any{"op": op, "path": path},
	}
}

// ProcessFailed creates a new AppError for a task that terminated unsuccessfully.
// The launcher records this on the task rather than returning it; orchestration
// layers construct it when they need a task failure as an error value.
func ProcessFailed(exitCode int, timedOut bool) *AppError {
	msg := fmt.Sprintf("Task failed with exit code %d.", exitCode)
	if timedOut {
		msg = "Task exceeded its allotted time and was killed."
	}
	return &AppError{
		Code: ErrCodeProcessFailure, Message: msg,
		Retryable: true,
		Details:   map[string]any{"exit_code": exitCode, "timed_out": timedOut},
	}
}

// StreamClosed creates a new AppError for a send on a closed stream.
func StreamClosed() *AppError {
	return &AppError{
		Code: ErrCodeStreamClosed, Message: "Cannot send on a closed stream channel.",
		Retryable: false,
	}
}

// InvalidState creates a new AppError for an illegal task status transition.
func InvalidState(from, to string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidState, Message: fmt.Sprintf("Illegal status transition %s -> %s.", from, to),
		Retryable: false,
		Details:   map[string]any{"from": from, "to": to},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		Retryable: false,
	}
}

// --- Inspection helpers ---

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

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsRetryable reports whether err is an AppError marked retryable.
// Non-AppError values are never retryable.
func IsRetryable(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Retryable
}
