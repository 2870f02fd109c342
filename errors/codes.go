package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Launch-phase errors
const (
	// ErrCodePrecondition indicates a task was not launchable as configured.
	ErrCodePrecondition ErrorCode = "PRECONDITION_VIOLATION"
	// ErrCodeLaunchFailure indicates the subprocess could not be spawned.
	ErrCodeLaunchFailure ErrorCode = "LAUNCH_FAILURE"
	// ErrCodeIOFailure indicates a work-directory artifact could not be written or read.
	ErrCodeIOFailure ErrorCode = "IO_FAILURE"
)

// Dataflow errors
const (
	// ErrCodeChannelResolution indicates an input source could not be resolved to a channel.
	ErrCodeChannelResolution ErrorCode = "CHANNEL_RESOLUTION"
	// ErrCodeStreamClosed indicates a send on an already-closed stream.
	ErrCodeStreamClosed ErrorCode = "STREAM_CLOSED"
)

// Execution-outcome errors
const (
	// ErrCodeProcessFailure indicates a task exited outside its valid exit-code
	// set or was killed by its timeout. Recorded on the task, never thrown by
	// the launcher; surfaced as an error only by layers that choose to.
	ErrCodeProcessFailure ErrorCode = "PROCESS_FAILURE"
	// ErrCodeInvalidState indicates an illegal task status transition.
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"
	// ErrCodeInvalidInput indicates invalid engine or task configuration.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeProcessFailure: true,
	ErrCodeLaunchFailure:  false,
	ErrCodeIOFailure:      true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
