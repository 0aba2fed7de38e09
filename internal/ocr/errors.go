package ocr

import "errors"

// Common errors returned by the ocr package and the task coordinator
var (
	// ErrTimeout is returned when a backend call exceeds its configured deadline
	ErrTimeout = errors.New("backend call timed out")

	// ErrBackendFailure is returned when the backend fails for any reason other
	// than a timeout; the backend's own message is preserved in the wrapping error
	ErrBackendFailure = errors.New("backend call failed")

	// ErrTaskNotFound is returned when a task id is unknown or its finished
	// entry has already been evicted
	ErrTaskNotFound = errors.New("task not found")

	// ErrInconsistentState is returned when a finished task has neither a
	// result nor a failure recorded; it signals a bug, not a user error
	ErrInconsistentState = errors.New("task finished without result")

	// ErrInvalidConfig is returned when the backend configuration is invalid
	ErrInvalidConfig = errors.New("invalid backend configuration")
)
