package api

import (
	"errors"
	"net/http"

	"github.com/solvex-io/captcha-api/internal/ocr"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types to
// clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, ocr.ErrTimeout):
		return http.StatusGatewayTimeout

	case errors.Is(err, ocr.ErrTaskNotFound):
		return http.StatusNotFound

	// Inconsistent state signals a bug, not a user error; surface it as a
	// generic server error.
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns the message exposed to clients for an error.
// Backend failure descriptions are user-facing data in this API (the caller
// asked for the recognition outcome, including its failure), so they pass
// through; everything else is sanitized.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, ocr.ErrTimeout),
		errors.Is(err, ocr.ErrBackendFailure):
		return err.Error()

	case errors.Is(err, ocr.ErrTaskNotFound):
		return "task_id not found"

	case errors.Is(err, ocr.ErrInconsistentState):
		return "internal error: task finished without result"

	default:
		return "An unexpected error occurred"
	}
}
