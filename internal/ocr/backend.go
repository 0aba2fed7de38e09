package ocr

import "context"

// Result is the immutable outcome of a successful recognition: the extracted
// code plus the backend's raw text reply.
type Result struct {
	// Code is the extracted captcha code, usually 5 alphanumeric characters.
	Code string

	// Raw is the backend's unmodified (trimmed) text reply.
	Raw string
}

// Backend defines the interface for the external OCR capability.
//
// Implementations send the image bytes with a fixed recognition prompt and
// return the model's raw text reply. The credential identifies the caller's
// backend account; implementations may cache per-credential clients.
//
// Errors are reported through the package sentinels: ErrTimeout when the
// context deadline is exceeded, ErrBackendFailure (wrapped with the backend's
// message) for everything else.
type Backend interface {
	Recognize(ctx context.Context, image []byte, credential string) (string, error)
}
