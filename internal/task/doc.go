// Package task implements the request-deduplicating, result-caching
// coordinator that sits between the HTTP handlers and the OCR backend.
//
// The coordinator guarantees that concurrent or repeated submissions of the
// same image trigger at most one outstanding backend call (single-flight),
// exposes both a submit-and-poll mode and a synchronous wait mode over the
// same state, and reclaims memory for finished entries after a bounded time
// or when a capacity limit is exceeded.
package task
