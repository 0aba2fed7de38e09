// Package api implements the HTTP handlers for the captcha OCR service:
// synchronous recognition, submit-and-poll recognition, and task status
// queries, over both base64 JSON bodies and multipart uploads.
package api
