// Package ocr defines the domain boundary between the task coordinator and
// the external OCR capability. It abstracts the details of the backend
// integration (Gemini), allowing the coordinator to recognize captcha images
// without coupling to a specific external service.
package ocr
