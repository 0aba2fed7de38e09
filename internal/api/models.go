package api

// CaptchaRequest represents a JSON recognition request carrying a base64
// encoded image.
type CaptchaRequest struct {
	Image string `json:"image" validate:"required"`
}

// CaptchaResponse represents the response for a synchronous recognition.
type CaptchaResponse struct {
	Code string `json:"code"`
	Raw  string `json:"raw"`
}

// CaptchaPollResponse represents the response for the poll-mode endpoints and
// the task status query. Code and Raw are present only when status is "done",
// Error only when it is "error".
type CaptchaPollResponse struct {
	Status string `json:"status"`
	TaskID string `json:"task_id"`
	Code   string `json:"code,omitempty"`
	Raw    string `json:"raw,omitempty"`
	Error  string `json:"error,omitempty"`
}
