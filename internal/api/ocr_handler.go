package api

import (
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/solvex-io/captcha-api/internal/api/shared"
	"github.com/solvex-io/captcha-api/internal/task"
)

// maxUploadBytes bounds multipart image uploads. Captchas are small; anything
// bigger than this is not a captcha.
const maxUploadBytes = 8 << 20

// OCRHandler handles captcha recognition HTTP requests.
type OCRHandler struct {
	coordinator *task.Coordinator
	logger      *slog.Logger
}

// NewOCRHandler creates a new OCRHandler.
func NewOCRHandler(coordinator *task.Coordinator, logger *slog.Logger) *OCRHandler {
	return &OCRHandler{
		coordinator: coordinator,
		logger:      logger,
	}
}

// Classify handles POST /api/ocr requests: base64 image in, synchronous
// recognition, code and raw reply out.
func (h *OCRHandler) Classify(w http.ResponseWriter, r *http.Request) {
	image, ok := h.decodeBase64Body(w, r)
	if !ok {
		return
	}
	h.classify(w, r, image)
}

// ClassifyUpload handles POST /api/ocr/upload requests: multipart image file
// in, synchronous recognition out.
func (h *OCRHandler) ClassifyUpload(w http.ResponseWriter, r *http.Request) {
	image, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	h.classify(w, r, image)
}

// Poll handles POST /api/ocr/poll requests: submit (or join) a background
// task for the image and report its current status without waiting. The
// retry query parameter restarts a previously failed task.
func (h *OCRHandler) Poll(w http.ResponseWriter, r *http.Request) {
	image, ok := h.decodeBase64Body(w, r)
	if !ok {
		return
	}
	h.poll(w, r, image)
}

// PollUpload handles POST /api/ocr/upload/poll requests: the multipart
// variant of Poll.
func (h *OCRHandler) PollUpload(w http.ResponseWriter, r *http.Request) {
	image, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	h.poll(w, r, image)
}

// TaskStatus handles GET /api/ocr/task/{taskID} requests: status for a
// previously submitted task, looked up by its image-digest id.
func (h *OCRHandler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	credential := shared.GetCredential(r.Context())

	status := h.coordinator.GetStatus(taskID, credential)
	if status.State == task.TaskStateNotFound {
		shared.RespondWithError(w, r, http.StatusNotFound, "task_id not found")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, pollResponse(taskID, status))
}

func (h *OCRHandler) classify(w http.ResponseWriter, r *http.Request, image []byte) {
	credential := shared.GetCredential(r.Context())

	result, err := h.coordinator.Classify(r.Context(), image, credential)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CaptchaResponse{
		Code: result.Code,
		Raw:  result.Raw,
	})
}

func (h *OCRHandler) poll(w http.ResponseWriter, r *http.Request, image []byte) {
	credential := shared.GetCredential(r.Context())
	forceRetry, _ := strconv.ParseBool(r.URL.Query().Get("retry"))

	taskID := h.coordinator.Submit(image, credential, forceRetry)
	status := h.coordinator.GetStatus(taskID, credential)

	shared.RespondWithJSON(w, r, http.StatusOK, pollResponse(taskID, status))
}

// decodeBase64Body parses a CaptchaRequest and decodes its image. On failure
// it writes a 400 response and returns ok=false; malformed input never
// reaches the coordinator.
func (h *OCRHandler) decodeBase64Body(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	var req CaptchaRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return nil, false
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: image is required")
		return nil, false
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid base64 image")
		return nil, false
	}
	return image, true
}

// readUpload reads the uploaded image file from a multipart form. On failure
// it writes a 400 response and returns ok=false.
func (h *OCRHandler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "missing or invalid file upload")
		return nil, false
	}
	defer func() {
		if err := file.Close(); err != nil {
			h.logger.Warn("failed to close upload", "error", err)
		}
	}()

	image, err := io.ReadAll(file)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "failed to read file upload")
		return nil, false
	}
	return image, true
}

// pollResponse converts a coordinator status into the wire representation.
func pollResponse(taskID string, status task.TaskStatus) CaptchaPollResponse {
	resp := CaptchaPollResponse{
		Status: string(status.State),
		TaskID: taskID,
	}
	switch status.State {
	case task.TaskStateDone:
		resp.Code = status.Code
		resp.Raw = status.Raw
	case task.TaskStateError:
		resp.Error = status.Error
		if resp.Error == "" {
			resp.Error = "unknown error"
		}
	case task.TaskStateNotFound:
		// Poll right after submit can only miss the entry if eviction raced
		// the status read; report it as an error rather than a phantom task.
		resp.Status = string(task.TaskStateError)
		resp.Error = "unknown error"
	}
	return resp
}
