package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/solvex-io/captcha-api/internal/ocr"
	"github.com/solvex-io/captcha-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend implements ocr.Backend with a canned reply or error.
type fakeBackend struct {
	raw     string
	err     error
	release chan struct{}
}

func (f *fakeBackend) Recognize(ctx context.Context, image []byte, credential string) (string, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.raw, nil
}

func newTestHandler(backend ocr.Backend) (*OCRHandler, *task.Coordinator) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	coordinator := task.NewCoordinator(backend, task.DefaultCoordinatorConfig(), logger)
	return NewOCRHandler(coordinator, logger), coordinator
}

func newTestRouter(h *OCRHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/ocr", h.Classify)
	r.Post("/api/ocr/upload", h.ClassifyUpload)
	r.Post("/api/ocr/poll", h.Poll)
	r.Post("/api/ocr/upload/poll", h.PollUpload)
	r.Get("/api/ocr/task/{taskID}", h.TaskStatus)
	return r
}

func captchaBody(t *testing.T, image []byte) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(CaptchaRequest{Image: base64.StdEncoding.EncodeToString(image)})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func uploadBody(t *testing.T, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "captcha.png")
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestClassifyReturnsExtractedCode(t *testing.T) {
	h, _ := newTestHandler(&fakeBackend{raw: "result: Qw7Zt done"})
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/ocr", captchaBody(t, []byte("image")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CaptchaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Qw7Zt", resp.Code)
	assert.Equal(t, "result: Qw7Zt done", resp.Raw)
}

func TestClassifyRejectsInvalidBase64(t *testing.T) {
	h, _ := newTestHandler(&fakeBackend{raw: "aB3dE"})
	router := newTestRouter(h)

	body := strings.NewReader(`{"image": "!!! not base64 !!!"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/ocr", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid base64 image")
}

func TestClassifyRejectsMalformedJSON(t *testing.T) {
	h, _ := newTestHandler(&fakeBackend{raw: "aB3dE"})
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/ocr", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassifyRejectsMissingImage(t *testing.T) {
	h, _ := newTestHandler(&fakeBackend{raw: "aB3dE"})
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/ocr", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassifySurfacesBackendFailure(t *testing.T) {
	h, _ := newTestHandler(&fakeBackend{
		err: fmt.Errorf("%w: quota exceeded", ocr.ErrBackendFailure),
	})
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/ocr", captchaBody(t, []byte("image")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "quota exceeded")
}

func TestClassifyUpload(t *testing.T) {
	h, _ := newTestHandler(&fakeBackend{raw: "aB3dE"})
	router := newTestRouter(h)

	body, contentType := uploadBody(t, []byte("image bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CaptchaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "aB3dE", resp.Code)
}

func TestClassifyUploadMissingFile(t *testing.T) {
	h, _ := newTestHandler(&fakeBackend{raw: "aB3dE"})
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/ocr/upload", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPollLifecycle(t *testing.T) {
	backend := &fakeBackend{raw: "result: Qw7Zt done", release: make(chan struct{})}
	h, coordinator := newTestHandler(backend)
	router := newTestRouter(h)

	image := []byte("image")

	// First poll: the task is submitted and still pending.
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/poll", captchaBody(t, image))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CaptchaPollResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, task.DeriveTaskID(image), resp.TaskID)
	assert.Empty(t, resp.Code)

	// Let the backend finish and wait for the state transition.
	close(backend.release)
	require.Eventually(t, func() bool {
		return coordinator.GetStatus(resp.TaskID, "").State == task.TaskStateDone
	}, 2*time.Second, 5*time.Millisecond)

	// Second poll: same image, cached result.
	req = httptest.NewRequest(http.MethodPost, "/api/ocr/poll", captchaBody(t, image))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "done", resp.Status)
	assert.Equal(t, "Qw7Zt", resp.Code)
	assert.Equal(t, "result: Qw7Zt done", resp.Raw)
}

func TestPollReportsFailure(t *testing.T) {
	h, coordinator := newTestHandler(&fakeBackend{
		err: fmt.Errorf("%w: model unavailable", ocr.ErrBackendFailure),
	})
	router := newTestRouter(h)

	image := []byte("image")
	taskID := task.DeriveTaskID(image)

	req := httptest.NewRequest(http.MethodPost, "/api/ocr/poll", captchaBody(t, image))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		return coordinator.GetStatus(taskID, "").State == task.TaskStateError
	}, 2*time.Second, 5*time.Millisecond)

	req = httptest.NewRequest(http.MethodPost, "/api/ocr/poll", captchaBody(t, image))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp CaptchaPollResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "model unavailable")
}

func TestTaskStatusNotFound(t *testing.T) {
	h, _ := newTestHandler(&fakeBackend{raw: "aB3dE"})
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/ocr/task/0123456789abcdef0123456789abcdef", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "task_id not found")
}

func TestTaskStatusDone(t *testing.T) {
	h, coordinator := newTestHandler(&fakeBackend{raw: "Xy9Kp"})
	router := newTestRouter(h)

	image := []byte("image")
	taskID := coordinator.Submit(image, "", false)
	require.Eventually(t, func() bool {
		return coordinator.GetStatus(taskID, "").State == task.TaskStateDone
	}, 2*time.Second, 5*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/api/ocr/task/"+taskID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CaptchaPollResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "done", resp.Status)
	assert.Equal(t, "Xy9Kp", resp.Code)
}

func TestPollRetryRestartsFailedTask(t *testing.T) {
	backend := &fakeBackend{err: fmt.Errorf("%w: flaky", ocr.ErrBackendFailure)}
	h, coordinator := newTestHandler(backend)
	router := newTestRouter(h)

	image := []byte("image")
	taskID := task.DeriveTaskID(image)

	req := httptest.NewRequest(http.MethodPost, "/api/ocr/poll", captchaBody(t, image))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Eventually(t, func() bool {
		return coordinator.GetStatus(taskID, "").State == task.TaskStateError
	}, 2*time.Second, 5*time.Millisecond)

	// The backend recovers; retry=true restarts the failed task.
	backend.err = nil
	backend.raw = "aB3dE"

	req = httptest.NewRequest(http.MethodPost, "/api/ocr/poll?retry=true", captchaBody(t, image))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp CaptchaPollResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// The restarted call may or may not have finished by the time the poll
	// reads status back; either way it must no longer be the cached error.
	assert.NotEqual(t, "error", resp.Status)

	require.Eventually(t, func() bool {
		return coordinator.GetStatus(taskID, "").State == task.TaskStateDone
	}, 2*time.Second, 5*time.Millisecond)
}
