package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/solvex-io/captcha-api/internal/api"
	apiMiddleware "github.com/solvex-io/captcha-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Every /api route sits behind the shared-secret gate and
// the credential extractor; health and metrics stay open.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace)
	r.Use(apiMiddleware.Metrics)

	ocrHandler := api.NewOCRHandler(app.coordinator, app.logger)
	secretAuth := apiMiddleware.NewSecretAuth(app.config.Auth.APISecret)
	credential := apiMiddleware.NewCredential(app.config.OCR.GeminiAPIKey != "")

	r.Route("/api", func(r chi.Router) {
		r.Use(secretAuth.Require)
		r.Use(credential.Extract)

		r.Post("/ocr", ocrHandler.Classify)
		r.Post("/ocr/upload", ocrHandler.ClassifyUpload)
		r.Post("/ocr/poll", ocrHandler.Poll)
		r.Post("/ocr/upload/poll", ocrHandler.PollUpload)
		r.Get("/ocr/task/{taskID}", ocrHandler.TaskStatus)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
