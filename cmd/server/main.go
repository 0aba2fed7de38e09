// Package main implements the entry point for the captcha OCR API server,
// which forwards captcha images to the Gemini backend through a
// deduplicating, result-caching task coordinator.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/solvex-io/captcha-api/internal/config"
	"github.com/solvex-io/captcha-api/internal/metrics"
	"github.com/solvex-io/captcha-api/internal/platform/logger"
)

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.startHTTPServer(context.Background(), app.setupRouter()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up application components.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)
	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"model", cfg.OCR.ModelName,
		"task_ttl_seconds", cfg.Task.TTLSeconds,
		"task_max_entries", cfg.Task.MaxEntries,
		"scope_by_credential", cfg.Task.ScopeByCredential)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	return newApplication(cfg, appLogger)
}
