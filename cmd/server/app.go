package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/solvex-io/captcha-api/internal/config"
	"github.com/solvex-io/captcha-api/internal/platform/gemini"
	"github.com/solvex-io/captcha-api/internal/task"
)

// application holds the assembled dependencies of the server: configuration,
// logging, the OCR backend and the task coordinator built on top of it.
type application struct {
	config      *config.Config
	logger      *slog.Logger
	coordinator *task.Coordinator
}

// newApplication wires the application together from validated configuration.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	backend, err := gemini.NewBackend(logger, cfg.OCR)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR backend: %w", err)
	}

	coordinator := task.NewCoordinator(backend, task.CoordinatorConfig{
		TaskTTL:           time.Duration(cfg.Task.TTLSeconds) * time.Second,
		MaxEntries:        cfg.Task.MaxEntries,
		CallTimeout:       time.Duration(cfg.Task.CallTimeoutSeconds) * time.Second,
		ScopeByCredential: cfg.Task.ScopeByCredential,
	}, logger)

	return &application{
		config:      cfg,
		logger:      logger,
		coordinator: coordinator,
	}, nil
}
