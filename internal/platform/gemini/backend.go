// Package gemini implements the ocr.Backend interface using Google's Gemini
// API to recognize captcha images.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/solvex-io/captcha-api/internal/config"
	"github.com/solvex-io/captcha-api/internal/ocr"
	"google.golang.org/genai"
)

// Backend calls the Gemini API with an image and the configured recognition
// prompt and returns the model's raw text reply.
//
// API clients are created lazily per distinct credential and cached for
// reuse; callers may bring their own API key per request, falling back to the
// server-configured key when they don't.
type Backend struct {
	logger *slog.Logger
	config config.OCRConfig

	mu      sync.RWMutex
	clients map[string]*genai.Client
}

// NewBackend creates a new Backend with the provided dependencies.
func NewBackend(logger *slog.Logger, cfg config.OCRConfig) (*Backend, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ocr.ErrInvalidConfig)
	}
	if cfg.Prompt == "" {
		return nil, fmt.Errorf("%w: prompt cannot be empty", ocr.ErrInvalidConfig)
	}

	return &Backend{
		logger:  logger,
		config:  cfg,
		clients: make(map[string]*genai.Client),
	}, nil
}

// Recognize sends the image with the recognition prompt to Gemini and returns
// the trimmed text reply. A deadline on ctx bounds the call; exceeding it is
// reported as ocr.ErrTimeout, any other failure as ocr.ErrBackendFailure with
// the backend's message preserved.
func (b *Backend) Recognize(ctx context.Context, image []byte, credential string) (string, error) {
	apiKey := credential
	if apiKey == "" {
		apiKey = b.config.GeminiAPIKey
	}
	if apiKey == "" {
		return "", fmt.Errorf("%w: no API key available", ocr.ErrInvalidConfig)
	}

	client, err := b.clientFor(ctx, apiKey)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create client: %v", ocr.ErrBackendFailure, err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, "image/png"),
			genai.NewPartFromText(b.config.Prompt),
		}, genai.RoleUser),
	}

	b.logger.DebugContext(ctx, "calling gemini",
		"model", b.config.ModelName,
		"image_bytes", len(image))

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, b.config.ModelName, contents, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ocr.ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ocr.ErrBackendFailure, err)
	}

	raw := strings.TrimSpace(resp.Text())
	if raw == "" {
		return "", fmt.Errorf("%w: empty response from model", ocr.ErrBackendFailure)
	}

	b.logger.DebugContext(ctx, "gemini call succeeded",
		"model", b.config.ModelName,
		"elapsed", time.Since(start),
		"reply_length", len(raw))

	return raw, nil
}

// clientFor returns the cached client for an API key, creating it on first
// use. The cache is read-mostly; construction does no network I/O.
func (b *Backend) clientFor(ctx context.Context, apiKey string) (*genai.Client, error) {
	b.mu.RLock()
	client, ok := b.clients[apiKey]
	b.mu.RUnlock()
	if ok {
		return client, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if client, ok := b.clients[apiKey]; ok {
		return client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	b.clients[apiKey] = client
	return client, nil
}
