package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/solvex-io/captcha-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupReturnsLogger(t *testing.T) {
	logger := Setup(config.ServerConfig{Port: 8000, LogLevel: "info"})
	require.NotNil(t, logger)

	// The configured logger must also be installed as the process default.
	assert.Equal(t, logger, slog.Default())
}

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		configured string
		enabled    slog.Level
		disabled   slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 4},
		{"info", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.configured, func(t *testing.T) {
			logger := Setup(config.ServerConfig{Port: 8000, LogLevel: tt.configured})
			assert.True(t, logger.Enabled(context.Background(), tt.enabled))
			assert.False(t, logger.Enabled(context.Background(), tt.disabled))
		})
	}
}

func TestSetupInvalidLevelFallsBackToInfo(t *testing.T) {
	logger := Setup(config.ServerConfig{Port: 8000, LogLevel: "verbose"})
	require.NotNil(t, logger)

	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
