package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ademirvarjao/conciliador-bancario/internal/infrastructure/config"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		logger := NewLogger(config.LoggingConfig{Level: tt.level, Format: "text"})
		require.NotNil(t, logger)
		assert.True(t, logger.Enabled(context.Background(), tt.enabled), "level %s", tt.level)
	}
}

func TestNewLogger_DebugDisabledByDefault(t *testing.T) {
	logger := NewLogger(config.LoggingConfig{Level: "info", Format: "json"})
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
