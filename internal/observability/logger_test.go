package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/incident-report-service/internal/config"
)

func TestNewLogger_Levels(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		level   string
		enabled slog.Level
		hidden  slog.Level
	}{
		{level: "debug", enabled: slog.LevelDebug},
		{level: "info", enabled: slog.LevelInfo, hidden: slog.LevelDebug},
		{level: "WARN", enabled: slog.LevelWarn, hidden: slog.LevelInfo},
		{level: "error", enabled: slog.LevelError, hidden: slog.LevelWarn},
		{level: "nonsense", enabled: slog.LevelInfo, hidden: slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: "json"})
			ctx := context.Background()

			assert.True(t, logger.Enabled(ctx, tt.enabled))
			if tt.level != "debug" {
				assert.False(t, logger.Enabled(ctx, tt.hidden))
			}
		})
	}
}

func TestNewLogger_SetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger(&config.Config{LogLevel: "info", LogFormat: "text"})
	assert.Same(t, logger, slog.Default())
	_, isText := logger.Handler().(*slog.TextHandler)
	assert.True(t, isText)
}
