package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/exp/slog"

	"clinicsync/internal/app/client/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		env           string
		expectedLevel slog.Level
	}{
		{
			name:          "local environment",
			env:           config.EnvLocal,
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "dev environment",
			env:           config.EnvDev,
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "prod environment",
			env:           config.EnvProd,
			expectedLevel: slog.LevelInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.env)
			require.NotNil(t, logger)
			ctx := context.Background()
			assert.Equal(t, tt.expectedLevel <= slog.LevelDebug, logger.Enabled(ctx, slog.LevelDebug))
			assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
		})
	}
}

func TestSetupPrettySlog(t *testing.T) {
	logger := setupPrettySlog()
	require.NotNil(t, logger)

	ctx := context.Background()
	assert.True(t, logger.Enabled(ctx, slog.LevelDebug))
}

func TestPrettyHandler_WritesAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(prettyHandler(&buf, slog.LevelInfo)).With(slog.String("component", "sync"))

	logger.Debug("скрыто")
	logger.Info("operation pushed", slog.Int64("canonical_id", 101))

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "operation pushed")
	assert.Contains(t, out, `"canonical_id": 101`)
	assert.Contains(t, out, `"component": "sync"`)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, levelFor(config.EnvLocal, "WARN"))
	assert.Equal(t, slog.LevelError, levelFor(config.EnvDev, "error"))
	assert.Equal(t, slog.LevelInfo, levelFor(config.EnvProd, ""))
	assert.Equal(t, slog.LevelDebug, levelFor(config.EnvDev, "unknown"))
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companion.log")

	logger, closer := NewWithFile(Options{Env: config.EnvProd, Level: "info", File: path})
	logger.Debug("debug line")
	logger.Info("Компаньон запущен", slog.String("server", "https://clinic.example"))
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "Компаньон запущен", entry["msg"])
	assert.Equal(t, "https://clinic.example", entry["server"])
}

func TestNewWithFile_NoFile(t *testing.T) {
	logger, closer := NewWithFile(Options{Env: config.EnvDev})
	require.NotNil(t, logger)
	assert.NoError(t, closer.Close())
}
