package search

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogDiagnostic(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	LogDiagnostic(logger, Event{Kind: EventDiagnostic, Path: "/a", Level: LevelInfo, Message: "skipping symlink"})
	LogDiagnostic(logger, Event{Kind: EventDiagnostic, Path: "/b", Level: LevelWarn, Message: "can't resolve symlink", Err: errors.New("loop")})
	LogDiagnostic(logger, Event{Kind: EventDiagnostic, Path: "/c", Level: LevelError, Message: "can't walk directory", Err: os.ErrPermission})

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "skipping symlink", entries[0].Message)
	assert.Equal(t, map[string]interface{}{"path": "/a"}, entries[0].ContextMap())

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "loop", entries[1].ContextMap()["error"])

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "/c", entries[2].ContextMap()["path"])
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected []string
	}{
		{LogLevelError, []string{"ERROR"}},
		{LogLevelWarn, []string{"WARN", "ERROR"}},
		{LogLevelInfo, []string{"INFO", "WARN", "ERROR"}},
		{LogLevelDebug, []string{"DEBUG", "INFO", "WARN", "ERROR"}},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := NewLogger(LoggerOptions{Level: tt.level, Output: zapcore.AddSync(&buf)})

		logger.Debug("debug")
		logger.Info("info")
		logger.Warn("warn")
		logger.Error("error")
		require.NoError(t, logger.Sync())

		var levels []string
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			levels = append(levels, strings.Fields(line)[0])
		}
		assert.Equal(t, tt.expected, levels, "level %d", tt.level)
	}
}

func TestNewLoggerColor(t *testing.T) {
	var plain, colored bytes.Buffer

	NewLogger(LoggerOptions{Level: LogLevelError, Output: zapcore.AddSync(&plain)}).Error("boom")
	NewLogger(LoggerOptions{Level: LogLevelError, Color: true, Output: zapcore.AddSync(&colored)}).Error("boom")

	assert.NotContains(t, plain.String(), "\x1b[")
	assert.Contains(t, colored.String(), "\x1b[")
	assert.Contains(t, colored.String(), "boom")
}

func TestNewLoggerFile(t *testing.T) {
	var console bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "fgr.log")

	logger := NewLogger(LoggerOptions{
		Level:   LogLevelError,
		Output:  zapcore.AddSync(&console),
		LogFile: logFile,
	})
	LogDiagnostic(logger, Event{Kind: EventDiagnostic, Path: "/a", Level: LevelInfo, Message: "skipping symlink"})
	require.NoError(t, logger.Sync())

	// Info diagnostics reach the file even when the console only shows errors.
	assert.Empty(t, console.String())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "skipping symlink", entry["msg"])
	assert.Equal(t, "/a", entry["path"])
}
