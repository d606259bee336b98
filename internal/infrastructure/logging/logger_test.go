package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"credit-approval/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for raw, want := range tests {
		assert.Equal(t, want, parseLevel(raw), raw)
	}
}

func TestNewLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LoggerConfig{Level: "warn", Encoding: "json"}, &buf)

	logger.Info("dropped")
	logger.Warn("kept", "customerID", int64(7))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "WARN", record["level"])
	assert.EqualValues(t, 7, record["customerID"])
}

func TestNewLoggerTextEncoding(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LoggerConfig{Level: "info", Encoding: "text"}, &buf)

	logger.Info("hello")

	assert.Contains(t, buf.String(), "msg=hello")
}
