package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"merchantdir/internal/models"
	"merchantdir/internal/version"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVersion = version.Info{
	Version:    "v1.4.0",
	GitCommit:  "abc1234",
	BuildDate:  "2026-10-01T00:00:00Z",
	InstanceID: "instance-1",
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input     string
		expected  slog.Level
		expectErr bool
	}{
		{input: "debug", expected: slog.LevelDebug},
		{input: "info", expected: slog.LevelInfo},
		{input: "", expected: slog.LevelInfo},
		{input: "warn", expected: slog.LevelWarn},
		{input: "WARNING", expected: slog.LevelWarn},
		{input: "error", expected: slog.LevelError},
		{input: "Info", expected: slog.LevelInfo},
		{input: "verbose", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLevel(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestSetupWriter_JSONCarriesBuildFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupWriter(&buf, models.LoggingConfig{Level: "info", Format: "json"}, testVersion)
	require.NoError(t, err)

	logger.Info("dataset loaded", "merchants", 45)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "dataset loaded", record["msg"])
	assert.Equal(t, "v1.4.0", record["version"])
	assert.Equal(t, "abc1234", record["git_commit"])
	assert.Equal(t, "instance-1", record["instance_id"])
	assert.EqualValues(t, 45, record["merchants"])
}

func TestSetupWriter_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupWriter(&buf, models.LoggingConfig{Level: "warn", Format: "text"}, version.Info{})
	require.NoError(t, err)

	logger.Info("should not appear")
	logger.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
	assert.NotContains(t, out, "instance_id")
}

func TestSetupWriter_Errors(t *testing.T) {
	var buf bytes.Buffer

	_, err := SetupWriter(&buf, models.LoggingConfig{Level: "loud"}, testVersion)
	assert.ErrorContains(t, err, "invalid log level")

	_, err = SetupWriter(&buf, models.LoggingConfig{Level: "info", Format: "xml"}, testVersion)
	assert.ErrorContains(t, err, "unsupported log format")
}

func TestSetup_StdStreams(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", ""} {
		t.Run(output, func(t *testing.T) {
			logger, closer, err := Setup(models.LoggingConfig{Level: "info", Format: "json", Output: output}, testVersion)
			require.NoError(t, err)
			assert.Nil(t, closer)
			assert.NotNil(t, logger)
		})
	}
}

func TestSetup_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "directory.log")
	cfg := models.LoggingConfig{Level: "info", Format: "json", Output: "file", FilePath: logFile}

	logger, closer, err := Setup(cfg, testVersion)
	require.NoError(t, err)
	require.NotNil(t, closer)

	logger.Info("server started", "port", 8080)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "server started")
	assert.Contains(t, string(data), `"port":8080`)
}

func TestSetup_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.LoggingConfig
	}{
		{name: "file without path", cfg: models.LoggingConfig{Level: "info", Output: "file"}},
		{name: "unwritable file", cfg: models.LoggingConfig{Level: "info", Output: "file", FilePath: "/nonexistent/dir/directory.log"}},
		{name: "unknown output", cfg: models.LoggingConfig{Level: "info", Output: "syslog"}},
		{name: "invalid level", cfg: models.LoggingConfig{Level: "invalid", Output: "stdout"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Setup(tt.cfg, testVersion)
			assert.Error(t, err)
		})
	}
}

func TestSetup_InvalidLevelClosesFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "directory.log")
	_, closer, err := Setup(models.LoggingConfig{Level: "nope", Output: "file", FilePath: logFile}, testVersion)

	assert.Error(t, err)
	assert.Nil(t, closer)
}
