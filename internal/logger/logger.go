// Package logger builds the slog loggers used by the directory binaries.
//
// The server and the generator share one configuration shape
// (models.LoggingConfig): a level, a json or text format, and a destination
// of stdout, stderr or an append-only file.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"merchantdir/internal/models"
	"merchantdir/internal/version"
)

// Setup opens the configured destination and returns a logger carrying the
// build fields. The returned Closer is non-nil only for file output and must
// be closed by the caller.
func Setup(cfg models.LoggingConfig, ver version.Info) (*slog.Logger, io.Closer, error) {
	writer, closer, err := openWriter(cfg.Output, cfg.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log output: %w", err)
	}

	logger, err := SetupWriter(writer, cfg, ver)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, err
	}
	return logger, closer, nil
}

// SetupWriter is Setup with an explicit destination. cfg.Output and
// cfg.FilePath are ignored.
func SetupWriter(w io.Writer, cfg models.LoggingConfig, ver version.Info) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	logger := slog.New(handler).With(ver.LogAttrs()...)
	if ver.InstanceID != "" {
		logger = logger.With(slog.String("instance_id", ver.InstanceID))
	}
	return logger, nil
}

// parseLevel accepts debug, info, warn (or warning) and error, in any case.
// An empty level means info.
func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level: %s", level)
	}
}

func openWriter(output, filePath string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(output) {
	case "stderr":
		return os.Stderr, nil, nil
	case "file":
		if filePath == "" {
			return nil, nil, fmt.Errorf("file path is required when output is file")
		}
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
		}
		return f, f, nil
	case "", "stdout":
		return os.Stdout, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported log output: %s", output)
	}
}
