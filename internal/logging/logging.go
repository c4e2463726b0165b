// Package logging builds the zap logger tally writes to its log file.
//
// The terminal belongs to the UI, so nothing is written to stderr. Lines use
// zap's console encoder with a fixed timestamp layout so logtail can parse
// them back for the Logs view.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimeLayout is the timestamp format of every log line.
const TimeLayout = "2006-01-02 15:04:05"

// EncoderConfig returns the console encoder settings shared by New and tests.
func EncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(TimeLayout)
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeCaller = nil
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	return cfg
}

// New opens path for appending and returns a logger at level together with a
// close function that flushes and closes the file. An empty path returns a
// no-op logger.
func New(path, level string) (*zap.Logger, func() error, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return zap.NewNop(), func() error { return nil }, nil
	}

	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, nil, fmt.Errorf("parse log level: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(EncoderConfig()), zapcore.AddSync(file), lvl)
	logger := zap.New(core)

	closeFn := func() error {
		_ = logger.Sync()
		return file.Close()
	}
	return logger, closeFn, nil
}
