package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesConsoleLinesAtLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tally.log")

	logger, closeFn, err := New(path, "info")
	require.NoError(t, err)

	logger.Named("sales").Info("merged sales page", zap.Int("page", 2))
	logger.Debug("hidden")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	fields := strings.Split(lines[0], "\t")
	require.GreaterOrEqual(t, len(fields), 4, "line = %q", lines[0])
	assert.Len(t, fields[0], len(TimeLayout))
	assert.Equal(t, "INFO", fields[1])
	assert.Equal(t, "sales", fields[2])
	assert.Equal(t, "merged sales page", fields[3])
	assert.Contains(t, lines[0], `{"page": 2}`)
}

func TestNew_EmptyPathIsNop(t *testing.T) {
	logger, closeFn, err := New("  ", "debug")
	require.NoError(t, err)
	logger.Info("dropped")
	assert.NoError(t, closeFn())
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, _, err := New(filepath.Join(t.TempDir(), "x.log"), "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
