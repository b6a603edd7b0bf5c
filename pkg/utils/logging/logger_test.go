package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func fixedClock() time.Time {
	return time.Date(2024, 1, 15, 9, 30, 0, 0, time.Local)
}

func TestNew_WritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, path, err := New(Options{Env: "test", LogsDir: dir, Console: &console, Now: fixedClock})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "test_2024-01-15_09-30-00.log"), path)

	logger.Debug("file only", zap.String("worker_id", "w1"))
	logger.Info("both", zap.Int("count", 2))
	require.NoError(t, logger.Sync())

	assert.NotContains(t, console.String(), "file only")
	assert.Contains(t, console.String(), "both")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "file only", first["msg"])
	assert.Equal(t, "w1", first["worker_id"])
	assert.Equal(t, "test", first["env"])
	assert.Contains(t, first, "timestamp")
}

func TestNew_Quiet(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := New(Options{Env: "serve", LogsDir: t.TempDir(), Console: &console, Quiet: true})
	require.NoError(t, err)

	logger.Warn("nothing on the console")
	require.NoError(t, logger.Sync())
	assert.Empty(t, console.String())
}

func TestNew_ConsoleLevel(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := New(Options{LogsDir: t.TempDir(), Console: &console, ConsoleLevel: zapcore.WarnLevel})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Sync())
	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
}

func TestNew_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, _, err := New(Options{LogsDir: filepath.Join(file, "logs")})
	assert.ErrorContains(t, err, "failed to create logs directory")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)

	level, err = ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
