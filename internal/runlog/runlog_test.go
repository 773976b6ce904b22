package runlog

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time { return time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC) }

func TestOpenWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	inputs := map[string]any{"run_name": "tanh", "dilution": 0.05}

	l, err := Open(path, inputs, Options{Level: slog.LevelInfo, Now: fixedNow})
	require.NoError(t, err)
	l.Info("sampling done", "samples", 10)
	require.NoError(t, l.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(string(raw), "\n")

	assert.Equal(t, "# Run at UTC 2024-02-03T04:05:06Z", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "# By user "))
	assert.True(t, strings.HasPrefix(lines[2], "# On host "))
	assert.Contains(t, string(raw), "#   run_name: tanh")
	assert.Contains(t, string(raw), "msg=\"sampling done\" samples=10")
}

func TestCloseIsIdempotent(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "run.log"), nil, Options{})
	require.NoError(t, err)

	require.NoError(t, l.Close())
	assert.NoError(t, l.Close())
	assert.NotPanics(t, func() { l.Info("after close") })
}

func TestOpenFailsOnMissingDir(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent", "run.log"), nil, Options{})
	assert.Error(t, err)
}

func TestConsoleFanout(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "run.log")

	l, err := Open(path, nil, Options{Console: true, ConsoleWriter: &console, Level: slog.LevelInfo, Now: fixedNow})
	require.NoError(t, err)
	defer l.Close()

	l.With("run", "a").Info("both sinks")
	l.Debug("filtered")

	assert.Contains(t, console.String(), "both sinks")
	assert.NotContains(t, console.String(), "filtered")

	require.NoError(t, l.Close())
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "run=a")
	assert.NotContains(t, string(raw), "filtered")
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, LevelFor(0))
	assert.Equal(t, slog.LevelInfo, LevelFor(1))
	assert.Equal(t, slog.LevelInfo, LevelFor(2))
	assert.Equal(t, slog.LevelDebug, LevelFor(3))
}
