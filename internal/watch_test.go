package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatchReevaluatesWrittenProgram(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeProgram(t, dir, "attack.dice", "result = 1d6\n")
	writeProgram(t, dir, "notes.txt", "ignored")

	engine := NewEngine(Config{}, zap.NewNop())
	results := make(chan Result, 16)
	require.NoError(t, engine.StartWatching([]string{dir}, func(r Result, err error) {
		if err == nil {
			results <- r
		}
	}))
	defer engine.StopWatching()

	require.Error(t, engine.StartWatching([]string{dir}, nil))

	require.NoError(t, os.WriteFile(path, []byte("result = 2d6\n"), 0o644))
	select {
	case r := <-results:
		assert.Equal(t, path, r.Filename)
		assert.True(t, r.Distribution.Equal(mustRoll(t, 2, 6)))
	case <-time.After(5 * time.Second):
		t.Fatal("no result after write")
	}

	// same content again: served from the cache and not reported
	require.NoError(t, os.WriteFile(path, []byte("result = 2d6\n"), 0o644))
	select {
	case r := <-results:
		t.Fatalf("unexpected report for unchanged source: %v", r.Distribution)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatchSingleFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	watched := writeProgram(t, dir, "watched.dice", "result = 1d4\n")
	other := writeProgram(t, dir, "other.dice", "result = 1d4\n")

	engine := NewEngine(Config{}, zap.NewNop())
	assert.False(t, engine.isWatched(watched))

	require.NoError(t, engine.StartWatching([]string{watched}, func(Result, error) {}))
	defer engine.StopWatching()

	assert.True(t, engine.isWatched(watched))
	assert.False(t, engine.isWatched(other))
	assert.False(t, engine.isWatched(filepath.Join(dir, "notes.txt")))
}

func TestStopWatching(t *testing.T) {
	t.Parallel()
	engine := NewEngine(Config{}, zap.NewNop())
	assert.Error(t, engine.StopWatching())

	require.NoError(t, engine.StartWatching([]string{t.TempDir()}, nil))
	assert.NoError(t, engine.StopWatching())

	assert.Error(t, engine.StartWatching([]string{filepath.Join(t.TempDir(), "missing")}, nil))
}
