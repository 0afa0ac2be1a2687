package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempConfigFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "configurator.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runtime:\n  log_level: info\n"), 0o644))
	return path
}

func TestWatcher_Watch(t *testing.T) {
	t.Run("Should coalesce a burst of writes into one notification", func(t *testing.T) {
		path := tempConfigFile(t)
		watcher, err := NewWatcher()
		require.NoError(t, err)
		defer watcher.Close()

		var calls atomic.Int32
		watcher.OnChange(func() { calls.Add(1) })
		require.NoError(t, watcher.Watch(t.Context(), path))
		time.Sleep(50 * time.Millisecond)

		for range 3 {
			require.NoError(t, os.WriteFile(path, []byte("runtime:\n  log_level: debug\n"), 0o644))
		}
		assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
		time.Sleep(300 * time.Millisecond)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("Should stop watching on context cancellation", func(t *testing.T) {
		path := tempConfigFile(t)
		watcher, err := NewWatcher()
		require.NoError(t, err)
		defer watcher.Close()

		var calls atomic.Int32
		watcher.OnChange(func() { calls.Add(1) })
		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, watcher.Watch(ctx, path))
		cancel()
		time.Sleep(100 * time.Millisecond)

		require.NoError(t, os.WriteFile(path, []byte("runtime:\n  log_level: warn\n"), 0o644))
		time.Sleep(300 * time.Millisecond)
		assert.Zero(t, calls.Load())
	})

	t.Run("Should fail for a missing file", func(t *testing.T) {
		watcher, err := NewWatcher()
		require.NoError(t, err)
		defer watcher.Close()
		assert.Error(t, watcher.Watch(t.Context(), filepath.Join(t.TempDir(), "absent.yaml")))
	})
}

func TestWatcher_Close(t *testing.T) {
	t.Run("Should be idempotent", func(t *testing.T) {
		watcher, err := NewWatcher()
		require.NoError(t, err)
		require.NoError(t, watcher.Watch(t.Context(), tempConfigFile(t)))
		assert.NoError(t, watcher.Close())
		assert.NoError(t, watcher.Close())
	})
}
