package watcher

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

func startWatcher(t *testing.T, path string, opts ...Option) *atomic.Int32 {
	t.Helper()
	var calls atomic.Int32
	w, err := New(path, func() { calls.Add(1) }, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	return &calls
}

func TestWatcherDebouncesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	calls := startWatcher(t, path, WithDebounce(100*time.Millisecond))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"a":null}`), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "links.json")

	calls := startWatcher(t, path, WithDebounce(20*time.Millisecond))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestWatcherSeesAtomicRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "links.json")

	calls := startWatcher(t, path, WithDebounce(20*time.Millisecond))

	tmp := filepath.Join(dir, ".links-123.json")
	require.NoError(t, os.WriteFile(tmp, []byte("{}"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
}

func TestWatcherPolling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	calls := startWatcher(t, path,
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithDebounce(10*time.Millisecond))

	require.NoError(t, os.WriteFile(path, []byte(`{"https://example.com/":null}`), 0o644))
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
}
