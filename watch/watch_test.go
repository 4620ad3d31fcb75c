package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mithras-link/errors"
)

func startWatcher(t *testing.T, path string, debounce time.Duration) (*Watcher, context.CancelFunc, <-chan error) {
	t.Helper()

	w, err := New(path, debounce)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(cancel)
	return w, cancel, done
}

func TestWatcher_NotifiesOnCreateAndWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mithras.a")

	w, _, _ := startWatcher(t, path, 10*time.Millisecond)

	var mu sync.Mutex
	var seen []string
	w.OnChange(func(p string) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, p)
		return nil
	})

	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, filepath.Clean(path), seen[0])
	mu.Unlock()
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mithras.a")

	w, _, _ := startWatcher(t, path, 10*time.Millisecond)

	var calls atomic.Int32
	w.OnChange(func(string) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "mithras.h"), []byte("header"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mithras.a")

	w, _, _ := startWatcher(t, path, 300*time.Millisecond)

	var calls atomic.Int32
	w.OnChange(func(string) error {
		calls.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte(i)}, 0o644))
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcher_CallbackErrorDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mithras.a")

	w, _, _ := startWatcher(t, path, 10*time.Millisecond)

	var second atomic.Bool
	w.OnChange(func(string) error { return errors.New("regenerate failed") })
	w.OnChange(func(string) error {
		second.Store(true)
		return nil
	})

	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
	require.Eventually(t, second.Load, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	_, cancel, done := startWatcher(t, filepath.Join(t.TempDir(), "mithras.a"), time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "mithras.a"), time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch")
}
