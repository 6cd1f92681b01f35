package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func start(t *testing.T, dir string, debounce time.Duration) *Watcher {
	t.Helper()
	w, err := New(dir, debounce, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	// let Run register the directory
	time.Sleep(50 * time.Millisecond)
	return w
}

func receive(t *testing.T, w *Watcher, timeout time.Duration) (string, bool) {
	t.Helper()
	select {
	case p := <-w.Paths():
		return p, true
	case <-time.After(timeout):
		return "", false
	}
}

func TestWatcher_EmitsAvifOnceAfterQuietPeriod(t *testing.T) {
	dir := t.TempDir()
	w := start(t, dir, 100*time.Millisecond)

	path := filepath.Join(dir, "photo.AVIF")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte(i)}, 0o600))
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.avif"), []byte("x"), 0o600))

	got, ok := receive(t, w, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, path, got)

	_, ok = receive(t, w, 300*time.Millisecond)
	assert.False(t, ok, "expected a single debounced event")
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "absent"), time.Millisecond, nil)
	require.NoError(t, err)
	assert.Error(t, w.Run(context.Background()))

	_, open := <-w.Paths()
	assert.False(t, open)
}

func TestIsCandidate(t *testing.T) {
	assert.True(t, IsCandidate("/in/a.avif"))
	assert.True(t, IsCandidate("B.AvIf"))
	assert.False(t, IsCandidate("/in/.a.avif"))
	assert.False(t, IsCandidate("a.png"))
}

func TestExisting(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.avif", "a.avif", "c.txt", ".d.avif"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.avif"), 0o750))

	got, err := Existing(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.avif"), filepath.Join(dir, "b.avif")}, got)
}
