package inbound

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pathRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *pathRecorder) handle(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, filepath.Base(path))
}

func (r *pathRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestSpoolWatcher_Pending(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.eml", "c.json.tmp", ".hidden.json", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ProcessedDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProcessedDir, "old.json"), []byte("{}"), 0o644))

	w, err := NewSpoolWatcher(dir, 10*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	pending, err := w.Pending()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.eml"), filepath.Join(dir, "b.json")}, pending)
}

func TestSpoolWatcher_Run(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.json"), []byte("{}"), 0o644))

	w, err := NewSpoolWatcher(dir, 20*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	rec := &pathRecorder{}
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, rec.handle) }()

	require.Eventually(t, func() bool {
		return len(rec.seen()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.eml"), []byte("From: a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		return len(rec.seen()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"existing.json", "new.eml"}, rec.seen())
}

func TestSpoolWatcher_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spool", "inbox")

	w, err := NewSpoolWatcher(dir, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	assert.DirExists(t, dir)
	assert.Equal(t, defaultDebounce, w.debounce)
}
