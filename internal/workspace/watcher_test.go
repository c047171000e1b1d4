package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcherContextBeforeStart(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root)
	require.NoError(t, err)
	defer w.watcher.Close()

	bag := w.Context()
	assert.Equal(t, "project "+filepath.Base(root), bag.GetString("projectInfo"))
	assert.Empty(t, bag.GetString("currentFile"))
}

func TestWatcherTracksRecentFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	w, err := NewWatcher(root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0o644))

	require.Eventually(t, func() bool {
		return w.Context().GetString("currentFile") == "main.go"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherSkipsDotfiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	w, err := NewWatcher(root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("SECRET=1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("hi\n"), 0o644))

	require.Eventually(t, func() bool {
		return w.Context().GetString("currentFile") == "notes.md"
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotEqual(t, ".env", w.Context().GetString("currentFile"))
}
