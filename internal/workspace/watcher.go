package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"codedesk/internal/logging"
	"codedesk/internal/types"
)

// Watcher observes the workspace root and keeps a small ambient context
// fragment current: the project name and the most recently touched file.
// The orchestration layer folds this fragment into every request so agents
// know what the user is working on without being told.
type Watcher struct {
	root string

	mu         sync.RWMutex
	recentFile string

	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for the given root. Call Start to begin
// observing.
func NewWatcher(root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{root: root, watcher: fsw}, nil
}

// Start watches the root and its immediate subdirectories until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.root); err != nil {
		return err
	}
	// One level deep is enough for "what is the user editing" context;
	// recursive watching is not worth the descriptor cost here.
	entries, err := filepath.Glob(filepath.Join(w.root, "*"))
	if err == nil {
		for _, e := range entries {
			if isWatchableDir(e) {
				if err := w.watcher.Add(e); err != nil {
					logging.WorkspaceDebug("watch add %s failed: %v", e, err)
				}
			}
		}
	}

	go w.loop(ctx)
	logging.Workspace("watching %s", w.root)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			rel, err := filepath.Rel(w.root, event.Name)
			if err != nil || strings.HasPrefix(rel, ".") {
				continue
			}
			w.mu.Lock()
			w.recentFile = rel
			w.mu.Unlock()
			logging.WorkspaceDebug("recent file now %s", rel)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWorkspace).Warn("watcher error: %v", err)
		}
	}
}

// Context returns the ambient workspace fragment.
func (w *Watcher) Context() types.Context {
	w.mu.RLock()
	recent := w.recentFile
	w.mu.RUnlock()

	bag := types.Context{
		"projectInfo": "project " + filepath.Base(w.root),
	}
	if recent != "" {
		bag["currentFile"] = recent
	}
	return bag
}

func isWatchableDir(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || base == "node_modules" || base == "vendor" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
