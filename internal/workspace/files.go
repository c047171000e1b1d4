// Package workspace provides the project-root-confined file capability and a
// change watcher that keeps lightweight project context current.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"codedesk/internal/logging"
	"codedesk/internal/types"
)

// Files implements types.FileStore over one project root. Every path is
// resolved relative to the root and rejected when it escapes it.
type Files struct {
	root string
}

// NewFiles validates the root directory and returns the store.
func NewFiles(root string) (*Files, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat workspace root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", abs)
	}
	return &Files{root: abs}, nil
}

// Root returns the absolute workspace root.
func (f *Files) Root() string { return f.root }

// resolve confines relativePath to the root. Paths carrying ".." elements
// are rejected outright rather than normalized.
func (f *Files) resolve(relativePath string) (string, error) {
	for _, part := range strings.Split(filepath.ToSlash(relativePath), "/") {
		if part == ".." {
			return "", types.NewError(types.ErrCodeInvalidPath, "", "path %q escapes workspace root", relativePath)
		}
	}
	cleaned := filepath.Clean("/" + relativePath)
	full := filepath.Join(f.root, cleaned)
	if full != f.root && !strings.HasPrefix(full, f.root+string(filepath.Separator)) {
		return "", types.NewError(types.ErrCodeInvalidPath, "", "path %q escapes workspace root", relativePath)
	}
	return full, nil
}

// Read returns the file's contents.
func (f *Files) Read(relativePath string) (string, error) {
	full, err := f.resolve(relativePath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", types.NewError(types.ErrCodeNotFound, "", "file %q not found", relativePath)
		}
		return "", types.WrapError(types.ErrCodeInternal, "", err, "read %q", relativePath)
	}
	logging.WorkspaceDebug("read %s (%d bytes)", relativePath, len(data))
	return string(data), nil
}

// Write creates or replaces the file, making parent directories as needed.
func (f *Files) Write(relativePath, content string) error {
	full, err := f.resolve(relativePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return types.WrapError(types.ErrCodeInternal, "", err, "create parent dirs for %q", relativePath)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return types.WrapError(types.ErrCodeInternal, "", err, "write %q", relativePath)
	}
	logging.Workspace("wrote %s (%d bytes)", relativePath, len(content))
	return nil
}

// List returns the directory's entries sorted by name, directories suffixed
// with a slash.
func (f *Files) List(relativePath string) ([]string, error) {
	full, err := f.resolve(relativePath)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewError(types.ErrCodeNotFound, "", "directory %q not found", relativePath)
		}
		return nil, types.WrapError(types.ErrCodeInternal, "", err, "list %q", relativePath)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
