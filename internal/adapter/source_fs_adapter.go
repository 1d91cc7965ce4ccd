// Package adapter contains filesystem and format adapters used by covhook.
package adapter

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	m "covhook.dev/pkg/covhook/internal/model"
)

// ErrNotFound reports that a requested source file does not exist.
var ErrNotFound = errors.New("source not found")

// SourceFSAdapter hides direct `os` access from the domain layer so the
// instrumentation pipeline can be tested against temporary trees.
type SourceFSAdapter interface {
	// ReadSource loads a file and fingerprints it. A missing file yields ErrNotFound.
	ReadSource(path m.Path) (m.File, error)

	// ReadFile loads raw file contents.
	ReadFile(path m.Path) ([]byte, error)

	// WriteFile writes content, creating parent directories as needed.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// Dirs lists root and every directory beneath it, skipping dependency
	// folders and dot-directories.
	Dirs(root m.Path) ([]m.Path, error)

	// RelPath returns the relative path from base to target.
	RelPath(base, target m.Path) (m.Path, error)
}

// LocalSourceFSAdapter implements SourceFSAdapter on the local disk.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// ReadSource reads and hashes the file at path.
func (a *LocalSourceFSAdapter) ReadSource(path m.Path) (m.File, error) {
	info, err := os.Stat(string(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m.File{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return m.File{}, err
	}

	if info.IsDir() {
		return m.File{}, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	content, err := a.ReadFile(path)
	if err != nil {
		return m.File{}, err
	}

	return m.File{
		Path:    path,
		Content: content,
		Hash:    fmt.Sprintf("%x", sha256.Sum256(content)),
	}, nil
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	// #nosec G304 - paths are resolved under the configured source root
	return os.ReadFile(string(path))
}

// WriteFile writes content to path.
func (a *LocalSourceFSAdapter) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(string(path)), 0o750); err != nil {
		return err
	}

	return os.WriteFile(string(path), content, perm)
}

// Dirs walks root collecting directories to watch.
func (a *LocalSourceFSAdapter) Dirs(root m.Path) ([]m.Path, error) {
	rootStr := string(root)

	var dirs []m.Path

	err := filepath.WalkDir(rootStr, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		base := d.Name()
		if path != rootStr && (base == "node_modules" || base == "bower_components" || (len(base) > 1 && base[0] == '.')) {
			return filepath.SkipDir
		}

		dirs = append(dirs, m.Path(path))

		return nil
	})
	if err != nil {
		return nil, err
	}

	return dirs, nil
}

// RelPath returns the relative path from base to target.
func (a *LocalSourceFSAdapter) RelPath(base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}
