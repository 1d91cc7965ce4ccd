package adapter

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "covhook.dev/pkg/covhook/internal/model"
)

func TestLocalSourceFSAdapter_ReadSource(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()
	root := t.TempDir()

	t.Run("reads and hashes file", func(t *testing.T) {
		content := "var a = 1;\n"
		path := filepath.Join(root, "a.js")
		writeTestFile(t, path, content)

		file, err := adapter.ReadSource(m.Path(path))
		require.NoError(t, err)

		assert.Equal(t, m.Path(path), file.Path)
		assert.Equal(t, content, string(file.Content))
		assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256([]byte(content))), file.Hash)
	})

	t.Run("missing file is ErrNotFound", func(t *testing.T) {
		_, err := adapter.ReadSource(m.Path(filepath.Join(root, "missing.js")))
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("directory is ErrNotFound", func(t *testing.T) {
		_, err := adapter.ReadSource(m.Path(root))
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLocalSourceFSAdapter_WriteFile(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()
	path := filepath.Join(t.TempDir(), "nested", "out", "coverage.json")

	require.NoError(t, adapter.WriteFile(m.Path(path), []byte("{}"), 0o600))

	got, err := adapter.ReadFile(m.Path(path))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))
}

func TestLocalSourceFSAdapter_Dirs(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()
	root := t.TempDir()

	for _, dir := range []string{"src", "src/views", "node_modules/lib", "bower_components/x", ".git/objects"} {
		mustMkdir(t, filepath.Join(root, dir))
	}

	dirs, err := adapter.Dirs(m.Path(root))
	require.NoError(t, err)

	assert.ElementsMatch(t, []m.Path{
		m.Path(root),
		m.Path(filepath.Join(root, "src")),
		m.Path(filepath.Join(root, "src", "views")),
	}, dirs)
}

func TestLocalSourceFSAdapter_RelPath(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	rel, err := adapter.RelPath("/a/b", "/a/b/c/d.js")
	require.NoError(t, err)
	assert.Equal(t, m.Path("c/d.js"), rel)
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	mustMkdir(t, filepath.Dir(path))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(path, 0o750))
}
