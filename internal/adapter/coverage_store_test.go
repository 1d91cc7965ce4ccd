package adapter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "covhook.dev/pkg/covhook/internal/model"
)

const twoFileCoverage = `{
  "/src/z.js": {
    "path": "/src/z.js",
    "statementMap": {"0": {"start": {"line": 1, "column": 0}, "end": {"line": 1, "column": 10}}},
    "fnMap": {},
    "branchMap": {},
    "s": {"0": 1}, "f": {}, "b": {}
  },
  "/src/a.js": {
    "statementMap": {
      "0": {"start": {"line": 1, "column": 0}, "end": {"line": 1, "column": 10}},
      "1": {"start": {"line": 2, "column": 0}, "end": {"line": 2, "column": 10}}
    },
    "fnMap": {"0": {"name": "f", "decl": {"start": {"line": 1, "column": 0}, "end": {"line": 1, "column": 1}}, "loc": {"start": {"line": 1, "column": 0}, "end": {"line": 3, "column": 1}}, "line": 1}},
    "branchMap": {"0": {"loc": {"start": {"line": 2, "column": 0}, "end": {"line": 2, "column": 5}}, "type": "if", "locations": [], "line": 2}},
    "s": {"0": 1, "1": 0}, "f": {"0": 1}, "b": {"0": [1, 0]}
  }
}`

func TestCoverageStore_Parse(t *testing.T) {
	store := NewCoverageStore(NewLocalSourceFSAdapter())

	t.Run("keeps document order", func(t *testing.T) {
		coverage, err := store.Parse([]byte(twoFileCoverage))
		require.NoError(t, err)

		assert.Equal(t, []string{"/src/z.js", "/src/a.js"}, coverage.Files())

		fc, ok := coverage.FileCoverageFor("/src/a.js")
		require.True(t, ok)
		assert.Equal(t, "/src/a.js", fc.Path, "path falls back to the map key")
		assert.Equal(t, []int{1, 0}, fc.B["0"])
	})

	t.Run("single file object", func(t *testing.T) {
		coverage, err := store.Parse([]byte(`{"path":"/x.js","statementMap":{},"fnMap":{},"branchMap":{},"s":{},"f":{},"b":{}}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"/x.js"}, coverage.Files())
	})

	t.Run("wrapped data records", func(t *testing.T) {
		coverage, err := store.Parse([]byte(`{"/w.js":{"data":{"path":"/w.js","statementMap":{},"s":{}}}}`))
		require.NoError(t, err)

		fc, ok := coverage.FileCoverageFor("/w.js")
		require.True(t, ok)
		assert.NotNil(t, fc.B)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := store.Parse([]byte(`{"/a.js":`))
		require.Error(t, err)
	})

	t.Run("non-object entry", func(t *testing.T) {
		_, err := store.Parse([]byte(`{"/a.js": 3}`))
		require.Error(t, err)
	})
}

func TestCoverageStore_SaveLoad(t *testing.T) {
	store := NewCoverageStore(NewLocalSourceFSAdapter())

	coverage, err := store.Parse([]byte(twoFileCoverage))
	require.NoError(t, err)

	path := m.Path(filepath.Join(t.TempDir(), "out", "coverage-final.json"))
	require.NoError(t, store.Save(path, coverage))

	loaded, err := store.Load(path)
	require.NoError(t, err)

	assert.Equal(t, coverage.Files(), loaded.Files())
	assert.Equal(t, coverage.Summary(), loaded.Summary())

	_, err = store.Load(m.Path(filepath.Join(t.TempDir(), "missing.json")))
	require.Error(t, err)
}
