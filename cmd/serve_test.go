package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covhook.dev/pkg/covhook/internal/domain"
)

const chromeUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/70.0.3538.77 Safari/537.36"

func newComponentRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		"bower.json":     `{"name":"my-el"}`,
		"src/a.js":       "var a = 1;\n",
		"style.css":      "p{}",
		"test/a-test.js": "suite();\n",
	}

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return root
}

func TestServeHandler(t *testing.T) {
	root := newComponentRoot(t)

	mw, err := newCoverageMiddleware(root)
	require.NoError(t, err)
	assert.Equal(t, "my-el", mw.PackageName())

	collector, err := domain.NewCollector(coverageStore, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = collector.Close() })

	handler := newServeHandler(mw, collector, domain.DefaultCollectPath)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("User-Agent", chromeUA)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		return rec
	}

	t.Run("instrumented script", func(t *testing.T) {
		rec := get("/components/my-el/src/a.js")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/javascript", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "WCT.share.__coverage__")
		assert.Contains(t, rec.Body.String(), "var a = 1;")
	})

	t.Run("excluded test file served as is", func(t *testing.T) {
		rec := get("/components/my-el/test/a-test.js")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "suite();\n", rec.Body.String())
	})

	t.Run("static file", func(t *testing.T) {
		rec := get("/components/my-el/style.css")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "p{}", rec.Body.String())
	})

	t.Run("coverage post", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, domain.DefaultCollectPath, strings.NewReader(reportA))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, uint64(1), collector.Len())
	})
}

func TestRunServe_WritesCoverageOnShutdown(t *testing.T) {
	root := newComponentRoot(t)
	output := t.TempDir()

	setConfig(t, map[string]any{
		serveAddrKey:   "127.0.0.1:0",
		outputFlagName: output,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := &cobra.Command{}
	out := &bytes.Buffer{}
	cmd.SetOut(out)

	require.NoError(t, runServe(ctx, cmd, root))

	content, err := os.ReadFile(filepath.Join(output, coverageFileName))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(content))
	assert.Contains(t, out.String(), "Coverage thresholds met")
}

func TestWatchSources_ClearsOnChange(t *testing.T) {
	root := newComponentRoot(t)

	var changes atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- watchSources(ctx, root, func() { changes.Add(1) })
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(root, "src", "a.js"), []byte("var a = 2;\n"), 0o600)
		return changes.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
