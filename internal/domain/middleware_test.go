package domain_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"covhook.dev/pkg/covhook/internal/adapter"
	"covhook.dev/pkg/covhook/internal/domain"
	domainmocks "covhook.dev/pkg/covhook/internal/domain/mocks"
	m "covhook.dev/pkg/covhook/internal/model"
)

const chrome70 = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/70.0.3538.77 Safari/537.36"

type fixture struct {
	root        string
	engine      *domainmocks.MockEngine
	transformer *domainmocks.MockTransformer
	emitter     *domainmocks.MockEmitter
	mw          *domain.Middleware
	handler     http.Handler
}

func newFixture(t *testing.T, opts domain.MiddlewareOptions) *fixture {
	t.Helper()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bower.json"), `{"name":"my-el"}`)
	writeFile(t, filepath.Join(root, "src", "a.js"), "a();")
	writeFile(t, filepath.Join(root, "index.html"), "<p>hi</p><script>b();</script>")
	writeFile(t, filepath.Join(root, "test", "a-test.js"), "t();")
	writeFile(t, filepath.Join(root, "style.css"), "p{}")

	f := &fixture{
		root:        root,
		engine:      domainmocks.NewMockEngine(t),
		transformer: domainmocks.NewMockTransformer(t),
		emitter:     domainmocks.NewMockEmitter(t),
	}

	f.engine.EXPECT().Instrument(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, code string, _ string, _ m.SourceMap) (string, error) {
			return "var " + domain.EngineCoverageInit + " " + code, nil
		}).Maybe()
	f.transformer.EXPECT().Transform(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, code string, _ m.TransformOptions) (string, error) {
			return "T:" + code, nil
		}).Maybe()
	f.emitter.EXPECT().Emit(mock.Anything, mock.Anything).Return().Maybe()

	opts.Root = root
	if opts.ComponentURL == "" {
		opts.ComponentURL = "/components/"
	}

	mw, err := domain.NewMiddleware(opts, domain.MiddlewareDeps{
		FS:          adapter.NewLocalSourceFSAdapter(),
		Manifests:   adapter.NewLocalManifestAdapter(),
		Engine:      f.engine,
		Transformer: f.transformer,
		Cache:       domain.NewCache(),
		Emitter:     f.emitter,
	})
	require.NoError(t, err)

	f.mw = mw
	f.handler = mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "next")
	}))

	return f
}

func (f *fixture) get(t *testing.T, url string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("User-Agent", chrome70)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	return rec
}

func TestMiddleware_Script(t *testing.T) {
	f := newFixture(t, domain.MiddlewareOptions{})

	rec := f.get(t, "/components/my-el/src/a.js?v=1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/javascript", rec.Header().Get("Content-Type"))
	assert.Equal(t, "T:var "+domain.SharedCoverageInit+" a();", rec.Body.String())

	f.transformer.AssertCalled(t, "Transform", mock.Anything, mock.Anything, m.TransformOptions{
		CompileTarget:      m.TargetES2018,
		TransformModules:   false,
		ModuleResolution:   m.ResolutionNone,
		FilePath:           filepath.Join(f.root, "src", "a.js"),
		IsComponentRequest: true,
		PackageName:        "my-el",
		ComponentDir:       filepath.Join(f.root, "bower_components"),
		RootDir:            f.root,
	})
}

func TestMiddleware_CachesInstrumentation(t *testing.T) {
	f := newFixture(t, domain.MiddlewareOptions{})

	first := f.get(t, "/components/my-el/src/a.js").Body.String()
	second := f.get(t, "/components/my-el/src/a.js").Body.String()

	assert.Equal(t, first, second)
	f.engine.AssertNumberOfCalls(t, "Instrument", 1)
	f.transformer.AssertNumberOfCalls(t, "Transform", 2)

	f.mw.ClearCache()
	f.get(t, "/components/my-el/src/a.js")
	f.engine.AssertNumberOfCalls(t, "Instrument", 2)
}

func TestMiddleware_HTML(t *testing.T) {
	f := newFixture(t, domain.MiddlewareOptions{})

	rec := f.get(t, "/components/my-el/index.html")

	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<p>hi</p><script>var "+domain.SharedCoverageInit+" b();</script>", rec.Body.String())
	f.transformer.AssertNotCalled(t, "Transform", mock.Anything, mock.Anything, mock.Anything)
}

func TestMiddleware_PassThrough(t *testing.T) {
	f := newFixture(t, domain.MiddlewareOptions{})

	for _, url := range []string{"/components/my-el/test/a-test.js", "/components/my-el/style.css"} {
		rec := f.get(t, url)
		assert.Equal(t, "next", rec.Body.String(), url)
	}

	f.engine.AssertNotCalled(t, "Instrument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMiddleware_MissingFileIsEmpty(t *testing.T) {
	f := newFixture(t, domain.MiddlewareOptions{})

	rec := f.get(t, "/components/my-el/src/missing.js")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	f.transformer.AssertNotCalled(t, "Transform", mock.Anything, mock.Anything, mock.Anything)
}

func TestMiddleware_TraceEvents(t *testing.T) {
	f := newFixture(t, domain.MiddlewareOptions{})

	f.get(t, "/components/my-el/src/a.js")
	f.get(t, "/components/my-el/style.css")
	f.get(t, "/components/my-el/test/a-test.js")

	var actions []string

	for _, call := range f.emitter.Calls {
		event := call.Arguments.Get(1).(domain.Event)

		assert.Equal(t, slog.LevelDebug, event.Level)
		assert.Equal(t, "coverage", event.Component)
		assert.NotEmpty(t, event.RequestID)

		actions = append(actions, event.Action+" "+event.Detail)
	}

	assert.Equal(t, []string{
		"instrument /components/my-el/src/a.js",
		"skip whitelisted /components/my-el/style.css",
		"skip /components/my-el/test/a-test.js",
	}, actions)
}

func TestMiddleware_Options(t *testing.T) {
	t.Run("component override and capabilities", func(t *testing.T) {
		override := false
		f := newFixture(t, domain.MiddlewareOptions{
			ComponentRequestOverride: &override,
			ModuleResolution:         m.ResolutionNode,
			Compile:                  m.CompileAlways,
		})

		req := httptest.NewRequest(http.MethodGet, "/components/my-el/src/a.js", nil)
		f.handler.ServeHTTP(httptest.NewRecorder(), req)

		f.transformer.AssertCalled(t, "Transform", mock.Anything, mock.Anything, mock.MatchedBy(func(opts m.TransformOptions) bool {
			return !opts.IsComponentRequest && opts.TransformModules &&
				opts.CompileTarget == m.TargetES5 && opts.ModuleResolution == m.ResolutionNode
		}))
	})

	t.Run("package name override", func(t *testing.T) {
		f := newFixture(t, domain.MiddlewareOptions{PackageName: "renamed", Include: []string{"src/**"}})

		assert.Equal(t, "renamed", f.mw.PackageName())
		assert.Equal(t, "next", f.get(t, "/components/my-el/src/a.js").Body.String())
		assert.Contains(t, f.get(t, "/components/renamed/src/a.js").Body.String(), "a();")
	})

	t.Run("empty include matches every path", func(t *testing.T) {
		f := newFixture(t, domain.MiddlewareOptions{PackageName: "renamed"})

		rec := f.get(t, "/components/my-el/src/a.js")
		assert.NotEqual(t, "next", rec.Body.String())
		assert.Empty(t, rec.Body.String())
	})

	t.Run("include rules", func(t *testing.T) {
		f := newFixture(t, domain.MiddlewareOptions{Include: []string{"src/**"}})

		assert.Equal(t, "next", f.get(t, "/components/my-el/index.html").Body.String())
		assert.True(t, strings.HasPrefix(f.get(t, "/components/my-el/src/a.js").Body.String(), "T:"))
	})

	t.Run("parser plugins merged without duplicates", func(t *testing.T) {
		f := newFixture(t, domain.MiddlewareOptions{BabelPlugins: []string{"jsx", "decorators"}})

		plugins := f.mw.ParserPlugins()
		assert.Equal(t, append(append([]string{}, domain.DefaultParserPlugins...), "decorators"), plugins)
	})
}

func TestMiddleware_InvalidPattern(t *testing.T) {
	_, err := domain.NewMiddleware(domain.MiddlewareOptions{
		Root:    t.TempDir(),
		Include: []string{"src/[x"},
	}, domain.MiddlewareDeps{
		FS:        adapter.NewLocalSourceFSAdapter(),
		Manifests: adapter.NewLocalManifestAdapter(),
	})

	require.Error(t, err)
}

func TestMiddleware_DefaultsLocalAdapters(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bower.json"), `{"name":"from-manifest"}`)

	var mw *domain.Middleware
	require.NotPanics(t, func() {
		var err error
		mw, err = domain.NewMiddleware(domain.MiddlewareOptions{Root: root, ComponentURL: "/components/"}, domain.MiddlewareDeps{})
		require.NoError(t, err)
	})

	assert.Equal(t, "from-manifest", mw.PackageName())
}

func TestMiddleware_AbsolutePath(t *testing.T) {
	f := newFixture(t, domain.MiddlewareOptions{})

	assert.Equal(t, filepath.Join(f.root, "src", "a.js"), f.mw.AbsolutePath("/components/my-el/src/a.js"))
	assert.Equal(t, filepath.Join(f.root, "src", "a.js"), f.mw.AbsolutePath("/anything/my-el/src/a.js"))
	assert.Equal(t, filepath.Join(f.root, "etc", "passwd"), f.mw.AbsolutePath("/components/my-el/../../../etc/passwd"))
}
