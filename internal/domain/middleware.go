package domain

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"covhook.dev/pkg/covhook/internal/adapter"
	m "covhook.dev/pkg/covhook/internal/model"
)

// Trace actions.
const (
	ActionInstrument      = "instrument"
	ActionSkipWhitelisted = "skip whitelisted"
	ActionSkip            = "skip"
)

const traceComponent = "coverage"

// MiddlewareOptions is the configuration surface of the coverage middleware.
type MiddlewareOptions struct {
	Root        string
	PackageName string
	NPM         bool
	Include     []string
	// Exclude nil means DefaultExclude.
	Exclude        []string
	IgnoreBasePath bool
	// ComponentURL is the mount component requests arrive under, e.g. "/components/".
	ComponentURL             string
	ModuleResolution         m.ModuleResolution
	ComponentRequestOverride *bool
	// BabelPlugins are extra parser plugin names merged with the defaults.
	BabelPlugins []string
	Compile      m.CompileMode
}

// MiddlewareDeps are the collaborators the middleware drives.
type MiddlewareDeps struct {
	FS          adapter.SourceFSAdapter
	Manifests   adapter.ManifestAdapter
	Engine      Engine
	Transformer Transformer
	Cache       Cache
	Emitter     Emitter
}

// Middleware serves instrumented scripts and pages for matching requests.
type Middleware struct {
	packageName  string
	root         string
	matcher      Matcher
	instrumenter Instrumenter
	transformer  Transformer
	emitter      Emitter
	transform    TransformConfig
	mountPrefix  *regexp.Regexp
	plugins      []string
}

// DefaultParserPlugins are always enabled when parsing sources.
var DefaultParserPlugins = []string{
	"importMeta", "asyncGenerators", "dynamicImport", "objectRestSpread",
	"optionalCatchBinding", "flow", "jsx",
}

// NewMiddleware resolves the package name and builds the rule set once.
// Malformed glob patterns are reported here.
func NewMiddleware(opts MiddlewareOptions, deps MiddlewareDeps) (*Middleware, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("middleware root is required")
	}

	if opts.Compile == "" {
		opts.Compile = m.CompileAuto
	}

	if deps.FS == nil {
		deps.FS = adapter.NewLocalSourceFSAdapter()
	}

	if deps.Manifests == nil {
		deps.Manifests = adapter.NewLocalManifestAdapter()
	}

	if deps.Cache == nil {
		deps.Cache = NewCache()
	}

	if deps.Emitter == nil {
		deps.Emitter = NewSlogEmitter(nil)
	}

	packageName := ResolvePackageName(deps.Manifests, opts.Root, opts.PackageName, opts.NPM)
	basePath := path.Join("/", opts.ComponentURL, packageName)

	matcher, err := NewMatcher(RuleSet{
		Include:  opts.Include,
		Exclude:  opts.Exclude,
		Relative: opts.IgnoreBasePath,
	}, basePath, opts.NPM)
	if err != nil {
		slog.Error("invalid coverage rules", "error", err)
		return nil, fmt.Errorf("failed to build coverage rules: %w", err)
	}

	return &Middleware{
		packageName:  packageName,
		root:         opts.Root,
		matcher:      matcher,
		instrumenter: NewInstrumenter(deps.FS, deps.Engine, deps.Cache),
		transformer:  deps.Transformer,
		emitter:      deps.Emitter,
		transform: TransformConfig{
			Root:                     opts.Root,
			NPM:                      opts.NPM,
			Compile:                  opts.Compile,
			ComponentURL:             opts.ComponentURL,
			ModuleResolution:         opts.ModuleResolution,
			ComponentRequestOverride: opts.ComponentRequestOverride,
		},
		mountPrefix: regexp.MustCompile(`^/[^/]+/` + regexp.QuoteMeta(packageName)),
		plugins:     mergePlugins(opts.BabelPlugins),
	}, nil
}

func mergePlugins(extra []string) []string {
	seen := map[string]bool{}

	var out []string

	for _, p := range append(append([]string{}, DefaultParserPlugins...), extra...) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	return out
}

// PackageName is the resolved package identity.
func (mw *Middleware) PackageName() string {
	return mw.packageName
}

// Matcher exposes the effective rules.
func (mw *Middleware) Matcher() Matcher {
	return mw.matcher
}

// ParserPlugins lists the merged parser plugin names.
func (mw *Middleware) ParserPlugins() []string {
	return append([]string{}, mw.plugins...)
}

// ClearCache drops all memoized output; call it between runs.
func (mw *Middleware) ClearCache() {
	mw.instrumenter.Clear()
}

// AbsolutePath maps a request URL path onto the source root by replacing the
// /<mount>/<packageName> prefix with root.
func (mw *Middleware) AbsolutePath(urlPath string) string {
	clean := path.Clean("/" + urlPath)

	if loc := mw.mountPrefix.FindStringIndex(clean); loc != nil {
		return filepath.Join(mw.root, filepath.FromSlash(clean[loc[1]:]))
	}

	return filepath.Join(mw.root, filepath.FromSlash(clean))
}

type assetKind int

const (
	assetOther assetKind = iota
	assetScript
	assetHTML
)

func classify(p string) assetKind {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".js", ".mjs", ".es":
		return assetScript
	case ".htm", ".html":
		return assetHTML
	}

	return assetOther
}

// Handler wraps next, serving instrumented output for matching requests and
// passing everything else through.
func (mw *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req := m.NewRequest(r)
		requestID := uuid.NewString()

		if !mw.matcher.Matches(req.Path) {
			mw.trace(ctx, ActionSkip, req.Path, requestID)
			next.ServeHTTP(w, r)

			return
		}

		absolute := mw.AbsolutePath(req.Path)

		switch classify(absolute) {
		case assetScript:
			mw.trace(ctx, ActionInstrument, req.Path, requestID)
			body := mw.serveScript(ctx, req, absolute)
			w.Header().Set("Content-Type", "application/javascript")
			writeBody(w, body)
		case assetHTML:
			mw.trace(ctx, ActionInstrument, req.Path, requestID)
			body := RewriteNamespace(mw.instrumenter.InstrumentFile(ctx, req.Path, m.Path(absolute), true))
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			writeBody(w, body)
		default:
			mw.trace(ctx, ActionSkipWhitelisted, req.Path, requestID)
			next.ServeHTTP(w, r)
		}
	})
}

func (mw *Middleware) serveScript(ctx context.Context, req m.Request, absolute string) string {
	code := mw.instrumenter.InstrumentFile(ctx, req.Path, m.Path(absolute), false)
	if code == "" {
		return ""
	}

	code = RewriteNamespace(code)

	if mw.transformer == nil {
		return code
	}

	caps := DetectCapabilities(req.UserAgent)
	opts := mw.transform.Options(req, caps, mw.packageName, absolute)

	out, err := mw.transformer.Transform(ctx, code, opts)
	if err != nil {
		slog.Warn("compatibility transform failed, serving untransformed output", "path", absolute, "error", err)
		return code
	}

	return out
}

func writeBody(w http.ResponseWriter, body string) {
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}

func (mw *Middleware) trace(ctx context.Context, action, url, requestID string) {
	mw.emitter.Emit(ctx, Event{
		Level:     slog.LevelDebug,
		Component: traceComponent,
		Action:    action,
		Detail:    url,
		RequestID: requestID,
	})
}
