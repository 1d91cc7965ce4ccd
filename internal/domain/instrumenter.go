package domain

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/tidwall/gjson"

	"covhook.dev/pkg/covhook/internal/adapter"
	m "covhook.dev/pkg/covhook/internal/model"
)

// Engine turns source text into instrumented source text whose counters
// register under CoverageKey.
type Engine interface {
	Instrument(ctx context.Context, code, filename string, sourceMap m.SourceMap) (string, error)
}

// Instrumenter produces memoized instrumented output for files on disk.
type Instrumenter interface {
	// InstrumentFile returns the instrumented text of filePath, memoized under
	// key. A missing file yields "" and nothing is cached.
	InstrumentFile(ctx context.Context, key string, filePath m.Path, isHTML bool) string
	// Clear drops every memoized entry.
	Clear()
}

type instrumenter struct {
	fs     adapter.SourceFSAdapter
	engine Engine
	cache  Cache
}

// NewInstrumenter creates an Instrumenter over fs, engine and cache.
func NewInstrumenter(fs adapter.SourceFSAdapter, engine Engine, cache Cache) Instrumenter {
	return &instrumenter{fs: fs, engine: engine, cache: cache}
}

func (in *instrumenter) InstrumentFile(ctx context.Context, key string, filePath m.Path, isHTML bool) string {
	if cached, ok := in.cache.Get(key); ok {
		return cached
	}

	file, err := in.fs.ReadSource(filePath)
	if err != nil {
		if !errors.Is(err, adapter.ErrNotFound) {
			slog.Error("failed to read source", "path", filePath, "error", err)
		}

		return ""
	}

	code := string(file.Content)

	var out string
	if isHTML {
		out = InstrumentHTML(code, func(script string, index int) string {
			return in.instrumentScript(ctx, script, scriptName(filePath, index), nil)
		})
	} else {
		out = in.instrumentScript(ctx, code, string(filePath), in.sourceMap(code, filePath))
	}

	in.cache.Put(key, out)

	return out
}

func (in *instrumenter) Clear() {
	in.cache.Clear()
}

func (in *instrumenter) instrumentScript(ctx context.Context, code, filename string, sourceMap m.SourceMap) string {
	out, err := in.engine.Instrument(ctx, code, filename, sourceMap)
	if err != nil {
		slog.Warn("instrumentation failed, serving original source", "path", filename, "error", err)
		return code
	}

	return out
}

var sourceMappingURL = regexp.MustCompile(`//# sourceMappingURL=(\S+\.js\.map)\s*$`)

// sourceMap loads the map named by a trailing sourceMappingURL comment. Any
// failure yields nil.
func (in *instrumenter) sourceMap(code string, filePath m.Path) m.SourceMap {
	match := sourceMappingURL.FindStringSubmatch(code)
	if match == nil {
		return nil
	}

	mapPath := m.Path(filepath.Join(filepath.Dir(string(filePath)), filepath.FromSlash(match[1])))

	raw, err := in.fs.ReadFile(mapPath)
	if err != nil || !gjson.ValidBytes(raw) {
		slog.Debug("ignoring source map", "path", mapPath, "error", err)
		return nil
	}

	return m.SourceMap(raw)
}

func scriptName(filePath m.Path, index int) string {
	if index == 0 {
		return string(filePath)
	}

	return string(filePath) + "#script-" + strconv.Itoa(index)
}
