// Package engine instruments JavaScript source with istanbul-compatible
// statement, function and branch counters.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dop251/goja/parser"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"covhook.dev/pkg/covhook/internal/domain"
	"covhook.dev/pkg/covhook/internal/jsmodule"
	m "covhook.dev/pkg/covhook/internal/model"
)

// Option configures the engine.
type Option func(*engine)

// WithCoverageStore makes instrumented code register its counters in the
// store named by expr instead of the global coverage variable.
func WithCoverageStore(expr string) Option {
	return func(e *engine) {
		e.store = expr
	}
}

type engine struct {
	store string
}

// NewEngine returns a goja-backed instrumentation engine.
func NewEngine(opts ...Option) domain.Engine {
	e := &engine{}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *engine) Instrument(ctx context.Context, code, filename string, sourceMap m.SourceMap) (out string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("instrumentation panicked", "path", filename, "panic", r)
			out, err = "", fmt.Errorf("failed to instrument %s: %v", filename, r)
		}
	}()

	analysis := jsmodule.Analyze(code)

	program, err := parser.ParseFile(nil, filename, analysis.Masked, 0, parser.WithDisableSourceMaps)
	if err != nil {
		slog.Debug("failed to parse source", "path", filename, "error", err)
		return "", fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	sum := sha256.Sum256([]byte(code))
	hash := hex.EncodeToString(sum[:])

	w := newWalker(analysis, counterVar(filename), filename)
	w.program(program)

	w.coverage.Hash = hash

	data, err := json.Marshal(w.coverage)
	if err != nil {
		return "", fmt.Errorf("failed to encode coverage for %s: %w", filename, err)
	}

	if len(sourceMap) > 0 && gjson.ValidBytes(sourceMap) {
		compact := gjson.ParseBytes(sourceMap).Get("@ugly").Raw

		data, err = sjson.SetRawBytes(data, "inputSourceMap", []byte(compact))
		if err != nil {
			return "", fmt.Errorf("failed to attach source map for %s: %w", filename, err)
		}
	}

	w.open(w.preambleOffset, -1, e.preamble(w.cov, filename, hash, data))

	return w.apply(code), nil
}

func (e *engine) preamble(cov, filename, hash string, data []byte) string {
	init := domain.EngineCoverageInit
	if e.store != "" {
		init = "coverage = " + e.store + ";"
	}

	return fmt.Sprintf(
		`var %s = (function () { var path = %s, hash = %s, global = (new Function("return this"))(), gcv = %s, coverageData = %s; var %s if (!coverage[path] || coverage[path].hash !== hash) { coverage[path] = coverageData; } return coverage[path]; })();`,
		cov, quote(filename), quote(hash), quote(domain.CoverageKey), data, init,
	)
}

func counterVar(filename string) string {
	sum := sha256.Sum256([]byte(filename))
	return "__cov_" + hex.EncodeToString(sum[:])[:12]
}

// quote renders s as a JSON string, which is also a valid JS literal.
func quote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}

	return string(b)
}
