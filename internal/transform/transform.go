// Package transform downgrades served scripts for the requesting browser:
// bare import specifiers are resolved to relative paths and syntax is
// lowered with esbuild.
package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"covhook.dev/pkg/covhook/internal/adapter"
	"covhook.dev/pkg/covhook/internal/domain"
	"covhook.dev/pkg/covhook/internal/jsmodule"
	m "covhook.dev/pkg/covhook/internal/model"
)

var esbuildTargets = map[m.CompileTarget]api.Target{
	m.TargetNone:   api.ESNext,
	m.TargetES2018: api.ES2018,
	m.TargetES2017: api.ES2017,
	m.TargetES2016: api.ES2016,
	m.TargetES2015: api.ES2015,
	m.TargetES5:    api.ES5,
}

type transformer struct {
	manifests adapter.ManifestAdapter
}

// NewTransformer creates a Transformer reading dependency manifests through
// manifests.
func NewTransformer(manifests adapter.ManifestAdapter) domain.Transformer {
	return &transformer{manifests: manifests}
}

func (t *transformer) Transform(ctx context.Context, code string, opts m.TransformOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if opts.ModuleResolution == m.ResolutionNode {
		code = t.resolveSpecifiers(code, opts)
	}

	modules := opts.TransformModules && jsmodule.Analyze(code).HasModuleSyntax
	if opts.CompileTarget == m.TargetNone && !modules {
		return code, nil
	}

	target, ok := esbuildTargets[opts.CompileTarget]
	if !ok {
		return "", fmt.Errorf("unknown compile target %q", opts.CompileTarget)
	}

	format := api.FormatDefault
	if modules {
		format = api.FormatCommonJS
	}

	result := api.Transform(code, api.TransformOptions{
		Loader:     api.LoaderJS,
		Target:     target,
		Format:     format,
		Sourcefile: opts.FilePath,
		LogLevel:   api.LogLevelSilent,
	})

	for _, warning := range result.Warnings {
		slog.Debug("transform warning", "path", opts.FilePath, "message", warning.Text)
	}

	if len(result.Errors) > 0 {
		errs := make([]error, len(result.Errors))
		for i, msg := range result.Errors {
			errs[i] = errors.New(msg.Text)
		}

		return "", fmt.Errorf("failed to transform %s to %s: %w", opts.FilePath, targetName(opts.CompileTarget), errors.Join(errs...))
	}

	return string(result.Code), nil
}

func targetName(target m.CompileTarget) string {
	if target == m.TargetNone {
		return "esnext"
	}

	return string(target)
}

func (t *transformer) resolveSpecifiers(code string, opts m.TransformOptions) string {
	analysis := jsmodule.Analyze(code)

	return jsmodule.Rewrite(code, analysis.Specifiers, func(spec jsmodule.Specifier) (string, bool) {
		if !isBare(spec.Value) {
			return "", false
		}

		return t.resolve(spec.Value, opts), true
	})
}

// isBare reports a specifier that is neither relative, absolute nor a URL.
func isBare(spec string) bool {
	switch {
	case spec == "", strings.HasPrefix(spec, "/"), strings.HasPrefix(spec, "./"), strings.HasPrefix(spec, "../"):
		return false
	case strings.Contains(spec, "://"), strings.HasPrefix(spec, "data:"):
		return false
	}

	return true
}

// splitBare separates a package name, including any scope, from the path
// inside the package.
func splitBare(spec string) (string, string) {
	parts := strings.SplitN(spec, "/", 3)

	if strings.HasPrefix(spec, "@") && len(parts) >= 2 {
		pkg := parts[0] + "/" + parts[1]
		if len(parts) == 3 {
			return pkg, parts[2]
		}

		return pkg, ""
	}

	if len(parts) == 1 {
		return parts[0], ""
	}

	return parts[0], strings.Join(parts[1:], "/")
}

// resolve maps a bare specifier to a path relative to the importing file.
func (t *transformer) resolve(spec string, opts m.TransformOptions) string {
	pkg, sub := splitBare(spec)

	if sub == "" {
		sub = t.entry(filepath.Join(opts.ComponentDir, filepath.FromSlash(pkg)))
	} else if path.Ext(sub) == "" {
		sub += ".js"
	}

	var rel string

	if opts.IsComponentRequest {
		// Component requests are served with dependencies as URL siblings of
		// the package itself.
		fileDir, err := filepath.Rel(opts.RootDir, filepath.Dir(opts.FilePath))
		if err != nil {
			fileDir = "."
		}

		from := path.Join("/", opts.PackageName, filepath.ToSlash(fileDir))
		rel = relSlash(from, path.Join("/", pkg, sub))
	} else {
		target := filepath.Join(opts.ComponentDir, filepath.FromSlash(pkg), filepath.FromSlash(sub))
		rel = relSlash(filepath.ToSlash(filepath.Dir(opts.FilePath)), filepath.ToSlash(target))
	}

	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}

	return rel
}

// entry reads the module entry point of the package installed at dir.
func (t *transformer) entry(dir string) string {
	manifest, err := t.manifests.ReadManifest(m.Path(filepath.Join(dir, "package.json")))
	if err != nil {
		if !errors.Is(err, adapter.ErrNotFound) {
			slog.Warn("failed to read dependency manifest", "dir", dir, "error", err)
		}

		return "index.js"
	}

	switch {
	case manifest.Module != "":
		return strings.TrimPrefix(manifest.Module, "./")
	case manifest.Main != "":
		return strings.TrimPrefix(manifest.Main, "./")
	}

	return "index.js"
}

func relSlash(from, to string) string {
	rel, err := filepath.Rel(filepath.FromSlash(from), filepath.FromSlash(to))
	if err != nil {
		return to
	}

	return filepath.ToSlash(rel)
}
