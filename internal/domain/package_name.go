package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"covhook.dev/pkg/covhook/internal/adapter"
	m "covhook.dev/pkg/covhook/internal/model"
)

// ManifestName is the manifest consulted for the package name.
func ManifestName(npm bool) string {
	if npm {
		return "package.json"
	}

	return "bower.json"
}

// ResolvePackageName returns override when set, else the manifest name, else
// the basename of root with a warning.
func ResolvePackageName(manifests adapter.ManifestAdapter, root, override string, npm bool) string {
	if override != "" {
		return override
	}

	manifestName := ManifestName(npm)
	basename := filepath.Base(root)

	manifest, err := manifests.ReadManifest(m.Path(filepath.Join(root, manifestName)))
	switch {
	case err == nil && manifest.Name != "":
		return manifest.Name
	case err != nil && !errors.Is(err, adapter.ErrNotFound):
		slog.Error(fmt.Sprintf("could not parse %s as JSON", filepath.Join(root, manifestName)), "error", err)
	}

	slog.Warn(fmt.Sprintf("no %s found, defaulting to packageName=%s", manifestName, basename))

	return basename
}
