package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/tidwall/gjson"

	m "covhook.dev/pkg/covhook/internal/model"
)

// ManifestAdapter reads package manifests (package.json, bower.json).
type ManifestAdapter interface {
	// ReadManifest returns the manifest fields at path. A missing file yields
	// ErrNotFound; malformed JSON is an error.
	ReadManifest(path m.Path) (m.Manifest, error)
}

// LocalManifestAdapter reads manifests from disk.
type LocalManifestAdapter struct{}

// NewLocalManifestAdapter constructs a LocalManifestAdapter.
func NewLocalManifestAdapter() *LocalManifestAdapter {
	return &LocalManifestAdapter{}
}

// ReadManifest implements ManifestAdapter.
func (a *LocalManifestAdapter) ReadManifest(path m.Path) (m.Manifest, error) {
	// #nosec G304 - manifest paths are derived from the configured root
	content, err := os.ReadFile(string(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m.Manifest{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return m.Manifest{}, err
	}

	return ParseManifest(content)
}

// ParseManifest extracts manifest fields from JSON content.
func ParseManifest(content []byte) (m.Manifest, error) {
	if !gjson.ValidBytes(content) {
		return m.Manifest{}, fmt.Errorf("invalid manifest JSON")
	}

	fields := gjson.GetManyBytes(content, "name", "module", "main")

	return m.Manifest{
		Name:   fields[0].String(),
		Module: fields[1].String(),
		Main:   fields[2].String(),
	}, nil
}
