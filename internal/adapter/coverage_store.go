package adapter

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"

	m "covhook.dev/pkg/covhook/internal/model"
)

// CoverageStore loads and saves istanbul coverage JSON.
type CoverageStore interface {
	Load(path m.Path) (*m.CoverageMap, error)
	Parse(data []byte) (*m.CoverageMap, error)
	Save(path m.Path, coverage *m.CoverageMap) error
}

type coverageStore struct {
	fs SourceFSAdapter
}

// NewCoverageStore creates a CoverageStore backed by fs.
func NewCoverageStore(fs SourceFSAdapter) CoverageStore {
	return &coverageStore{fs: fs}
}

// Load reads a coverage file from disk.
func (s *coverageStore) Load(path m.Path) (*m.CoverageMap, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		slog.Error("failed to read coverage", "path", path, "error", err)
		return nil, fmt.Errorf("failed to read coverage %s: %w", path, err)
	}

	coverage, err := s.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return coverage, nil
}

// Parse accepts either a whole coverage map keyed by file or a single file
// coverage object, keeping the file order of the document.
func (s *coverageStore) Parse(data []byte) (*m.CoverageMap, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid coverage JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("coverage JSON must be an object")
	}

	coverage := m.NewCoverageMap()

	if isFileCoverage(root) {
		fc, err := decodeFileCoverage("", root)
		if err != nil {
			return nil, err
		}

		coverage.AddFileCoverage(fc)

		return coverage, nil
	}

	var decodeErr error

	root.ForEach(func(key, value gjson.Result) bool {
		fc, err := decodeFileCoverage(key.String(), value)
		if err != nil {
			decodeErr = err
			return false
		}

		coverage.AddFileCoverage(fc)

		return true
	})

	if decodeErr != nil {
		return nil, decodeErr
	}

	return coverage, nil
}

// Save writes coverage as ordered JSON.
func (s *coverageStore) Save(path m.Path, coverage *m.CoverageMap) error {
	data, err := json.Marshal(coverage)
	if err != nil {
		return fmt.Errorf("failed to encode coverage: %w", err)
	}

	if err := s.fs.WriteFile(path, data, 0o600); err != nil {
		slog.Error("failed to write coverage", "path", path, "error", err)
		return fmt.Errorf("failed to write coverage %s: %w", path, err)
	}

	slog.Debug("saved coverage", "path", path, "files", coverage.Len())

	return nil
}

func isFileCoverage(value gjson.Result) bool {
	return value.Get("path").Type == gjson.String && value.Get("statementMap").IsObject()
}

func decodeFileCoverage(key string, value gjson.Result) (*m.FileCoverage, error) {
	// Newer istanbul writers wrap the record in {"data": {...}}.
	if data := value.Get("data"); data.IsObject() && !value.Get("statementMap").Exists() {
		value = data
	}

	if !value.IsObject() {
		return nil, fmt.Errorf("coverage for %q is not an object", key)
	}

	fc := m.NewFileCoverage(key)
	if err := json.Unmarshal([]byte(value.Raw), fc); err != nil {
		return nil, fmt.Errorf("failed to decode coverage for %q: %w", key, err)
	}

	if fc.Path == "" {
		fc.Path = key
	}

	// Explicit nulls in the document clear the maps Unmarshal was given.
	empty := m.NewFileCoverage(fc.Path)
	if fc.StatementMap == nil {
		fc.StatementMap = empty.StatementMap
	}

	if fc.FnMap == nil {
		fc.FnMap = empty.FnMap
	}

	if fc.BranchMap == nil {
		fc.BranchMap = empty.BranchMap
	}

	if fc.S == nil {
		fc.S = empty.S
	}

	if fc.F == nil {
		fc.F = empty.F
	}

	if fc.B == nil {
		fc.B = empty.B
	}

	return fc, nil
}
