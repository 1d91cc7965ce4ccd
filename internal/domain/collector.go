package domain

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"covhook.dev/pkg/covhook/internal/adapter"
	m "covhook.dev/pkg/covhook/internal/model"
	"covhook.dev/pkg/covhook/pkg"
)

// DefaultCollectPath is where browsers post their coverage objects.
const DefaultCollectPath = "/__coverage__"

const maxPayloadBytes = 64 << 20

// Collector receives coverage payloads over HTTP and merges them on demand.
type Collector interface {
	http.Handler
	// Len is the number of accepted payloads.
	Len() uint64
	// Finalize merges every accepted payload in arrival order.
	Finalize() (*m.CoverageMap, error)
	// Close releases the spill file.
	Close() error
}

type collector struct {
	store adapter.CoverageStore
	spill pkg.FileSpill[[]byte]
}

// NewCollector creates a Collector spilling payloads under spillDir.
func NewCollector(store adapter.CoverageStore, spillDir string) (Collector, error) {
	spill, err := pkg.NewFileSpill[[]byte](spillDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create coverage spill: %w", err)
	}

	return &collector{store: store, spill: spill}, nil
}

func (c *collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusRequestEntityTooLarge)
		return
	}

	if _, err := c.store.Parse(body); err != nil {
		slog.Warn("rejected coverage payload", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	if err := c.spill.Append(body); err != nil {
		http.Error(w, "failed to store coverage", http.StatusInternalServerError)
		return
	}

	slog.Debug("accepted coverage payload", "bytes", len(body), "count", c.spill.Len())
	w.WriteHeader(http.StatusNoContent)
}

func (c *collector) Len() uint64 {
	return c.spill.Len()
}

func (c *collector) Finalize() (*m.CoverageMap, error) {
	merged := m.NewCoverageMap()

	err := c.spill.Range(func(index uint64, payload []byte) error {
		coverage, err := c.store.Parse(payload)
		if err != nil {
			return fmt.Errorf("payload %d: %w", index, err)
		}

		merged.Merge(coverage)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return merged, nil
}

func (c *collector) Close() error {
	return c.spill.Remove()
}
