package domain

import (
	"context"

	"golang.org/x/sync/errgroup"

	"covhook.dev/pkg/covhook/internal/adapter"
	m "covhook.dev/pkg/covhook/internal/model"
)

// MergeCoverage loads every input concurrently and merges them in argument
// order, summing counters of files present in several inputs.
func MergeCoverage(ctx context.Context, store adapter.CoverageStore, inputs []m.Path, parallel int) (*m.CoverageMap, error) {
	loaded := make([]*m.CoverageMap, len(inputs))

	group, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		group.SetLimit(parallel)
	}

	for i, input := range inputs {
		i, input := i, input

		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			coverage, err := store.Load(input)
			if err != nil {
				return err
			}

			loaded[i] = coverage

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	merged := m.NewCoverageMap()
	for _, coverage := range loaded {
		merged.Merge(coverage)
	}

	return merged, nil
}
