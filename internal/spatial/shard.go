// Package spatial tests zones and PoIs for membership in the AoI polygons.
// The work is split into shards that run in parallel; each shard only reads
// shared inputs and returns its own results, which the caller merges after
// every shard has finished.
package spatial

import (
	"context"
	"runtime"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Workers resolves a configured worker count, where n <= 0 means one
// worker per CPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// MapShards splits [0, n) into at most workers contiguous ranges and calls
// fn for each range concurrently. The returned slice holds the result of
// each shard in range order.
func MapShards[T any](ctx context.Context, n, workers int, fn func(lo, hi int) T) ([]T, error) {
	if n == 0 {
		return nil, nil
	}
	workers = Workers(workers)
	if workers > n {
		workers = n
	}
	size := (n + workers - 1) / workers

	results := make([]T, (n+size-1)/size)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range results {
		lo := i * size
		hi := min(lo+size, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrap(err, "spatial: shard cancelled")
			}
			results[i] = fn(lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
