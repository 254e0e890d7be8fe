package system

import (
	"runtime"

	"github.com/l1jgo/ecsruntime/ecs"
	"golang.org/x/sync/errgroup"
)

// runParallel partitions entities into contiguous slices, one per
// available processor, and runs fn over each slice concurrently via an
// errgroup, blocking until every worker finishes. Workers never touch
// the world's indices — fn is expected to mutate only the entity it's
// handed, the contract the batcher relies on instead of locking.
func runParallel(entities []*ecs.Entity, fn func(*ecs.Entity)) {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if workers > len(entities) {
		workers = len(entities)
	}
	if workers <= 1 {
		for _, e := range entities {
			fn(e)
		}
		return
	}

	chunk := (len(entities) + workers - 1) / workers
	var g errgroup.Group
	for start := 0; start < len(entities); start += chunk {
		end := start + chunk
		if end > len(entities) {
			end = len(entities)
		}
		batch := entities[start:end]
		g.Go(func() error {
			for _, e := range batch {
				fn(e)
			}
			return nil
		})
	}
	_ = g.Wait()
}
