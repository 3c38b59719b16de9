// Package driver implements the parallel chunk driver of
// SPEC_FULL.md §4.5: fan out sub-stream offsets to a worker pool, fan in
// partial results under a lock, with non-blocking progress reporting.
// Grounded in the teacher's worker-pool shape in build.go and
// pageentities.go (an errgroup-coordinated channel of work items, each
// worker folding into its own partial before a locked merge).
package driver

import (
	"context"
	"log"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Partial is any per-offset result a chunk function can produce; callers
// supply their own concrete type and a matching Merge function.
type Partial any

// ChunkFunc processes one offset of path and returns its partial result.
// A non-nil error marks the offset as failed; per SPEC_FULL.md §4.5 this
// is logged and skipped, never aborting the run.
type ChunkFunc func(ctx context.Context, path string, offset int64) (Partial, error)

// MergeFunc folds a worker's partial into the shared accumulator. It is
// always invoked under the driver's single merge lock, so it never needs
// its own synchronization, but it must be fast: it runs on the hot path
// between workers picking up new offsets.
type MergeFunc func(acc Partial, partial Partial) Partial

// ProgressFunc is invoked once per completed offset (success or skip),
// never while the merge lock is held.
type ProgressFunc func(done, total int)

// Run dispatches offsets (already sorted ascending by the caller, e.g.
// via indexmap.Map.Offsets) across workers workers (0 or negative means
// runtime.NumCPU()), applies fn to each, and folds results into init via
// merge under a short-held mutex. A worker failure is logged via logger
// and the offset is skipped; it does not abort the run. The only abort
// condition is ctx cancellation from outside.
func Run(ctx context.Context, logger *log.Logger, path string, offsets []int64, fn ChunkFunc, merge MergeFunc, init Partial, progress ProgressFunc, workers int) (Partial, error) {
	group, groupCtx := errgroup.WithContext(ctx)

	work := make(chan int64, len(offsets))
	for _, off := range offsets {
		work <- off
	}
	close(work)

	var (
		mergeMu sync.Mutex
		acc     = init
		progMu  sync.Mutex
		done    int
		skipped int
	)
	total := len(offsets)

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > total && total > 0 {
		workers = total
	}
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			for {
				select {
				case <-groupCtx.Done():
					return groupCtx.Err()
				case offset, more := <-work:
					if !more {
						return nil
					}

					partial, err := fn(groupCtx, path, offset)
					if err != nil {
						logger.Printf("skipping offset %d: %v", offset, err)
						progMu.Lock()
						skipped++
						done++
						d := done
						progMu.Unlock()
						if progress != nil {
							progress(d, total)
						}
						continue
					}

					mergeMu.Lock()
					acc = merge(acc, partial)
					mergeMu.Unlock()

					progMu.Lock()
					done++
					d := done
					progMu.Unlock()
					if progress != nil {
						progress(d, total)
					}
				}
			}
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if skipped > 0 {
		logger.Printf("skipped %d of %d offsets", skipped, total)
	}
	return acc, nil
}
