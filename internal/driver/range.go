package driver

import (
	"context"
	"log"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kthwaite/wikitools/internal/chunker"
)

// RangeFunc processes one byte range of path and returns its partial
// result. It mirrors ChunkFunc's contract but over chunker.ByteRange work
// items instead of bzip2 sub-stream offsets.
type RangeFunc func(ctx context.Context, path string, rng chunker.ByteRange) (Partial, error)

// RunRanges is Run's counterpart for the TSV re-aggregator of
// SPEC_FULL.md §4.6/§4.9: it dispatches chunker.ByteRange work items
// (from chunker.ChunkFile) across workers workers, folding results into
// init via merge under the same short-held-mutex discipline as Run. A
// worker failure is logged and the range is skipped, never aborting the
// run; the only abort condition is ctx cancellation.
func RunRanges(ctx context.Context, logger *log.Logger, path string, ranges []chunker.ByteRange, fn RangeFunc, merge MergeFunc, init Partial, progress ProgressFunc, workers int) (Partial, error) {
	group, groupCtx := errgroup.WithContext(ctx)

	work := make(chan chunker.ByteRange, len(ranges))
	for _, rng := range ranges {
		work <- rng
	}
	close(work)

	var (
		mergeMu sync.Mutex
		acc     = init
		progMu  sync.Mutex
		done    int
		skipped int
	)
	total := len(ranges)

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
				case rng, more := <-work:
					if !more {
						return nil
					}

					partial, err := fn(groupCtx, path, rng)
					if err != nil {
						logger.Printf("skipping range %v: %v", rng, err)
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
		logger.Printf("skipped %d of %d ranges", skipped, total)
	}
	return acc, nil
}
