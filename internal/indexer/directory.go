package indexer

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// IndexDirectory walks every indexable file under walker.Root and
// reindexes it, parsing files concurrently (bounded by parallelism)
// while relying on the store's single-writer batch commit to
// serialize the actual writes (spec.md §4.I, §5). A single file's
// failure is recorded in Stats.Errors rather than aborting the run;
// only a failure in the walk itself (e.g. the root vanishing) is
// returned as an error.
func (ix *Indexer) IndexDirectory(ctx context.Context, root string, walker *Walker, parallelism int) (Stats, error) {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}

	start := time.Now()
	var stats Stats
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	walkErr := walker.Walk(func(relPath string) error {
		path := relPath
		g.Go(func() error {
			res, err := ix.IndexFile(gctx, root, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.FilesFailed++
				if len(stats.Errors) < MaxStatErrors {
					stats.Errors = append(stats.Errors, err)
				}
				return nil
			}
			if res.Cached {
				stats.FilesCached++
			} else if res.Skipped {
				stats.FilesSkipped++
			} else {
				stats.FilesIndexed++
				stats.SymbolsFound += res.Symbols
			}
			return nil
		})
		return nil
	})
	if walkErr != nil {
		_ = g.Wait()
		stats.Elapsed = time.Since(start)
		return stats, walkErr
	}

	_ = g.Wait() // per-file errors are already folded into stats, never returned here
	stats.Elapsed = time.Since(start)
	return stats, nil
}
