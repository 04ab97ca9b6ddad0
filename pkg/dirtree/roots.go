package dirtree

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// rootJob is one root handed to a worker.
type rootJob struct {
	index int
	root  string
}

// rootResult is the tree built for rootJob.index.
type rootResult struct {
	index int
	item  *Item
	err   error
}

// BuildAll builds one tree per root and folds them into a single tree with
// Merge, in the order given, so entries of later roots override entries of
// earlier ones. Roots are traversed concurrently; merging starts only after
// every tree is complete. Any failure fails the whole call. Roots filtered
// out entirely are skipped, and nil is returned when all of them are.
func (b *Builder) BuildAll(ctx context.Context, roots []string, opts Options) (*Item, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	trees, err := b.buildRoots(ctx, roots, opts)
	if err != nil {
		return nil, err
	}

	var merged *Item
	for i, tree := range trees {
		switch {
		case tree == nil:
			b.logger.Debug("Root produced no tree", zap.String("root", roots[i]))
		case merged == nil:
			merged = tree
		case merged.IsDir() && tree.IsDir():
			Merge(merged, tree)
		default:
			b.logger.Debug("Root replaces merged tree", zap.String("root", roots[i]), zap.String("type", string(tree.Type)))
			merged = tree
		}
	}
	return merged, nil
}

// buildRoots runs a concurrent walk for every root on a bounded worker pool
// and returns the trees in root order. All walks share one semaphore, so
// opts.Concurrency bounds filesystem calls across roots. The first failure
// cancels the others.
func (b *Builder) buildRoots(ctx context.Context, roots []string, opts Options) ([]*Item, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	maxWorkers := opts.workers()
	if maxWorkers > len(roots) {
		maxWorkers = len(roots)
	}

	sem := semaphore.NewWeighted(int64(opts.workers()))
	jobs := make(chan rootJob, len(roots))
	results := make(chan rootResult, len(roots))
	var wg sync.WaitGroup

	b.logger.Debug("Initializing root worker pool", zap.Int("workers", maxWorkers), zap.Int("roots", len(roots)))
	for w := 0; w < maxWorkers; w++ {
		wg.Add(1)
		go b.rootWorker(ctx, w, jobs, results, opts, sem, &wg)
	}

	for i, root := range roots {
		jobs <- rootJob{index: i, root: root}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	trees := make([]*Item, len(roots))
	var firstErr error
	for result := range results {
		if result.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("building tree for %s: %w", roots[result.index], result.err)
				cancel()
			}
			continue
		}
		trees[result.index] = result.item
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return trees, nil
}

// rootWorker builds the trees of the roots it receives from jobs.
func (b *Builder) rootWorker(ctx context.Context, id int, jobs <-chan rootJob, results chan<- rootResult, opts Options, sem *semaphore.Weighted, wg *sync.WaitGroup) {
	defer wg.Done()
	logger := b.logger.With(zap.Int("workerID", id))

	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- rootResult{index: job.index, err: err}
			continue
		}
		logger.Debug("Worker received root", zap.String("root", job.root))
		item, err := b.buildAsync(ctx, job.root, opts, sem)
		if err != nil {
			logger.Debug("Worker failed to build root", zap.String("root", job.root), zap.Error(err))
		}
		results <- rootResult{index: job.index, item: item, err: err}
	}
}
