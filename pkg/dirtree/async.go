package dirtree

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// asyncWalk is the state of one concurrent walk.
type asyncWalk struct {
	builder *Builder
	opts    *compiledOptions
	root    string
	sem     *semaphore.Weighted
}

// BuildAsync constructs the same tree as Build, resolving the children of
// each directory concurrently. At most opts.Concurrency filesystem calls
// run at once. Children keep their listing order. The first error cancels
// the remaining work and is returned without a partial tree.
func (b *Builder) BuildAsync(ctx context.Context, root string, opts Options) (*Item, error) {
	return b.buildAsync(ctx, root, opts, semaphore.NewWeighted(int64(opts.workers())))
}

// buildAsync runs one concurrent walk whose filesystem calls are bounded by
// sem. Walks sharing sem share the bound.
func (b *Builder) buildAsync(ctx context.Context, root string, opts Options, sem *semaphore.Weighted) (*Item, error) {
	compiled, err := opts.compile()
	if err != nil {
		return nil, err
	}
	rootPath, err := opts.PathMode.resolveRoot(root)
	if err != nil {
		return nil, err
	}
	walk := &asyncWalk{
		builder: b,
		opts:    compiled,
		root:    rootPath,
		sem:     sem,
	}
	b.logger.Debug("Starting concurrent tree build", zap.String("root", rootPath), zap.Int("concurrency", opts.workers()))
	return walk.build(ctx, rootPath, true)
}

func (w *asyncWalk) build(ctx context.Context, path string, isRoot bool) (*Item, error) {
	entry, err := w.classify(ctx, path)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	v, err := w.builder.admit(entry, err, path, w.root, w.opts, isRoot)
	if v == nil || err != nil {
		return nil, err
	}
	if !v.entry.isDir {
		return w.builder.finishFile(v, w.opts), nil
	}

	names, err := w.list(ctx, path)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, w.builder.listFailed(path, err, isRoot)
	}

	results := make([]*Item, len(names))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		group.Go(func() error {
			child, err := w.build(groupCtx, filepath.Join(path, name), false)
			if err != nil {
				return err
			}
			results[i] = child
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	children := make([]*Item, 0, len(results))
	for _, child := range results {
		if child != nil {
			children = append(children, child)
		}
	}
	return w.builder.finishDirectory(v, children, w.opts), nil
}

func (w *asyncWalk) classify(ctx context.Context, path string) (entryInfo, error) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return entryInfo{}, err
	}
	defer w.sem.Release(1)
	return classify(w.builder.fs, path)
}

func (w *asyncWalk) list(ctx context.Context, path string) ([]string, error) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer w.sem.Release(1)
	return w.builder.fs.ListEntries(path)
}
