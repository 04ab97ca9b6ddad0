package dirtree

import (
	"errors"
	"path/filepath"

	"go.uber.org/zap"
)

// Builder constructs Item trees from a FileSystem.
type Builder struct {
	fs     FileSystem
	logger *zap.Logger
}

// NewBuilder returns a Builder reading from fsys. A nil logger discards output.
func NewBuilder(fsys FileSystem, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{fs: fsys, logger: logger}
}

// visit is an entry that was classified and passed the ignore list.
type visit struct {
	path         string
	relativePath string
	entry        entryInfo
}

// Build constructs the tree rooted at root synchronously. It returns nil
// and no error when the root itself is filtered out. The root is never
// tested against the ignore list.
func (b *Builder) Build(root string, opts Options) (*Item, error) {
	compiled, err := opts.compile()
	if err != nil {
		return nil, err
	}
	rootPath, err := opts.PathMode.resolveRoot(root)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("Starting tree build", zap.String("root", rootPath))
	item, err := b.build(rootPath, rootPath, compiled, true)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("Completed tree build", zap.String("root", rootPath), zap.Bool("dropped", item == nil))
	return item, nil
}

func (b *Builder) build(path, root string, c *compiledOptions, isRoot bool) (*Item, error) {
	entry, err := classify(b.fs, path)
	v, err := b.admit(entry, err, path, root, c, isRoot)
	if v == nil || err != nil {
		return nil, err
	}
	if !v.entry.isDir {
		return b.finishFile(v, c), nil
	}

	names, err := b.fs.ListEntries(path)
	if err != nil {
		return nil, b.listFailed(path, err, isRoot)
	}
	children := make([]*Item, 0, len(names))
	for _, name := range names {
		child, err := b.build(filepath.Join(path, name), root, c, false)
		if err != nil {
			return nil, err
		}
		if child != nil {
			children = append(children, child)
		}
	}
	return b.finishDirectory(v, children, c), nil
}

// admit turns a classification result into a visit, or nil when the entry
// is dropped. Vanished entries below the root are dropped; every other
// error is returned.
func (b *Builder) admit(entry entryInfo, err error, path, root string, c *compiledOptions, isRoot bool) (*visit, error) {
	if err != nil {
		if !isRoot && errors.Is(err, ErrNotFound) {
			b.logger.Debug("Dropping entry", zap.String("path", path), zap.String("reason", reasonVanished))
			return nil, nil
		}
		return nil, err
	}
	relativePath := relativeTo(root, path)
	if !isRoot {
		if matched, pattern := c.ignored(path, relativePath, entry.isDir); matched {
			b.logger.Debug("Dropping entry",
				zap.String("path", path),
				zap.String("reason", reasonIgnored),
				zap.String("pattern", pattern))
			return nil, nil
		}
	}
	return &visit{path: path, relativePath: relativePath, entry: entry}, nil
}

// listFailed maps a ListEntries error. A directory that vanished after its
// stat is dropped like any other vanished entry.
func (b *Builder) listFailed(path string, err error, isRoot bool) error {
	wrapped := wrapFSError("list", path, err)
	if !isRoot && errors.Is(wrapped, ErrNotFound) {
		b.logger.Debug("Dropping entry", zap.String("path", path), zap.String("reason", reasonVanished))
		return nil
	}
	b.logger.Error("Failed to list directory", zap.String("path", path), zap.Error(err))
	return wrapped
}

func (b *Builder) finishFile(v *visit, c *compiledOptions) *Item {
	if keep, reason := c.keepFile(v.path); !keep {
		b.logger.Debug("Dropping entry", zap.String("path", v.path), zap.String("reason", reason))
		return nil
	}
	return newFileItem(v.entry.name, v.path, v.relativePath, v.entry.size)
}

func (b *Builder) finishDirectory(v *visit, children []*Item, c *compiledOptions) *Item {
	if keep, reason := c.keepDirectory(children); !keep {
		b.logger.Debug("Dropping entry", zap.String("path", v.path), zap.String("reason", reason))
		return nil
	}
	return newDirectoryItem(v.entry.name, v.path, v.relativePath, children)
}
