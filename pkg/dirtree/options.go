package dirtree

import (
	"fmt"
	"path/filepath"
	"runtime"

	"dirtree/pkg/glob"
)

// PathMode selects how Item.Path is formed.
type PathMode int

const (
	// PathModeJoined keeps the root as supplied and joins entry names onto it.
	PathModeJoined PathMode = iota
	// PathModeAbsolute resolves the root to an absolute path first.
	PathModeAbsolute
)

// Options configures a single traversal. The zero value keeps everything.
type Options struct {
	HideFiles            bool     // Drop every file.
	HideEmptyDirectories bool     // Drop directories left without children after filtering.
	IgnoreList           []string // Globs removing matching entries and whole subtrees.
	IncludeOnly          []string // Globs a file path must match to be kept; empty keeps all files.
	PathMode             PathMode // How Item.Path is formed.
	Concurrency          int      // Bound on concurrent filesystem calls and root traversals; <= 0 uses NumCPU.
}

// compiledOptions holds Options with the glob lists compiled. It is
// read-only for the duration of a traversal.
type compiledOptions struct {
	Options
	ignore  *glob.Matcher
	include *glob.Matcher
}

// compile normalizes the options. It touches no filesystem.
func (opts Options) compile() (*compiledOptions, error) {
	ignore, err := glob.Compile(opts.IgnoreList)
	if err != nil {
		return nil, fmt.Errorf("compiling ignore list: %w", err)
	}
	include, err := glob.Compile(opts.IncludeOnly)
	if err != nil {
		return nil, fmt.Errorf("compiling include list: %w", err)
	}
	return &compiledOptions{Options: opts, ignore: ignore, include: include}, nil
}

// Validate reports whether the glob lists compile.
func (opts Options) Validate() error {
	_, err := opts.compile()
	return err
}

func (opts Options) workers() int {
	if opts.Concurrency > 0 {
		return opts.Concurrency
	}
	return runtime.NumCPU()
}

// resolveRoot cleans root and, in absolute mode, makes it absolute.
func (mode PathMode) resolveRoot(root string) (string, error) {
	cleaned := filepath.Clean(root)
	if mode != PathModeAbsolute {
		return cleaned, nil
	}
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path for %s: %w", root, err)
	}
	return absolute, nil
}

func (mode PathMode) String() string {
	switch mode {
	case PathModeJoined:
		return "joined"
	case PathModeAbsolute:
		return "absolute"
	default:
		return fmt.Sprintf("PathMode(%d)", int(mode))
	}
}
