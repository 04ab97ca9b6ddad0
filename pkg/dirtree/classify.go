package dirtree

import (
	"path/filepath"
	"strings"
)

// entryInfo is the classification of one filesystem entry.
type entryInfo struct {
	name  string
	isDir bool
	size  int64
}

// classify stats path once. Anything that is not a directory counts as a file.
func classify(fsys FileSystem, path string) (entryInfo, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return entryInfo{}, wrapFSError("stat", path, err)
	}
	entry := entryInfo{name: filepath.Base(path), isDir: info.IsDir()}
	if !entry.isDir {
		entry.size = info.Size()
	}
	return entry, nil
}

// relativeTo returns path relative to root with forward slashes and no
// leading separator; "" when path is root.
func relativeTo(root, path string) string {
	relative, err := filepath.Rel(root, path)
	if err != nil {
		relative = strings.TrimPrefix(path, root)
	}
	if relative == "." {
		return ""
	}
	return strings.TrimLeft(filepath.ToSlash(relative), "/")
}
