package dirtree

import "path/filepath"

// Drop reasons used in debug logs.
const (
	reasonIgnored     = "ignored"
	reasonHiddenFile  = "hidden file"
	reasonNotIncluded = "not included"
	reasonEmptyDir    = "empty directory"
	reasonVanished    = "vanished"
	trailingSeparator = "/"
)

// ignored tests the entry path and its root-relative path against the
// ignore list. Directories are also tested with a trailing separator so a
// pattern ending in "/" only ever matches directories.
func (c *compiledOptions) ignored(path, relativePath string, isDir bool) (bool, string) {
	candidates := []string{filepath.ToSlash(path)}
	if relativePath != "" {
		candidates = append(candidates, relativePath)
	}
	for _, candidate := range candidates {
		if matched, pattern := c.ignore.TestWithPattern(candidate); matched {
			return true, pattern
		}
		if isDir {
			if matched, pattern := c.ignore.TestWithPattern(candidate + trailingSeparator); matched {
				return true, pattern
			}
		}
	}
	return false, ""
}

// keepFile applies hideFiles, then includeOnly. An empty include list keeps
// every file.
func (c *compiledOptions) keepFile(path string) (bool, string) {
	if c.HideFiles {
		return false, reasonHiddenFile
	}
	if !c.include.Empty() && !c.include.Test(filepath.ToSlash(path)) {
		return false, reasonNotIncluded
	}
	return true, ""
}

// keepDirectory applies hideEmptyDirectories to a directory's surviving children.
func (c *compiledOptions) keepDirectory(children []*Item) (bool, string) {
	if c.HideEmptyDirectories && len(children) == 0 {
		return false, reasonEmptyDir
	}
	return true, ""
}
