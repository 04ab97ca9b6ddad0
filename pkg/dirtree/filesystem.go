package dirtree

import (
	"os"

	"github.com/spf13/afero"
)

// FileSystem is the host collaborator the builder reads from.
type FileSystem interface {
	// Stat describes the entry at name. It fails when the entry is missing.
	Stat(name string) (os.FileInfo, error)
	// ListEntries returns the entry names of a directory in host order.
	ListEntries(name string) ([]string, error)
}

// AferoFileSystem adapts an afero.Fs to FileSystem.
type AferoFileSystem struct {
	fs afero.Fs
}

// NewFileSystem wraps fsys.
func NewFileSystem(fsys afero.Fs) *AferoFileSystem {
	return &AferoFileSystem{fs: fsys}
}

// NewOSFileSystem returns a FileSystem backed by the operating system.
func NewOSFileSystem() *AferoFileSystem {
	return NewFileSystem(afero.NewOsFs())
}

// Stat implements FileSystem.
func (a *AferoFileSystem) Stat(name string) (os.FileInfo, error) {
	return a.fs.Stat(name)
}

// ListEntries implements FileSystem. Names are returned unsorted.
func (a *AferoFileSystem) ListEntries(name string) ([]string, error) {
	dir, err := a.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer dir.Close()
	return dir.Readdirnames(-1)
}
