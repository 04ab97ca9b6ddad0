package dirtree

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	testDataRoot   = "/test/test_data"
	fileASize      = 12
	fileBSize      = 3756
	pngSize        = 120
	canonicalTotal = 3*fileASize + 3*fileBSize + pngSize
)

var (
	fileAContents = "Hello world\n"
	fileBContents = strings.Repeat("Lorem ipsum", fileBSize/len("Lorem ipsum")+1)[:fileBSize]
	pngContents   = strings.Repeat("\x89", pngSize)
)

// newFixture builds the canonical tree:
//
//	test_data/
//	  file_a.txt, file_b.txt
//	  some_dir/another_dir/{file_a.txt,file_b.txt}
//	  some_dir/{file_a.txt,file_b.txt,test.png}
//	  some_dir_2/.gitkeep
func newFixture(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"file_a.txt":                      fileAContents,
		"file_b.txt":                      fileBContents,
		"some_dir/another_dir/file_a.txt": fileAContents,
		"some_dir/another_dir/file_b.txt": fileBContents,
		"some_dir/file_a.txt":             fileAContents,
		"some_dir/file_b.txt":             fileBContents,
		"some_dir/test.png":               pngContents,
		"some_dir_2/.gitkeep":             "",
	}
	for name, contents := range files {
		writeFile(t, fsys, filepath.Join(testDataRoot, name), contents)
	}
	return fsys
}

func writeFile(t *testing.T, fsys afero.Fs, path, contents string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fsys, path, []byte(contents), 0o644))
}

func newFixtureBuilder(t *testing.T) (*Builder, afero.Fs) {
	t.Helper()
	fsys := newFixture(t)
	return NewBuilder(NewFileSystem(fsys), nil), fsys
}

func childNames(item *Item) []string {
	names := make([]string, 0, len(item.Children))
	for _, child := range item.Children {
		names = append(names, child.Name)
	}
	return names
}

func childByName(item *Item, name string) *Item {
	for _, child := range item.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// requireSizeInvariant checks that every directory size is the sum of its children.
func requireSizeInvariant(t *testing.T, root *Item) {
	t.Helper()
	root.Walk(func(item *Item) bool {
		if item.IsDir() {
			require.Equal(t, sumSizes(item.Children), item.Size, "size of %s", item.Path)
		} else {
			require.Nil(t, item.Children, "file %s has children", item.Path)
		}
		return true
	})
}

// faultyFileSystem injects errors into a FileSystem and counts calls.
type faultyFileSystem struct {
	FileSystem
	mu       sync.Mutex
	statErrs map[string]error
	listErrs map[string]error
	calls    atomic.Int64
}

func newFaultyFileSystem(inner FileSystem) *faultyFileSystem {
	return &faultyFileSystem{
		FileSystem: inner,
		statErrs:   map[string]error{},
		listErrs:   map[string]error{},
	}
}

func (f *faultyFileSystem) failStat(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statErrs[path] = err
}

func (f *faultyFileSystem) failList(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErrs[path] = err
}

func (f *faultyFileSystem) Stat(name string) (os.FileInfo, error) {
	f.calls.Add(1)
	f.mu.Lock()
	err := f.statErrs[name]
	f.mu.Unlock()
	if err != nil {
		return nil, &os.PathError{Op: "stat", Path: name, Err: err}
	}
	return f.FileSystem.Stat(name)
}

func (f *faultyFileSystem) ListEntries(name string) ([]string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	err := f.listErrs[name]
	f.mu.Unlock()
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	return f.FileSystem.ListEntries(name)
}

// inFlightFileSystem records the peak number of concurrent calls. Each call
// lingers briefly so that overlapping callers are observed.
type inFlightFileSystem struct {
	FileSystem
	current atomic.Int64
	peak    atomic.Int64
}

func (f *inFlightFileSystem) enter() func() {
	n := f.current.Add(1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	return func() { f.current.Add(-1) }
}

func (f *inFlightFileSystem) Stat(name string) (os.FileInfo, error) {
	defer f.enter()()
	return f.FileSystem.Stat(name)
}

func (f *inFlightFileSystem) ListEntries(name string) ([]string, error) {
	defer f.enter()()
	return f.FileSystem.ListEntries(name)
}
