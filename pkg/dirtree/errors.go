package dirtree

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound is matched by NotFoundError.
	ErrNotFound = errors.New("entry not found")
	// ErrAccess is matched by AccessError.
	ErrAccess = errors.New("entry not accessible")
	// ErrNoRoots is returned by BuildAll when called without roots.
	ErrNoRoots = errors.New("no root paths supplied")
)

// NotFoundError reports an entry that vanished between listing and stat.
// The builder recovers from it for every entry below the scan root.
type NotFoundError struct {
	Op   string
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AccessError reports an entry that could not be stat'ed or listed.
// It aborts the whole traversal.
type AccessError struct {
	Op   string
	Path string
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// Is reports whether target is ErrAccess.
func (e *AccessError) Is(target error) bool { return target == ErrAccess }

// wrapFSError converts a filesystem error into NotFoundError or AccessError.
func wrapFSError(op, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &NotFoundError{Op: op, Path: path, Err: err}
	}
	return &AccessError{Op: op, Path: path, Err: err}
}
