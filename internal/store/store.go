// Package store implements the cache storage layer.
//
// A Storage is a fixed root with byte-stream access by relative,
// slash-separated name:
// - Reader/Writer/Stat for basic operations
// - absence is reported as ok == false, never as an error
// - writers stage into a sibling file and publish on Close
//
// Backends: Direct (a real directory) and VFS (afero: physical, in-memory,
// altroot jail, overlay). Decorators: Compressed and Progress.
package store

import (
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// Storage handles cache object storage.
type Storage interface {
	// Root describes the backing location. It never changes.
	Root() string

	// Reader opens name for reading. ok is false if nothing is stored there.
	Reader(name string) (rc io.ReadCloser, ok bool, err error)

	// Writer creates or truncates name. The object becomes visible to
	// readers only once Close returns nil.
	Writer(name string) (io.WriteCloser, error)

	// Stat returns the stored size of name.
	Stat(name string) (size int64, exists bool)
}

// Lister is implemented by storages that can enumerate their objects.
type Lister interface {
	// List returns the names of stored objects starting with prefix, sorted.
	List(prefix string) ([]string, error)
}

// Aborter is implemented by writers that can discard staged data.
type Aborter interface {
	Abort() error
}

// Abort discards w if it supports it and closes it otherwise.
func Abort(w io.WriteCloser) error {
	if a, ok := w.(Aborter); ok {
		return a.Abort()
	}
	return w.Close()
}

// List enumerates s, or fails if the backend cannot.
func List(s Storage, prefix string) ([]string, error) {
	l, ok := s.(Lister)
	if !ok {
		return nil, fmt.Errorf("list %s: storage does not support listing", s.Root())
	}
	return l.List(prefix)
}

// partialMarker tags staged files; they are never listed or read.
const partialMarker = ".partial-"

func isPartial(name string) bool {
	return strings.Contains(name, partialMarker)
}

// cleanName validates a relative object name and strips a leading slash.
func cleanName(op, name string) (string, error) {
	clean := strings.TrimPrefix(name, "/")
	if clean == "" || clean == "." || !fs.ValidPath(clean) || isPartial(clean) {
		return "", &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	return clean, nil
}

// stagedWriter writes to a temporary file and renames it over the target
// on Close, so a half-written object is never visible under its name.
type stagedWriter struct {
	file   io.WriteCloser
	commit func() error
	remove func() error
	done   bool
}

func (w *stagedWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, fs.ErrClosed
	}
	return w.file.Write(p)
}

func (w *stagedWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.file.Close(); err != nil {
		w.remove()
		return fmt.Errorf("close staged file: %w", err)
	}
	if err := w.commit(); err != nil {
		w.remove()
		return fmt.Errorf("publish staged file: %w", err)
	}
	return nil
}

func (w *stagedWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	w.file.Close()
	return w.remove()
}
