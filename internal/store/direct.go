package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aweris/relcache/internal/fsutil"
)

// DirectStore implements Storage on a local directory.
//
// Storage layout mirrors object names:
//
//	dir/
//	  linux-amd64/
//	    0.8.2/solc-linux-amd64-v0.8.2+commit.661d1103
//	    0.8.2/solc-linux-amd64-v0.8.2+commit.661d1103.partial-1234  (in-flight write)
type DirectStore struct {
	dir  string
	meta fsutil.Meta
}

func NewDirect(dir string) (*DirectStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", abs, err)
	}
	return &DirectStore{dir: abs, meta: fsutil.Native{}}, nil
}

func (s *DirectStore) Root() string { return s.dir }

func (s *DirectStore) Reader(name string) (io.ReadCloser, bool, error) {
	clean, err := cleanName("read", name)
	if err != nil {
		return nil, false, err
	}
	path := s.objectPath(clean)
	if !s.meta.IsFile(path) {
		return nil, false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read object: %w", err)
	}
	return f, true, nil
}

func (s *DirectStore) Writer(name string) (io.WriteCloser, error) {
	clean, err := cleanName("write", name)
	if err != nil {
		return nil, err
	}
	path := s.objectPath(clean)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+partialMarker+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to stage object: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to stage object: %w", err)
	}
	return &stagedWriter{
		file:   tmp,
		commit: func() error { return os.Rename(tmp.Name(), path) },
		remove: func() error { return os.Remove(tmp.Name()) },
	}, nil
}

func (s *DirectStore) Stat(name string) (int64, bool) {
	clean, err := cleanName("stat", name)
	if err != nil {
		return 0, false
	}
	path := s.objectPath(clean)
	if !s.meta.IsFile(path) {
		return 0, false
	}
	size, err := s.meta.Size(path)
	if err != nil {
		return 0, false
	}
	return size, true
}

func (s *DirectStore) List(prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !isPartial(rel) && strings.HasPrefix(rel, prefix) {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	sort.Strings(names)
	return names, nil
}

// objectPath returns the filesystem path for a validated object name.
func (s *DirectStore) objectPath(name string) string {
	return filepath.Join(s.dir, filepath.FromSlash(name))
}
