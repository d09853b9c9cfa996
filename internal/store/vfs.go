package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand/v2"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/aweris/relcache/internal/fsutil"
)

// Root is a virtual filesystem whose "/" is the storage root.
type Root struct {
	fs   afero.Fs
	desc string
}

// OS is a root backed by a physical directory.
func OS(dir string) (Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return Root{}, fmt.Errorf("failed to create directory %s: %w", abs, err)
	}
	return Root{fs: afero.NewBasePathFs(afero.NewOsFs(), abs), desc: "os:" + abs}, nil
}

// Memory is a purely in-memory root.
func Memory() Root {
	return Root{fs: afero.NewMemMapFs(), desc: "mem:"}
}

// AltRoot jails inner at base; nothing above base is reachable.
func AltRoot(inner Root, base string) (Root, error) {
	base = path.Clean("/" + filepath.ToSlash(base))
	if err := inner.fs.MkdirAll(base, 0755); err != nil {
		return Root{}, fmt.Errorf("failed to create altroot %s: %w", base, err)
	}
	return Root{
		fs:   afero.NewBasePathFs(inner.fs, base),
		desc: "altroot:" + inner.desc + base,
	}, nil
}

// Overlay unions layers. Earlier layers shadow later ones and all writes
// land in the first layer; the others are only read.
func Overlay(layers ...Root) (Root, error) {
	if len(layers) == 0 {
		return Root{}, errors.New("overlay needs at least one layer")
	}
	descs := make([]string, len(layers))
	for i, l := range layers {
		descs[i] = l.desc
	}
	return Root{fs: overlayFs(layers), desc: "overlay:[" + strings.Join(descs, ",") + "]"}, nil
}

func overlayFs(layers []Root) afero.Fs {
	if len(layers) == 1 {
		return layers[0].fs
	}
	return afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(overlayFs(layers[1:])), layers[0].fs)
}

// NewRoot wraps an arbitrary afero filesystem.
func NewRoot(fsys afero.Fs, desc string) Root {
	return Root{fs: fsys, desc: desc}
}

func (r Root) String() string { return r.desc }

// VFSStore implements Storage on a virtual filesystem root.
type VFSStore struct {
	root Root
	meta fsutil.Meta
}

func NewVFS(root Root) *VFSStore {
	return &VFSStore{root: root, meta: fsutil.Virtual{Fs: root.fs}}
}

func (s *VFSStore) Root() string { return s.root.desc }

func (s *VFSStore) Reader(name string) (io.ReadCloser, bool, error) {
	clean, err := cleanName("read", name)
	if err != nil {
		return nil, false, err
	}
	p := "/" + clean
	if !s.meta.IsFile(p) {
		return nil, false, nil
	}
	f, err := s.root.fs.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read object: %w", err)
	}
	return f, true, nil
}

func (s *VFSStore) Writer(name string) (io.WriteCloser, error) {
	clean, err := cleanName("write", name)
	if err != nil {
		return nil, err
	}
	p := "/" + clean
	if err := s.root.fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	tmp := p + partialMarker + strconv.FormatUint(rand.Uint64(), 36)
	f, err := s.root.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to stage object: %w", err)
	}
	return &stagedWriter{
		file:   f,
		commit: func() error { return s.root.fs.Rename(tmp, p) },
		remove: func() error { return s.root.fs.Remove(tmp) },
	}, nil
}

func (s *VFSStore) Stat(name string) (int64, bool) {
	clean, err := cleanName("stat", name)
	if err != nil {
		return 0, false
	}
	p := "/" + clean
	if !s.meta.IsFile(p) {
		return 0, false
	}
	size, err := s.meta.Size(p)
	if err != nil {
		return 0, false
	}
	return size, true
}

func (s *VFSStore) List(prefix string) ([]string, error) {
	var names []string
	err := afero.Walk(s.root.fs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel := strings.TrimPrefix(filepath.ToSlash(p), "/")
		if !isPartial(rel) && strings.HasPrefix(rel, prefix) {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.root.desc, err)
	}
	sort.Strings(names)
	return names, nil
}
