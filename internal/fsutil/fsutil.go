// Package fsutil gives the storage layer one view of file metadata over
// the native filesystem and over afero virtual filesystems.
package fsutil

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// Meta answers "is this a file or directory" and "how big is it" without
// callers knowing which filesystem sits underneath.
type Meta interface {
	IsFile(name string) bool
	IsDir(name string) bool
	Size(name string) (int64, error)
}

// Native queries the operating system directly.
type Native struct{}

func (Native) IsFile(name string) bool {
	info, err := os.Stat(name)
	return err == nil && info.Mode().IsRegular()
}

func (Native) IsDir(name string) bool {
	info, err := os.Stat(name)
	return err == nil && info.IsDir()
}

func (Native) Size(name string) (int64, error) {
	return size(os.Stat(name))
}

// Virtual queries an afero filesystem.
type Virtual struct {
	Fs afero.Fs
}

func (v Virtual) IsFile(name string) bool {
	info, err := v.Fs.Stat(name)
	return err == nil && info.Mode().IsRegular()
}

func (v Virtual) IsDir(name string) bool {
	ok, err := afero.IsDir(v.Fs, name)
	return err == nil && ok
}

func (v Virtual) Size(name string) (int64, error) {
	return size(v.Fs.Stat(name))
}

func size(info os.FileInfo, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("size of %s: is a directory", info.Name())
	}
	return info.Size(), nil
}
