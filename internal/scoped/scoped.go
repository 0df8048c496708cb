// Package scoped provides temporary files and directories owned by a single
// request. Close removes them and is safe to call more than once.
package scoped

import (
	"errors"
	"os"
	"sync"
)

// Dir is a temporary directory removed with everything below it on Close.
type Dir struct {
	Path string
	once sync.Once
	err  error
}

// NewDir creates a fresh directory under parent (os.TempDir when empty).
func NewDir(parent, pattern string) (*Dir, error) {
	path, err := os.MkdirTemp(parent, pattern)
	if err != nil {
		return nil, err
	}
	return &Dir{Path: path}, nil
}

func (d *Dir) Close() error {
	d.once.Do(func() {
		d.err = os.RemoveAll(d.Path)
	})
	return d.err
}

// File is an open temporary file removed on Close.
type File struct {
	*os.File
	once sync.Once
	err  error
}

// NewFile creates and opens a fresh file under dir (os.TempDir when empty).
func NewFile(dir, pattern string) (*File, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return &File{File: f}, nil
}

func (f *File) Close() error {
	f.once.Do(func() {
		cerr := f.File.Close()
		rerr := os.Remove(f.Name())
		if errors.Is(rerr, os.ErrNotExist) {
			rerr = nil
		}
		f.err = errors.Join(cerr, rerr)
	})
	return f.err
}
