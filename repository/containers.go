package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

type containers interface {
	UnpackBook(ctx context.Context, container, file string, dst io.Writer) error
}

// ContainerStore opens container archives by name.
type ContainerStore interface {
	Open(ctx context.Context, name string) (*Container, error)
}

// Container is an open archive. Close releases whatever backs it.
type Container struct {
	*zip.Reader
	closer io.Closer
}

func (c *Container) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// Entry returns the archive member with exactly the given name.
func (c *Container) Entry(name string) (*zip.File, error) {
	for _, f := range c.File {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, ErrRecordNotFound
}

// UnpackBook streams the decompressed bytes of file inside container to dst.
func (r *repository) UnpackBook(ctx context.Context, container, file string, dst io.Writer) error {
	c, err := r.store.Open(ctx, container)
	if err != nil {
		return err
	}
	defer c.Close()

	entry, err := c.Entry(file)
	if err != nil {
		return fmt.Errorf("%s in %s: %w", file, container, err)
	}
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open %s in %s: %w", file, container, err)
	}
	defer rc.Close()

	if _, err := io.Copy(dst, rc); err != nil {
		return fmt.Errorf("unpack %s from %s: %w", file, container, err)
	}
	return nil
}

// CleanName turns a container name into a relative slash separated path that
// cannot climb out of the store root.
func CleanName(name string) string {
	return path.Clean("/" + filepath.ToSlash(name))[1:]
}

// LocalStore reads containers from a library directory.
type LocalStore struct {
	Root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{Root: root}
}

func (s *LocalStore) Open(_ context.Context, name string) (*Container, error) {
	rel := CleanName(name)
	if rel == "" {
		return nil, ErrRecordNotFound
	}
	rc, err := zip.OpenReader(filepath.Join(s.Root, filepath.FromSlash(rel)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("container %s: %w", name, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("container %s: %w", name, err)
	}
	return &Container{Reader: &rc.Reader, closer: rc}, nil
}
