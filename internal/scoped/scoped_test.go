package scoped

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDir(t *testing.T) {
	d, err := NewDir(t.TempDir(), "req-*")
	if err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(d.Path, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "book.fb2"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(d.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected directory to be removed; got %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second close must be a no-op; got %v", err)
	}
}

func TestFile(t *testing.T) {
	f, err := NewFile(t.TempDir(), "book-*")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("content"); err != nil {
		t.Fatal(err)
	}
	name := f.Name()

	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(name); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected file to be removed; got %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second close must be a no-op; got %v", err)
	}
}

func TestCleanupOnEarlyReturn(t *testing.T) {
	parent := t.TempDir()
	work := func() (err error) {
		d, err := NewDir(parent, "req-*")
		if err != nil {
			return err
		}
		defer d.Close()
		return errors.New("failed half way")
	}
	if err := work(); err == nil {
		t.Fatal("expected error")
	}
	entries, err := os.ReadDir(parent)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no leftovers; got %d entries", len(entries))
	}
}
