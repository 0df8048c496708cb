package repository

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/emzola/flibooks/internal/estest"
	"github.com/emzola/flibooks/internal/ziptest"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"fb2-000024-030559.zip", "fb2-000024-030559.zip"},
		{"../../etc/passwd", "etc/passwd"},
		{"/abs/x.zip", "abs/x.zip"},
		{"a/./b/../c.zip", "a/c.zip"},
		{"", ""},
		{"..", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CleanName(tt.in); got != tt.want {
				t.Errorf("expected %q; got %q", tt.want, got)
			}
		})
	}
}

func TestUnpackBook(t *testing.T) {
	root := t.TempDir()
	lib := filepath.Join(root, "lib")
	ziptest.Write(t, root, "outside.zip", ziptest.Entry{Name: "100.fb2", Body: "secret"})
	ziptest.Write(t, lib, "fb2-1.zip",
		ziptest.Entry{Name: "100.fb2", Body: "<FictionBook>dune</FictionBook>"},
		ziptest.Entry{Name: "101.fb2", Body: "<FictionBook>messiah</FictionBook>"},
	)
	repo := newTestRepository(t, estest.NewServer(t), NewLocalStore(lib))

	tests := []struct {
		name      string
		container string
		file      string
		want      string
		notFound  bool
	}{
		{"entry", "fb2-1.zip", "101.fb2", "<FictionBook>messiah</FictionBook>", false},
		{"missing entry", "fb2-1.zip", "102.fb2", "", true},
		{"missing container", "fb2-2.zip", "100.fb2", "", true},
		{"escaping container", "../outside.zip", "100.fb2", "", true},
		{"empty container", "", "100.fb2", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := repo.UnpackBook(context.Background(), tt.container, tt.file, &buf)
			if tt.notFound {
				if !errors.Is(err, ErrRecordNotFound) {
					t.Errorf("expected ErrRecordNotFound; got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("expected %q; got %q", tt.want, buf.String())
			}
		})
	}
}

func TestUnpackBookCorruptContainer(t *testing.T) {
	lib := t.TempDir()
	repo := newTestRepository(t, estest.NewServer(t), NewLocalStore(lib))

	if err := os.WriteFile(filepath.Join(lib, "bad.zip"), []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := repo.UnpackBook(context.Background(), "bad.zip", "1.fb2", &bytes.Buffer{})
	if err == nil || errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected a format error; got %v", err)
	}
}

func TestS3Key(t *testing.T) {
	s := &S3Store{prefix: "library"}
	if got := s.Key("../fb2-1.zip"); got != "library/fb2-1.zip" {
		t.Errorf("unexpected key %q", got)
	}
	s.prefix = ""
	if got := s.Key("fb2-1.zip"); got != "fb2-1.zip" {
		t.Errorf("unexpected key %q", got)
	}
}
