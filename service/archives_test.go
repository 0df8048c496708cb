package service

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/emzola/flibooks/internal/ziptest"
	"github.com/klauspost/compress/zip"
)

func seedContainers(t *testing.T, env *testEnv) {
	t.Helper()
	seed(t, env)
	ziptest.Write(t, env.lib, "fb2-1.zip",
		ziptest.Entry{Name: "100.fb2", Body: `<?xml version="1.0" encoding="utf-8"?><FictionBook>dune</FictionBook>`},
		ziptest.Entry{Name: "101.fb2", Body: `<?xml version="1.0" encoding="utf-8"?><FictionBook>messiah</FictionBook>`},
	)
}

func assertNoLeftovers(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected temporary files to be removed; found %d entries", len(entries))
	}
}

func TestDownloadBook(t *testing.T) {
	env := newTestEnv(t)
	seedContainers(t, env)

	d, err := env.svc.DownloadBook(context.Background(), "messiah")
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "Herbert,Frank - [2] Dune Messiah.fb2" {
		t.Errorf("unexpected name %q", d.Name)
	}
	if !strings.Contains(d.ContentType, "xml") {
		t.Errorf("expected an xml content type; got %q", d.ContentType)
	}
	body, err := io.ReadAll(d.File)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "<FictionBook>messiah</FictionBook>") {
		t.Errorf("unexpected content %q", body)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	assertNoLeftovers(t, env.tmp)
}

func TestDownloadBookNotFound(t *testing.T) {
	env := newTestEnv(t)
	seedContainers(t, env)
	env.srv.Add(t, "orphan", map[string]any{"title": "Orphan", "file": "999", "ext": "fb2", "container": "fb2-1.zip"})

	tests := []struct {
		name string
		id   string
	}{
		{"unknown id", "nope"},
		{"missing container", "solaris"},
		{"missing entry", "orphan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.DownloadBook(context.Background(), tt.id)
			if !errors.Is(err, ErrRecordNotFound) {
				t.Errorf("expected ErrRecordNotFound; got %v", err)
			}
			assertNoLeftovers(t, env.tmp)
		})
	}
}

func zipMembers(t *testing.T, d *Download) map[string]*zip.File {
	t.Helper()
	info, err := d.File.Stat()
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(d.File, info.Size())
	if err != nil {
		t.Fatal(err)
	}
	members := make(map[string]*zip.File)
	for _, f := range zr.File {
		members[f.Name] = f
	}
	return members
}

func TestDownloadArchive(t *testing.T) {
	env := newTestEnv(t)
	seedContainers(t, env)

	d, err := env.svc.DownloadArchive(context.Background(), []string{"dune", "solaris", "messiah"})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if d.Name != "flibooks-20240131-154501.zip" || d.ContentType != ArchiveContentType {
		t.Errorf("unexpected archive %q %q", d.Name, d.ContentType)
	}
	members := zipMembers(t, d)
	if len(members) != 2 {
		t.Fatalf("expected 2 members; got %d", len(members))
	}
	f, ok := members["Herbert,Frank - [1] Dune.fb2"]
	if !ok {
		t.Fatalf("missing member; got %v", members)
	}
	if f.Method != zip.Deflate || f.Mode().Perm() != 0o644 {
		t.Errorf("unexpected method %d mode %v", f.Method, f.Mode())
	}
	if !strings.Contains(env.logs.String(), "solaris") {
		t.Error("expected the unresolved id to be logged")
	}

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	assertNoLeftovers(t, env.tmp)
}

func TestDownloadArchiveDuplicateNames(t *testing.T) {
	env := newTestEnv(t)
	seedContainers(t, env)

	d, err := env.svc.DownloadArchive(context.Background(), []string{"dune", "dune", "dune"})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	var names []string
	for name := range zipMembers(t, d) {
		names = append(names, name)
	}
	sort.Strings(names)
	want := []string{
		"Herbert,Frank - [1] Dune (2).fb2",
		"Herbert,Frank - [1] Dune (3).fb2",
		"Herbert,Frank - [1] Dune.fb2",
	}
	if strings.Join(names, "|") != strings.Join(want, "|") {
		t.Errorf("expected %v; got %v", want, names)
	}
}

func TestDownloadArchiveErrors(t *testing.T) {
	env := newTestEnv(t)
	seedContainers(t, env)

	_, err := env.svc.DownloadArchive(context.Background(), []string{"solaris", "nope"})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound; got %v", err)
	}
	assertNoLeftovers(t, env.tmp)

	_, err = env.svc.DownloadArchive(context.Background(), nil)
	if !errors.Is(err, ErrFailedValidation) {
		t.Errorf("expected ErrFailedValidation; got %v", err)
	}
}

func TestWriteZip(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sub", "empty"), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a.fb2"), []byte("a"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "b.fb2"), []byte("b"), 0o600); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "out.zip")
	f, err := os.Create(out)
	if err != nil {
		t.Fatal(err)
	}
	if err := writeZip(root, f); err != nil {
		t.Fatal(err)
	}
	f.Close()

	zr, err := zip.OpenReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	modes := map[string]fs.FileMode{}
	for _, f := range zr.File {
		modes[f.Name] = f.Mode()
	}
	tests := []struct {
		name string
		mode fs.FileMode
	}{
		{"a.fb2", 0o644},
		{"sub/", fs.ModeDir | 0o755},
		{"sub/b.fb2", 0o644},
		{"sub/empty/", fs.ModeDir | 0o755},
	}
	if len(modes) != len(tests) {
		t.Errorf("expected %d members; got %v", len(tests), modes)
	}
	for _, tt := range tests {
		if got, ok := modes[tt.name]; !ok || got != tt.mode {
			t.Errorf("%s: expected mode %v; got %v (present %v)", tt.name, tt.mode, got, ok)
		}
	}
}

func TestNames(t *testing.T) {
	taken := map[string]bool{"a.fb2": true, "a (2).fb2": true}
	if got := uniqueName("a.fb2", taken); got != "a (3).fb2" {
		t.Errorf("unexpected unique name %q", got)
	}
	if got := uniqueName("b.fb2", taken); got != "b.fb2" {
		t.Errorf("unexpected unique name %q", got)
	}
	if got := safeName("AC/DC - Back\\Black.fb2"); got != "AC_DC - Back_Black.fb2" {
		t.Errorf("unexpected safe name %q", got)
	}
	long := safeName(strings.Repeat("Ж", 200) + ".fb2")
	if len(long) > maxNameBytes || !strings.HasSuffix(long, "Ж.fb2") {
		t.Errorf("unexpected long name %q (%d bytes)", long, len(long))
	}
}
