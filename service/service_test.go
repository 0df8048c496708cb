package service

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/emzola/flibooks/config"
	"github.com/emzola/flibooks/data"
	"github.com/emzola/flibooks/internal/estest"
	"github.com/emzola/flibooks/internal/inpx"
	"github.com/emzola/flibooks/internal/jsonlog"
	"github.com/emzola/flibooks/repository"
)

type testEnv struct {
	svc  *service
	srv  *estest.Server
	lib  string
	tmp  string
	logs *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	var cfg config.Config
	cfg.Elastic.Index = "flibooks"
	cfg.Ingest.BatchSize = 2
	cfg.Cache.TTL = time.Minute
	cfg.Cache.Capacity = 100
	cfg.Containers.TempDir = t.TempDir()
	cfg.Containers.LibraryDir = t.TempDir()

	srv := estest.NewServer(t)
	repo := repository.New(cfg, srv.Client(t), repository.NewLocalStore(cfg.Containers.LibraryDir))
	logs := &bytes.Buffer{}
	svc := New(cfg, jsonlog.New(logs, jsonlog.LevelDebug), repo, NewCache(cfg))
	svc.now = func() time.Time { return time.Date(2024, 1, 31, 15, 45, 1, 0, time.UTC) }
	return &testEnv{svc: svc, srv: srv, lib: cfg.Containers.LibraryDir, tmp: cfg.Containers.TempDir, logs: logs}
}

// record builds an index line for a book.
func record(b data.Book) string {
	return strings.Join([]string{
		strings.Join(b.Authors, ":") + ":",
		strings.Join(b.Genres, ":") + ":",
		b.Title,
		b.Series,
		strconv.Itoa(b.SerNo),
		b.File,
		strconv.Itoa(b.FileSize),
		b.LibID,
		b.Deleted,
		b.Extension,
		b.Date,
		b.Language,
	}, inpx.FieldSeparator) + "\n"
}

var (
	dune = data.Book{
		Title: "Dune", Authors: []string{"Herbert,Frank,"}, Genres: []string{"sf"},
		Series: "Dune Chronicles", SerNo: 1, File: "100", FileSize: 10, LibID: "100",
		Deleted: "0", Extension: "fb2", Date: "2009-01-01", Language: "en", Container: "fb2-1.zip",
	}
	messiah = data.Book{
		Title: "Dune Messiah", Authors: []string{"Herbert,Frank,"}, Genres: []string{"sf"},
		Series: "Dune Chronicles", SerNo: 2, File: "101", FileSize: 12, LibID: "101",
		Deleted: "0", Extension: "fb2", Date: "2009-01-02", Language: "en", Container: "fb2-1.zip",
	}
	solaris = data.Book{
		Title: "Solaris", Authors: []string{"Lem,Stanisław,"}, Genres: []string{"sf"},
		File: "200", FileSize: 8, LibID: "200",
		Deleted: "1", Extension: "fb2", Date: "2010-05-05", Language: "pl", Container: "fb2-2.zip",
	}
)

func TestHealthcheck(t *testing.T) {
	env := newTestEnv(t)
	if err := env.svc.Healthcheck(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestFailedValidation(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.failedValidation(map[string]string{"limit": "must be greater than zero", "author": "must be provided"})
	want := `failed validation: "author" must be provided; "limit" must be greater than zero`
	if err.Error() != want {
		t.Errorf("expected %q; got %q", want, err.Error())
	}
}
