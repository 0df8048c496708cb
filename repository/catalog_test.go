package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/emzola/flibooks/config"
	"github.com/emzola/flibooks/internal/estest"
	"github.com/emzola/flibooks/internal/extract"
	"github.com/emzola/flibooks/internal/query"
)

func newTestRepository(t *testing.T, srv *estest.Server, store ContainerStore) *repository {
	t.Helper()
	var cfg config.Config
	cfg.Elastic.Index = "flibooks"
	return New(cfg, srv.Client(t), store)
}

func TestSearch(t *testing.T) {
	srv := estest.NewServer(t)
	srv.Add(t, "a1", map[string]any{"title": "Dune Messiah", "del": "0", "lang": "en"})
	srv.Add(t, "a2", map[string]any{"title": "Solaris", "del": "0", "lang": "pl"})
	repo := newTestRepository(t, srv, nil)

	raw, err := repo.Search(context.Background(), query.Languages())
	if err != nil {
		t.Fatal(err)
	}
	buckets, err := extract.Extract(raw, extract.LanguageBuckets)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(buckets), `"en"`) || !strings.Contains(string(buckets), `"pl"`) {
		t.Errorf("unexpected buckets %s", buckets)
	}
	if len(srv.Searches()) != 1 {
		t.Errorf("expected 1 search; got %d", len(srv.Searches()))
	}
}

func TestGetDocument(t *testing.T) {
	srv := estest.NewServer(t)
	srv.Add(t, "a1", map[string]any{"title": "Dune"})
	repo := newTestRepository(t, srv, nil)

	t.Run("found", func(t *testing.T) {
		raw, err := repo.GetDocument(context.Background(), "a1")
		if err != nil {
			t.Fatal(err)
		}
		src, err := extract.Extract(raw, extract.Source)
		if err != nil {
			t.Fatal(err)
		}
		if string(src) != `{"title":"Dune"}` {
			t.Errorf("unexpected source %s", src)
		}
	})
	t.Run("missing", func(t *testing.T) {
		_, err := repo.GetDocument(context.Background(), "nope")
		if !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound; got %v", err)
		}
	})
	t.Run("empty id", func(t *testing.T) {
		_, err := repo.GetDocument(context.Background(), "")
		if !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound; got %v", err)
		}
	})
}

func TestBulk(t *testing.T) {
	srv := estest.NewServer(t)
	srv.Reject = func(id string, doc map[string]any) string {
		if doc["title"] == "bad" {
			return "failed to parse field [ser_no]"
		}
		return ""
	}
	repo := newTestRepository(t, srv, nil)

	body := strings.Join([]string{
		`{"index":{"_index":"flibooks","_id":"1"}}`,
		`{"title":"good"}`,
		`{"index":{"_index":"flibooks","_id":"2"}}`,
		`{"title":"bad"}`,
		"",
	}, "\n")
	res, err := repo.Bulk(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if res.Items != 2 || len(res.Failed) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	f := res.Failed[0]
	if f.ID != "2" || f.Status != 400 || f.Type != "document_parsing_exception" {
		t.Errorf("unexpected failure %+v", f)
	}
	if len(srv.Docs()) != 1 {
		t.Errorf("expected 1 stored doc; got %d", len(srv.Docs()))
	}
}

func TestSearchBackendError(t *testing.T) {
	srv := estest.NewServer(t)
	repo := newTestRepository(t, srv, nil)

	_, err := repo.Search(context.Background(), map[string]any{"query": map[string]any{"fuzzy": map[string]any{}}})
	if err == nil || errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected backend error; got %v", err)
	}
	if !strings.Contains(err.Error(), "query_shard_exception") {
		t.Errorf("expected backend reason in error; got %v", err)
	}
}

func TestPing(t *testing.T) {
	srv := estest.NewServer(t)
	repo := newTestRepository(t, srv, nil)
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
}
