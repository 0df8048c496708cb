package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emzola/flibooks/data"
	"github.com/emzola/flibooks/data/dto"
	"github.com/emzola/flibooks/internal/extract"
	"github.com/emzola/flibooks/internal/jsonlog"
	"github.com/emzola/flibooks/internal/metrics"
	"github.com/emzola/flibooks/internal/query"
	"github.com/emzola/flibooks/internal/validator"
	"github.com/jellydator/ttlcache/v3"
)

type search interface {
	SearchAuthors(ctx context.Context, req dto.AuthorRequest) (json.RawMessage, error)
	AuthorBooks(ctx context.Context, req dto.SearchRequest) (json.RawMessage, error)
	SearchTitles(ctx context.Context, req dto.SearchRequest) (json.RawMessage, error)
	SearchSeries(ctx context.Context, req dto.SearchRequest) (json.RawMessage, error)
	ListLanguages(ctx context.Context) (json.RawMessage, error)
	GetBook(ctx context.Context, id string) (json.RawMessage, error)
}

// SearchAuthors service returns the author name buckets matching the request.
func (s *service) SearchAuthors(ctx context.Context, req dto.AuthorRequest) (json.RawMessage, error) {
	v := validator.New()
	if dto.ValidateAuthorRequest(v, req); !v.Valid() {
		return nil, s.failedValidation(v.Errors)
	}
	return s.query(ctx, "authors", query.Authors(req), extract.AuthorBuckets)
}

// AuthorBooks service returns the books of authors whose name starts with the requested phrase.
func (s *service) AuthorBooks(ctx context.Context, req dto.SearchRequest) (json.RawMessage, error) {
	return s.searchBooks(ctx, req, query.AuthorPrefix)
}

// SearchTitles service returns the books matching title and author tokens.
func (s *service) SearchTitles(ctx context.Context, req dto.SearchRequest) (json.RawMessage, error) {
	return s.searchBooks(ctx, req, query.TitleSearch)
}

// SearchSeries service returns the books matching series and author tokens.
func (s *service) SearchSeries(ctx context.Context, req dto.SearchRequest) (json.RawMessage, error) {
	return s.searchBooks(ctx, req, query.SeriesSearch)
}

// ListLanguages service returns the language buckets of non-deleted books.
func (s *service) ListLanguages(ctx context.Context) (json.RawMessage, error) {
	return s.query(ctx, "languages", query.Languages(), extract.LanguageBuckets)
}

// GetBook service returns the stored document of a book.
func (s *service) GetBook(ctx context.Context, id string) (json.RawMessage, error) {
	if s.cache != nil {
		if item := s.cache.Get(id); item != nil {
			return item.Value(), nil
		}
	}
	metrics.BackendQueries.WithLabelValues("get").Inc()
	raw, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	doc, err := extract.Extract(raw, extract.Source)
	if err != nil {
		return nil, translate(err)
	}
	if s.cache != nil {
		s.cache.Set(id, doc, ttlcache.DefaultTTL)
	}
	return doc, nil
}

// book resolves an id to its decoded catalog record.
func (s *service) book(ctx context.Context, id string) (*data.Book, error) {
	doc, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	var book data.Book
	if err := json.Unmarshal(doc, &book); err != nil {
		return nil, fmt.Errorf("decode book %s: %w", id, err)
	}
	return &book, nil
}

func (s *service) searchBooks(ctx context.Context, req dto.SearchRequest, intent query.Intent) (json.RawMessage, error) {
	v := validator.New()
	if dto.ValidateSearchRequest(v, req); !v.Valid() {
		return nil, s.failedValidation(v.Errors)
	}
	return s.query(ctx, intent.String(), query.Compose(req, intent), extract.Hits)
}

// query sends q to the search backend and extracts path from the response.
func (s *service) query(ctx context.Context, name string, q query.Query, path string) (json.RawMessage, error) {
	if s.logger.Enabled(jsonlog.LevelDebug) {
		if body, err := json.Marshal(q); err == nil {
			s.logger.PrintDebug("search backend query", map[string]string{"intent": name, "query": string(body)})
		}
	}
	metrics.BackendQueries.WithLabelValues(name).Inc()
	raw, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, translate(err)
	}
	out, err := extract.Extract(raw, path)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}
