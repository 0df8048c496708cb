package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/emzola/flibooks/config"
	"github.com/emzola/flibooks/internal/jsonlog"
	"github.com/emzola/flibooks/repository"
	"github.com/jellydator/ttlcache/v3"
)

type Service interface {
	search
	archives
	ingest
	Healthcheck(ctx context.Context) error
}

// service defines the service layer. Book documents are never mutated after
// ingestion, so lookups by id are cached.
type service struct {
	config config.Config
	logger *jsonlog.Logger
	repo   repository.Repository
	cache  *ttlcache.Cache[string, json.RawMessage]
	now    func() time.Time
}

// New creates a new instance of Service. A nil cache disables caching.
func New(cfg config.Config, logger *jsonlog.Logger, repo repository.Repository, cache *ttlcache.Cache[string, json.RawMessage]) *service {
	return &service{
		config: cfg,
		logger: logger,
		repo:   repo,
		cache:  cache,
		now:    time.Now,
	}
}

// NewCache creates the book document cache sized by the configuration.
func NewCache(cfg config.Config) *ttlcache.Cache[string, json.RawMessage] {
	return ttlcache.New(
		ttlcache.WithTTL[string, json.RawMessage](cfg.Cache.TTL),
		ttlcache.WithCapacity[string, json.RawMessage](cfg.Cache.Capacity),
	)
}

// Healthcheck reports whether the search backend answers.
func (s *service) Healthcheck(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
