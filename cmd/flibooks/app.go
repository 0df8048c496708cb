package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/emzola/flibooks/clients"
	"github.com/emzola/flibooks/config"
	"github.com/emzola/flibooks/handler"
	"github.com/emzola/flibooks/internal/jsonlog"
	"github.com/emzola/flibooks/repository"
	"github.com/emzola/flibooks/repository/elastic"
	"github.com/emzola/flibooks/service"
	"github.com/jellydator/ttlcache/v3"
	"github.com/urfave/cli/v3"
)

// app defines the application's layers and shared resources.
type app struct {
	config  config.Config
	logger  *jsonlog.Logger
	cache   *ttlcache.Cache[string, json.RawMessage]
	repo    repository.Repository
	service service.Service
	handler *handler.Handler
}

// newApp wires every layer from the configuration named by the global flags.
func newApp(ctx context.Context, c *cli.Command) (*app, error) {
	cfg, err := config.Decode(c.String("config"))
	if err != nil {
		return nil, err
	}
	level, err := jsonlog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if c.Bool("debug") {
		level = jsonlog.LevelDebug
	}
	logger := jsonlog.New(os.Stdout, level)

	// Initialize search backend connection
	es, err := elastic.OpenConn(cfg)
	if err != nil {
		return nil, err
	}
	logger.PrintInfo("search backend connection established", map[string]string{
		"url":   cfg.Elastic.URL,
		"index": cfg.Elastic.Index,
	})

	store, err := newContainerStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cache := service.NewCache(cfg)
	go cache.Start()

	// Application layers
	repo := repository.New(cfg, es, store)
	svc := service.New(cfg, logger, repo, cache)
	h := handler.New(cfg, logger, svc)

	return &app{
		config:  cfg,
		logger:  logger,
		cache:   cache,
		repo:    repo,
		service: svc,
		handler: h,
	}, nil
}

func newContainerStore(ctx context.Context, cfg config.Config) (repository.ContainerStore, error) {
	if cfg.Containers.Source == config.SourceS3 {
		client, err := clients.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return repository.NewS3Store(client, cfg.S3.Bucket, cfg.S3.Prefix, cfg.Containers.TempDir), nil
	}
	return repository.NewLocalStore(cfg.Containers.LibraryDir), nil
}

func (a *app) close() {
	a.cache.Stop()
}
