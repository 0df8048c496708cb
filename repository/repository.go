package repository

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/emzola/flibooks/config"
)

type Repository interface {
	catalog
	containers
}

// repository defines the app's repository layer: the search backend holding
// the catalog and the store holding the container archives.
type repository struct {
	es      *elasticsearch.Client
	index   string
	docType string
	store   ContainerStore
}

// New creates a new instance of Repository.
func New(cfg config.Config, es *elasticsearch.Client, store ContainerStore) *repository {
	return &repository{
		es:      es,
		index:   cfg.Elastic.Index,
		docType: cfg.Elastic.DocType,
		store:   store,
	}
}
