package elastic

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/emzola/flibooks/clients"
	"github.com/emzola/flibooks/config"
)

// OpenConn creates the search backend client and checks that the cluster
// answers. The client is safe for concurrent use and shared by the process.
func OpenConn(cfg config.Config) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Elastic.URL},
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
		Transport: clients.NewTransport(cfg),
	})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := es.Ping(es.Ping.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("ping %s: %s", cfg.Elastic.URL, res.Status())
	}
	return es, nil
}
