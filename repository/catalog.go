package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
)

type catalog interface {
	Search(ctx context.Context, query any) ([]byte, error)
	GetDocument(ctx context.Context, id string) ([]byte, error)
	Bulk(ctx context.Context, body io.Reader) (*BulkResult, error)
	Ping(ctx context.Context) error
	Index() string
	DocType() string
}

// BulkResult summarizes a bulk response.
type BulkResult struct {
	Items  int
	Failed []BulkFailure
}

// BulkFailure is a document the backend refused.
type BulkFailure struct {
	ID     string
	Status int
	Type   string
	Reason string
}

func (r *repository) Index() string   { return r.index }
func (r *repository) DocType() string { return r.docType }

// Search runs a query document against the catalog index and returns the raw response.
func (r *repository) Search(ctx context.Context, query any) ([]byte, error) {
	res, err := r.es.Search(
		r.es.Search.WithContext(ctx),
		r.es.Search.WithIndex(r.index),
		r.es.Search.WithBody(esutil.NewJSONReader(query)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return readResponse("search", res)
}

// GetDocument fetches a single document by its id. The raw response carries
// the document under _source.
func (r *repository) GetDocument(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, ErrRecordNotFound
	}
	res, err := r.es.Get(r.index, id, r.es.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return readResponse("get", res)
}

// Bulk submits newline framed index operations. Per-document failures are
// reported in the result; only transport and request level failures are errors.
func (r *repository) Bulk(ctx context.Context, body io.Reader) (*BulkResult, error) {
	res, err := r.es.Bulk(body, r.es.Bulk.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("bulk: %w", err)
	}
	raw, err := readResponse("bulk", res)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("bulk: decode response: %w", err)
	}

	result := &BulkResult{Items: len(resp.Items)}
	if !resp.Errors {
		return result, nil
	}
	for _, item := range resp.Items {
		for _, op := range item {
			if op.Error == nil {
				continue
			}
			result.Failed = append(result.Failed, BulkFailure{
				ID:     op.ID,
				Status: op.Status,
				Type:   op.Error.Type,
				Reason: op.Error.Reason,
			})
		}
	}
	return result, nil
}

// Ping checks that the search backend answers.
func (r *repository) Ping(ctx context.Context) error {
	res, err := r.es.Ping(r.es.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ping: %s", res.Status())
	}
	return nil
}

// readResponse drains and closes the response body. A 404 becomes
// ErrRecordNotFound; other error statuses carry the backend's reason.
func readResponse(op string, res *esapi.Response) ([]byte, error) {
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}
	if !res.IsError() {
		return body, nil
	}
	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", op, ErrRecordNotFound)
	}
	var e struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Type != "" {
		return nil, fmt.Errorf("%s: %s: %s: %s", op, res.Status(), e.Error.Type, e.Error.Reason)
	}
	return nil, fmt.Errorf("%s: %s", op, res.Status())
}
