// Package extract pulls a sub-document out of a raw search backend response
// with a JSONPath expression.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Paths used against search backend responses.
const (
	Hits            = "$.hits.hits"
	LanguageBuckets = "$.aggregations.lang.buckets"
	AuthorBuckets   = "$.aggregations.author.buckets"
	Source          = "$._source"
)

// ErrNoData is returned when a path selects nothing worth returning.
var ErrNoData = errors.New("no matched data found")

// Extract applies path to doc and returns the first match re-encoded as JSON.
// A malformed path, no match, a null match and an empty array or object all
// yield ErrNoData. Only a document that is not JSON yields another error.
func Extract(doc []byte, path string) (json.RawMessage, error) {
	data, err := oj.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("%w: bad path %q: %v", ErrNoData, path, err)
	}

	found := expr.First(data)
	if empty(found) {
		return nil, ErrNoData
	}

	out, err := json.Marshal(found)
	if err != nil {
		return nil, fmt.Errorf("encode match: %w", err)
	}
	return out, nil
}

func empty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}
