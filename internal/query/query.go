// Package query builds the search backend request documents. Filters are kept
// as typed values and only turned into the wire format by MarshalJSON.
package query

import (
	"encoding/json"
	"strings"

	"github.com/emzola/flibooks/data/dto"
)

// Intent selects how a SearchRequest is translated into filters and sort order.
type Intent int

const (
	AuthorPrefix Intent = iota
	TitleSearch
	SeriesSearch
)

func (i Intent) String() string {
	switch i {
	case AuthorPrefix:
		return "author-prefix"
	case TitleSearch:
		return "title-search"
	case SeriesSearch:
		return "series-search"
	}
	return "unknown"
}

// Document fields queried by the composer.
const (
	FieldAuthors         = "authors"
	FieldTitle           = "title"
	FieldSeries          = "series"
	FieldSerNo           = "ser_no"
	FieldDeleted         = "del"
	FieldLang            = "lang"
	FieldAuthorsKeyword  = "authors.keyword"
	FieldTitleKeyword    = "title.keyword"
	FieldSeriesKeyword   = "series.keyword"
	FieldLanguageKeyword = "lang.keyword"
)

// Aggregation names, addressed by the extraction paths.
const (
	AggLanguages = "lang"
	AggAuthors   = "author"
)

// MaxLanguages bounds the number of language buckets returned.
const MaxLanguages = 100

// Filter is a single clause of a bool query.
type Filter interface {
	json.Marshaler
	filter()
}

// Terms matches documents whose field holds any of the values.
type Terms struct {
	Field  string
	Values []any
}

func (Terms) filter() {}

func (t Terms) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"terms": map[string]any{t.Field: t.Values}})
}

// Wildcard matches a field against a pattern such as "*dune*".
type Wildcard struct {
	Field   string
	Pattern string
}

func (Wildcard) filter() {}

func (w Wildcard) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"wildcard": map[string]string{w.Field: w.Pattern}})
}

// PhrasePrefix matches a phrase where the last word may be incomplete.
type PhrasePrefix struct {
	Field string
	Text  string
}

func (PhrasePrefix) filter() {}

func (p PhrasePrefix) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"match_phrase_prefix": map[string]string{p.Field: p.Text}})
}

// Match is a full text match on a single field.
type Match struct {
	Field string
	Value string
}

func (Match) filter() {}

func (m Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"match": map[string]string{m.Field: m.Value}})
}

// Bool combines filters with an implicit AND.
type Bool struct {
	Filters []Filter
}

func (Bool) filter() {}

func (b Bool) MarshalJSON() ([]byte, error) {
	filters := b.Filters
	if filters == nil {
		filters = []Filter{}
	}
	return json.Marshal(map[string]any{"bool": map[string]any{"filter": filters}})
}

// TermsAgg collects the distinct values of a field into buckets.
type TermsAgg struct {
	Field   string
	Include string
	Size    int
}

func (a TermsAgg) MarshalJSON() ([]byte, error) {
	terms := map[string]any{"field": a.Field, "size": a.Size}
	if a.Include != "" {
		terms["include"] = a.Include
	}
	return json.Marshal(map[string]any{"terms": terms})
}

// Query is the document sent to the search endpoint.
type Query struct {
	Size  int                 `json:"size"`
	Sort  []string            `json:"sort,omitempty"`
	Query Filter              `json:"query,omitempty"`
	Aggs  map[string]TermsAgg `json:"aggs,omitempty"`
}

// Compose translates a search request into a query for the given intent.
func Compose(req dto.SearchRequest, intent Intent) Query {
	filters := []Filter{DeletedFilter(req.IncludeDeleted)}

	switch intent {
	case AuthorPrefix:
		filters = append(filters, PhrasePrefix{Field: FieldAuthors, Text: req.Author})
	case TitleSearch:
		filters = append(filters, wildcards(FieldAuthors, req.Author)...)
		filters = append(filters, wildcards(FieldTitle, req.Title)...)
	case SeriesSearch:
		filters = append(filters, wildcards(FieldAuthors, req.Author)...)
		filters = append(filters, wildcards(FieldSeries, req.Series)...)
	}

	if len(req.Languages) > 0 {
		langs := make([]any, len(req.Languages))
		for i, l := range req.Languages {
			langs[i] = l
		}
		filters = append(filters, Terms{Field: FieldLang, Values: langs})
	}

	return Query{
		Size:  req.Limit,
		Sort:  sortFor(intent),
		Query: Bool{Filters: filters},
	}
}

// DeletedFilter admits non-deleted documents, plus deleted ones when asked to.
// The value set is always {0, 0} or {0, 1}.
func DeletedFilter(includeDeleted bool) Terms {
	del := 0
	if includeDeleted {
		del = 1
	}
	return Terms{Field: FieldDeleted, Values: []any{0, del}}
}

// Languages returns the aggregation query listing languages of non-deleted books.
func Languages() Query {
	return Query{
		Size:  0,
		Query: Match{Field: FieldDeleted, Value: "0"},
		Aggs: map[string]TermsAgg{
			AggLanguages: {Field: FieldLanguageKeyword, Include: ".*", Size: MaxLanguages},
		},
	}
}

// Authors returns the aggregation query listing author names that contain
// every token of the request, in order.
func Authors(req dto.AuthorRequest) Query {
	return Query{
		Size: 0,
		Aggs: map[string]TermsAgg{
			AggAuthors: {Field: FieldAuthorsKeyword, Include: AuthorPattern(req.Author), Size: req.Limit},
		},
	}
}

func sortFor(intent Intent) []string {
	if intent == TitleSearch {
		return []string{FieldTitleKeyword}
	}
	return []string{FieldSeriesKeyword, FieldSerNo, FieldTitleKeyword}
}

func wildcards(field, text string) []Filter {
	var out []Filter
	for _, tok := range strings.Fields(text) {
		out = append(out, Wildcard{Field: field, Pattern: "*" + strings.ToLower(tok) + "*"})
	}
	return out
}
