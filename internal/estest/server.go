// Package estest provides an in-memory search backend for tests. It speaks
// enough of the Elasticsearch REST API for the catalog: bulk indexing, get by
// id, bool filter searches with field sorts and terms aggregations.
package estest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
)

// Server is a fake search backend holding documents in insertion order.
type Server struct {
	*httptest.Server

	// Reject, when set, is asked about every bulk document; a non-empty
	// reason fails that document.
	Reject func(id string, doc map[string]any) string

	mu       sync.Mutex
	ids      []string
	docs     map[string]map[string]any
	searches []map[string]any
	bulks    int
}

// NewServer starts a fake backend closed at the end of the test.
func NewServer(t testing.TB) *Server {
	s := &Server{docs: make(map[string]map[string]any)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	t.Cleanup(s.Close)
	return s
}

// Client returns a client talking to the fake backend.
func (s *Server) Client(t testing.TB) *elasticsearch.Client {
	t.Helper()
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{s.URL}})
	if err != nil {
		t.Fatal(err)
	}
	return es
}

// Add stores doc under id, re-encoding it through JSON.
func (s *Server) Add(t testing.TB, id string, doc any) {
	t.Helper()
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(id, m)
}

// Docs returns the stored documents in insertion order.
func (s *Server) Docs() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.docs[id])
	}
	return out
}

// IDs returns the stored document ids in insertion order.
func (s *Server) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

// Searches returns the decoded bodies of every search request received.
func (s *Server) Searches() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.searches...)
}

// Bulks returns the number of bulk requests received.
func (s *Server) Bulks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bulks
}

func (s *Server) put(id string, doc map[string]any) {
	if _, ok := s.docs[id]; !ok {
		s.ids = append(s.ids, id)
	}
	s.docs[id] = doc
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/":
		writeJSON(w, http.StatusOK, map[string]any{"version": map[string]any{"number": "8.15.0"}})
	case parts[len(parts)-1] == "_bulk":
		s.bulk(w, r)
	case len(parts) == 2 && parts[1] == "_search":
		s.search(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodGet:
		s.get(w, parts[0], parts[2])
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("illegal_argument_exception", "unsupported "+r.Method+" "+r.URL.Path))
	}
}

func (s *Server) get(w http.ResponseWriter, index, id string) {
	s.mu.Lock()
	doc, ok := s.docs[id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"_index": index, "_id": id, "found": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"_index": index, "_id": id, "found": true, "_source": doc})
}

func (s *Server) bulk(w http.ResponseWriter, r *http.Request) {
	sc := bufio.NewScanner(r.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bulks++

	var items []map[string]any
	hasErrors := false
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var header map[string]struct {
			Index string `json:"_index"`
			ID    string `json:"_id"`
		}
		if err := json.Unmarshal(sc.Bytes(), &header); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("parse_exception", err.Error()))
			return
		}
		if !sc.Scan() {
			writeJSON(w, http.StatusBadRequest, errorBody("parse_exception", "missing document line"))
			return
		}
		var doc map[string]any
		if err := json.Unmarshal(sc.Bytes(), &doc); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("parse_exception", err.Error()))
			return
		}
		op := header["index"]
		if s.Reject != nil {
			if reason := s.Reject(op.ID, doc); reason != "" {
				hasErrors = true
				items = append(items, map[string]any{"index": map[string]any{
					"_id": op.ID, "status": 400,
					"error": map[string]any{"type": "document_parsing_exception", "reason": reason},
				}})
				continue
			}
		}
		s.put(op.ID, doc)
		items = append(items, map[string]any{"index": map[string]any{"_id": op.ID, "status": 201}})
	}
	if err := sc.Err(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("parse_exception", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"took": 1, "errors": hasErrors, "items": items})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, index string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("parse_exception", err.Error()))
		return
	}
	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("parse_exception", err.Error()))
		return
	}

	s.mu.Lock()
	s.searches = append(s.searches, req)
	var matched []string
	for _, id := range s.ids {
		ok, err := matches(req["query"], s.docs[id])
		if err != nil {
			s.mu.Unlock()
			writeJSON(w, http.StatusBadRequest, errorBody("query_shard_exception", err.Error()))
			return
		}
		if ok {
			matched = append(matched, id)
		}
	}
	docs := make(map[string]map[string]any, len(matched))
	for _, id := range matched {
		docs[id] = s.docs[id]
	}
	s.mu.Unlock()

	if keys, ok := req["sort"].([]any); ok {
		sort.SliceStable(matched, func(i, j int) bool {
			return less(docs[matched[i]], docs[matched[j]], keys)
		})
	}

	resp := map[string]any{"took": 1, "timed_out": false}
	size := 10
	if n, ok := req["size"].(float64); ok {
		size = int(n)
	}
	hits := []any{}
	for i, id := range matched {
		if i >= size {
			break
		}
		hits = append(hits, map[string]any{"_index": index, "_id": id, "_score": nil, "_source": docs[id]})
	}
	resp["hits"] = map[string]any{"total": map[string]any{"value": len(matched), "relation": "eq"}, "hits": hits}

	if aggs, ok := req["aggs"].(map[string]any); ok {
		out := map[string]any{}
		for name, spec := range aggs {
			buckets, err := termsAgg(spec, matched, docs)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorBody("aggregation_execution_exception", err.Error()))
				return
			}
			out[name] = map[string]any{"buckets": buckets}
		}
		resp["aggregations"] = out
	}
	writeJSON(w, http.StatusOK, resp)
}

func matches(q any, doc map[string]any) (bool, error) {
	if q == nil {
		return true, nil
	}
	clause, ok := q.(map[string]any)
	if !ok || len(clause) != 1 {
		return false, fmt.Errorf("bad clause %v", q)
	}
	for kind, body := range clause {
		args, _ := body.(map[string]any)
		switch kind {
		case "bool":
			filters, _ := args["filter"].([]any)
			for _, f := range filters {
				ok, err := matches(f, doc)
				if err != nil || !ok {
					return false, err
				}
			}
			return true, nil
		case "terms":
			for field, vals := range args {
				for _, v := range values(doc, field) {
					for _, want := range vals.([]any) {
						if fmt.Sprint(v) == fmt.Sprint(want) {
							return true, nil
						}
					}
				}
			}
			return false, nil
		case "match":
			for field, want := range args {
				for _, v := range values(doc, field) {
					if strings.EqualFold(fmt.Sprint(v), fmt.Sprint(want)) {
						return true, nil
					}
				}
			}
			return false, nil
		case "wildcard":
			for field, pattern := range args {
				re, err := wildcardRegexp(fmt.Sprint(pattern))
				if err != nil {
					return false, err
				}
				for _, v := range values(doc, field) {
					if re.MatchString(strings.ToLower(fmt.Sprint(v))) {
						return true, nil
					}
				}
			}
			return false, nil
		case "match_phrase_prefix":
			for field, text := range args {
				prefix := strings.ToLower(fmt.Sprint(text))
				for _, v := range values(doc, field) {
					if strings.Contains(strings.ToLower(fmt.Sprint(v)), prefix) {
						return true, nil
					}
				}
			}
			return false, nil
		}
		return false, fmt.Errorf("unsupported clause %q", kind)
	}
	return false, nil
}

func termsAgg(spec any, ids []string, docs map[string]map[string]any) ([]any, error) {
	terms, _ := spec.(map[string]any)["terms"].(map[string]any)
	if terms == nil {
		return nil, fmt.Errorf("unsupported aggregation %v", spec)
	}
	field := fmt.Sprint(terms["field"])
	include := ".*"
	if inc, ok := terms["include"].(string); ok {
		include = inc
	}
	re, err := regexp.Compile("^(?:" + include + ")$")
	if err != nil {
		return nil, err
	}
	size := 10
	if n, ok := terms["size"].(float64); ok {
		size = int(n)
	}

	counts := map[string]int{}
	for _, id := range ids {
		for _, v := range values(docs[id], field) {
			key := fmt.Sprint(v)
			if re.MatchString(key) {
				counts[key]++
			}
		}
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	buckets := []any{}
	for i, k := range keys {
		if i >= size {
			break
		}
		buckets = append(buckets, map[string]any{"key": k, "doc_count": counts[k]})
	}
	return buckets, nil
}

// values returns the leaf values of a field, flattening arrays. A ".keyword"
// suffix addresses the same source field.
func values(doc map[string]any, field string) []any {
	v, ok := doc[strings.TrimSuffix(field, ".keyword")]
	if !ok || v == nil {
		return nil
	}
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

func less(a, b map[string]any, keys []any) bool {
	for _, k := range keys {
		field := fmt.Sprint(k)
		va, vb := first(values(a, field)), first(values(b, field))
		if na, ok := va.(float64); ok {
			if nb, ok := vb.(float64); ok && na != nb {
				return na < nb
			}
			continue
		}
		sa, sb := fmt.Sprint(va), fmt.Sprint(vb)
		if sa != sb {
			return sa < sb
		}
	}
	return false
}

func first(vs []any) any {
	if len(vs) == 0 {
		return nil
	}
	return vs[0]
}

func wildcardRegexp(pattern string) (*regexp.Regexp, error) {
	quoted := regexp.QuoteMeta(strings.ToLower(pattern))
	quoted = strings.ReplaceAll(quoted, `\*`, ".*")
	quoted = strings.ReplaceAll(quoted, `\?`, ".")
	return regexp.Compile("^" + quoted + "$")
}

func errorBody(typ, reason string) map[string]any {
	return map[string]any{"error": map[string]any{"type": typ, "reason": reason}, "status": 400}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
