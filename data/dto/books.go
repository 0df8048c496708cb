package dto

import (
	"encoding/json"

	"github.com/emzola/flibooks/internal/validator"
)

const (
	// DefaultLimit is the result size used when a request doesn't set one.
	DefaultLimit = 10
	// MaxLimit caps the result size a client can ask for.
	MaxLimit = 1000
)

// SearchRequest defines the request body shared by the author books, title and series searches.
type SearchRequest struct {
	Title          string   `json:"title"`
	Author         string   `json:"author"`
	Series         string   `json:"series"`
	Limit          int      `json:"limit"`
	IncludeDeleted bool     `json:"deleted"`
	Languages      []string `json:"langs"`
}

// UnmarshalJSON applies the field defaults before decoding so that omitted
// fields keep them.
func (s *SearchRequest) UnmarshalJSON(b []byte) error {
	type plain SearchRequest
	p := plain{Limit: DefaultLimit}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = SearchRequest(p)
	return nil
}

// ValidateSearchRequest checks the values of a search request.
func ValidateSearchRequest(v *validator.Validator, s SearchRequest) {
	v.Check(s.Limit > 0, "limit", "must be greater than zero")
	v.Check(s.Limit <= MaxLimit, "limit", "must be a maximum of 1000")
	v.Check(validator.NoBlanks(s.Languages), "langs", "must not contain blank values")
}

// AuthorRequest defines the request body for the author name search.
type AuthorRequest struct {
	Author string `json:"author"`
	Limit  int    `json:"limit"`
}

// UnmarshalJSON applies the field defaults before decoding.
func (a *AuthorRequest) UnmarshalJSON(b []byte) error {
	type plain AuthorRequest
	p := plain{Limit: DefaultLimit}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*a = AuthorRequest(p)
	return nil
}

// ValidateAuthorRequest checks the values of an author search request.
func ValidateAuthorRequest(v *validator.Validator, a AuthorRequest) {
	v.Check(validator.NotBlank(a.Author), "author", "must be provided")
	v.Check(a.Limit > 0, "limit", "must be greater than zero")
	v.Check(a.Limit <= MaxLimit, "limit", "must be a maximum of 1000")
}

// DownloadRequest defines the request body for bundling several books into one archive.
type DownloadRequest struct {
	IDs []string `json:"ids"`
}

// ValidateDownloadRequest checks the values of a bundled download request.
func ValidateDownloadRequest(v *validator.Validator, d DownloadRequest) {
	v.Check(len(d.IDs) > 0, "ids", "must contain at least 1 id")
	v.Check(len(d.IDs) <= MaxLimit, "ids", "must not contain more than 1000 ids")
	v.Check(validator.NoBlanks(d.IDs), "ids", "must not contain blank values")
}
