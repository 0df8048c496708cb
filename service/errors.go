package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/emzola/flibooks/internal/extract"
	"github.com/emzola/flibooks/repository"
)

var (
	ErrFailedValidation = errors.New("failed validation")
	ErrRecordNotFound   = errors.New("record not found")
)

// failedValidation folds a validation error map into a single error wrapping
// ErrFailedValidation, e.g. `failed validation: "limit" must be greater than zero`.
func (s *service) failedValidation(errorMap map[string]string) error {
	keys := make([]string, 0, len(errorMap))
	for k := range errorMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%q %s", k, errorMap[k]))
	}
	return fmt.Errorf("%w: %s", ErrFailedValidation, strings.Join(msgs, "; "))
}

// translate maps lower layer errors onto the service sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrRecordNotFound), errors.Is(err, extract.ErrNoData):
		return fmt.Errorf("%w: %v", ErrRecordNotFound, err)
	default:
		return err
	}
}
