// Package inpx parses the records of INPX index files. Each line of an .inp
// file describes one book stored in the sibling .zip container.
package inpx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/emzola/flibooks/data"
)

const (
	// FieldSeparator delimits the fields of a record.
	FieldSeparator = "\x04"
	// ListSeparator delimits the entries of the authors and genres fields.
	ListSeparator = ":"
	// IndexExt is the extension of index files inside the top-level archive.
	IndexExt = ".inp"
	// ContainerExt is the extension of the archives holding the books.
	ContainerExt = ".zip"
	// NumFields is the number of positional fields a record must carry.
	NumFields = 12
)

const (
	fieldAuthors = iota
	fieldGenres
	fieldTitle
	fieldSeries
	fieldSerNo
	fieldFile
	fieldFileSize
	fieldLibID
	fieldDeleted
	fieldExt
	fieldDate
	fieldLang
)

var ErrTooFewFields = errors.New("too few fields")

// ParseRecord converts one index line into a book. Malformed numbers degrade to
// zero; only a line with fewer than NumFields fields is rejected.
func ParseRecord(line string) (*data.Book, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), FieldSeparator)
	if len(fields) < NumFields {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrTooFewFields, len(fields), NumFields)
	}
	return &data.Book{
		Title:     fields[fieldTitle],
		Authors:   splitList(fields[fieldAuthors]),
		Genres:    splitList(fields[fieldGenres]),
		Series:    fields[fieldSeries],
		SerNo:     atoi(fields[fieldSerNo]),
		File:      fields[fieldFile],
		FileSize:  atoi(fields[fieldFileSize]),
		LibID:     fields[fieldLibID],
		Deleted:   fields[fieldDeleted],
		Extension: fields[fieldExt],
		Date:      fields[fieldDate],
		Language:  fields[fieldLang],
	}, nil
}

// ContainerName maps an index file name to the archive holding its books,
// e.g. "fb2-000024-030559.inp" to "fb2-000024-030559.zip".
func ContainerName(indexName string) string {
	return strings.TrimSuffix(indexName, IndexExt) + ContainerExt
}

// IsIndex reports whether an archive entry is an index file.
func IsIndex(name string) bool {
	return strings.HasSuffix(name, IndexExt)
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ListSeparator) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func atoi(s string) int {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0
	}
	return int(n)
}
