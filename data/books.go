package data

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// MaxAuthorsLength is the number of characters kept from the joined author
	// list when deriving an output file name.
	MaxAuthorsLength = 100
	// Ellipsis replaces whatever is cut from a truncated author list.
	Ellipsis = "…"
	// OutFileExtension is appended to every derived output file name.
	OutFileExtension = ".fb2"
)

// Book defines a catalog entry as it is stored in the search backend.
type Book struct {
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	Genres    []string `json:"genres"`
	Series    string   `json:"series"`
	SerNo     int      `json:"ser_no"`
	File      string   `json:"file"`
	FileSize  int      `json:"file_size"`
	LibID     string   `json:"lib_id"`
	Deleted   string   `json:"del"`
	Extension string   `json:"ext"`
	Date      string   `json:"date"`
	Language  string   `json:"lang"`
	Container string   `json:"container"`
}

// FileName returns the name of the book's entry inside its container.
func (b *Book) FileName() string {
	return b.File + "." + b.Extension
}

// OutFileName derives the human-readable name a book is handed out under,
// e.g. "Herbert Frank - [1] Dune.fb2". It never affects lookup.
func (b *Book) OutFileName() string {
	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		names = append(names, strings.Trim(a, ", "))
	}
	authors := Truncate(strings.Join(names, ", "), MaxAuthorsLength)
	if b.SerNo > 0 {
		return authors + " - [" + strconv.Itoa(b.SerNo) + "] " + b.Title + OutFileExtension
	}
	return authors + " - " + b.Title + OutFileExtension
}

// Truncate cuts s down to max characters (not bytes) and marks the cut with an
// ellipsis. Strings that already fit are returned unchanged.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + Ellipsis
		}
		n++
	}
	return s
}
