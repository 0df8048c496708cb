package data

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestOutFileName(t *testing.T) {
	tests := []struct {
		name     string
		book     Book
		expected string
	}{
		{
			name:     "no series number",
			book:     Book{Title: "Dune", Authors: []string{"Herbert,Frank,"}},
			expected: "Herbert,Frank - Dune.fb2",
		},
		{
			name:     "positive series number",
			book:     Book{Title: "Dune Messiah", Authors: []string{"Herbert,Frank,"}, SerNo: 2},
			expected: "Herbert,Frank - [2] Dune Messiah.fb2",
		},
		{
			name:     "zero series number has no bracket",
			book:     Book{Title: "Solaris", Authors: []string{"Lem,Stanislaw"}, Series: "Any", SerNo: 0},
			expected: "Lem,Stanislaw - Solaris.fb2",
		},
		{
			name:     "authors are trimmed and joined",
			book:     Book{Title: "Пикник на обочине", Authors: []string{" Стругацкий,Аркадий, ", ",Стругацкий,Борис,"}},
			expected: "Стругацкий,Аркадий, Стругацкий,Борис - Пикник на обочине.fb2",
		},
		{
			name:     "no authors",
			book:     Book{Title: "Anonymous"},
			expected: " - Anonymous.fb2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.book.OutFileName(); got != tt.expected {
				t.Errorf("expected %q; got %q", tt.expected, got)
			}
		})
	}
}

func TestOutFileNameTruncatesAuthors(t *testing.T) {
	long := strings.Repeat("Ж", 150)
	book := Book{Title: "T", Authors: []string{long}}
	got := book.OutFileName()
	authors := strings.TrimSuffix(got, " - T.fb2")
	if !strings.HasSuffix(authors, Ellipsis) {
		t.Fatalf("expected ellipsis at the end of %q", authors)
	}
	visible := strings.TrimSuffix(authors, Ellipsis)
	if n := utf8.RuneCountInString(visible); n != MaxAuthorsLength {
		t.Errorf("expected %d visible characters; got %d", MaxAuthorsLength, n)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncation split a multi-byte character: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	t.Run("short string unchanged", func(t *testing.T) {
		if got := Truncate("abc", 3); got != "abc" {
			t.Errorf("expected abc; got %q", got)
		}
	})
	t.Run("cut on characters", func(t *testing.T) {
		if got := Truncate("привет", 3); got != "при…" {
			t.Errorf("expected при…; got %q", got)
		}
	})
}

func TestBookFileName(t *testing.T) {
	book := Book{File: "123456", Extension: "fb2"}
	if got := book.FileName(); got != "123456.fb2" {
		t.Errorf("expected 123456.fb2; got %q", got)
	}
}
