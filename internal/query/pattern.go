package query

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// luceneReserved are the characters with special meaning in the regular
// expression syntax of terms aggregation include patterns.
const luceneReserved = `.?+*|{}[]()"\#@&<>~`

// AuthorPattern builds the include pattern for the authors aggregation:
// "lev tolst" becomes ".*Lev.*Tolst.*".
func AuthorPattern(author string) string {
	// A Caser keeps state and must not be shared between goroutines.
	caser := cases.Title(language.Und)

	var b strings.Builder
	b.WriteString(".*")
	for _, tok := range strings.Fields(author) {
		b.WriteString(escape(caser.String(tok)))
		b.WriteString(".*")
	}
	return b.String()
}

func escape(s string) string {
	if !strings.ContainsAny(s, luceneReserved) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(luceneReserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
