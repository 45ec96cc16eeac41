// Package normalize produces the canonical form of show titles and city
// names used as resolution keys. Provider titles mix full-width and
// half-width punctuation, decorative brackets, and inconsistent casing;
// two titles that fold to the same normalized string are treated as the
// same name everywhere in the system.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// bracketPairs lists the bracket styles providers decorate titles with.
// Content inside them is venue/run metadata, not part of the show name.
var bracketPairs = [][2]rune{
	{'【', '】'},
	{'（', '）'},
	{'(', ')'},
	{'[', ']'},
	{'《', '》'},
}

// Text folds a free-form title into its canonical matching key: NFKC
// normalization, full-width to half-width folding, lower-casing, and
// removal of all whitespace, punctuation, and symbol runes.
func Text(s string) string {
	s = norm.NFKC.String(s)
	s = width.Fold.String(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// City folds a city name or city hint. Cities keep letters and digits only,
// same as titles; an empty hint stays empty rather than becoming a key.
func City(s string) string {
	return Text(s)
}

// StripBrackets removes every bracketed segment from a title, returning the
// bare show name. Unbalanced brackets drop the opener and keep the rest.
func StripBrackets(s string) string {
	for _, pair := range bracketPairs {
		for {
			open := strings.IndexRune(s, pair[0])
			if open < 0 {
				break
			}
			rest := s[open:]
			closeIdx := strings.IndexRune(rest, pair[1])
			if closeIdx < 0 {
				s = s[:open] + strings.TrimLeft(rest, string(pair[0]))
				break
			}
			s = s[:open] + rest[closeIdx+len(string(pair[1])):]
		}
	}
	return strings.TrimSpace(s)
}

// Title folds a raw provider title: bracketed decorations removed first,
// then the standard text fold.
func Title(s string) string {
	return Text(StripBrackets(s))
}
