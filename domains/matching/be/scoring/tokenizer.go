// Package scoring implements the brand/influencer compatibility engine: token-set
// similarity blended with pool-relative engagement, ranked and truncated to top-N.
// Everything here is pure and safe for concurrent use.
package scoring

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenLength is the shortest token kept; anything with fewer runes is noise.
const minTokenLength = 3

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "a": {},
	"an": {}, "of": {}, "in": {}, "to": {}, "on": {},
}

// TokenSet is a set of normalized tokens.
type TokenSet map[string]struct{}

// Tokenize lower-cases text, splits it on runs of non-letters and drops short tokens and stop words.
func Tokenize(text string) TokenSet {
	tokens := TokenSet{}
	if text == "" {
		return tokens
	}

	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTokenLength {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens[f] = struct{}{}
	}

	return tokens
}

// Has reports whether the token is in the set.
func (s TokenSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}
