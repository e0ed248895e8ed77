// Package keyword provides the full-text retrieval oracle: ranking
// review texts against a free-text query, backed by Postgres full-text
// search in production and an in-memory matcher in tests.
package keyword

import (
	"strings"
	"unicode"
)

// DefaultLimit caps how many hits a single query returns.
const DefaultLimit = 50

// Terms extracts the searchable terms of a raw query: lowercased
// alphanumeric words, everything else stripped so the derived tsquery
// stays valid. Returns nil when no usable terms remain.
func Terms(query string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, query)
	terms := strings.Fields(cleaned)
	if len(terms) == 0 {
		return nil
	}
	return terms
}

// DeriveQuery turns a raw query into an OR-joined tsquery expression,
// matching reviews that contain any of the terms. Returns "" when the
// query has no usable terms.
func DeriveQuery(query string) string {
	return strings.Join(Terms(query), " | ")
}
