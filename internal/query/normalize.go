// Package query normalizes raw query text before it reaches a search backend.
package query

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ErrEmpty is returned by search engines when a query is empty after normalization.
var ErrEmpty = errors.New("query is empty")

// Normalize composes the text to NFC, lowercases it, trims it and collapses runs of
// whitespace to a single space. Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	s := norm.NFC.String(raw)
	// A Caser keeps state between calls, so each call gets its own.
	s = cases.Lower(language.Und).String(s)
	return strings.Join(strings.Fields(s), " ")
}
