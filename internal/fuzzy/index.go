// Package fuzzy implements search against an inverted index: one fuzzy multi-field
// match whose hits provide the correction, the suggestions and the results.
package fuzzy

import (
	"context"
	"strconv"
	"unicode/utf8"
)

// Fuzziness values understood by every Index.
const (
	FuzzinessAuto = "AUTO"
	FuzzinessNone = "0"
)

// OperatorOr matches documents containing any term of the query.
const OperatorOr = "or"

// MinFuzzyLength is the shortest query, in runes, that is matched fuzzily.
const MinFuzzyLength = 4

// Field is an indexed field and its query-time boost.
type Field struct {
	Name  string
	Boost float64
}

// String renders the field the way multi_match expects it, e.g. "title^3".
func (f Field) String() string {
	if f.Boost == 0 || f.Boost == 1 {
		return f.Name
	}
	return f.Name + "^" + strconv.FormatFloat(f.Boost, 'f', -1, 64)
}

// DefaultFields are the searched fields: the title boosted three times the description.
var DefaultFields = []Field{
	{Name: "title", Boost: 3},
	{Name: "description", Boost: 1},
}

// MultiMatch is a single query matched against several fields.
type MultiMatch struct {
	Query     string
	Fields    []Field
	Fuzziness string
	Operator  string
	Size      int
}

// Hit is one scored document returned by an Index.
type Hit struct {
	ID          string
	Title       string
	Description string
	Score       float64
}

// Index runs multi-match queries. Hits come back best score first.
type Index interface {
	MultiMatch(ctx context.Context, q MultiMatch) ([]Hit, error)
}

// FuzzinessFor returns AUTO for queries of at least MinFuzzyLength runes and exact
// matching for shorter ones.
func FuzzinessFor(q string) string {
	if utf8.RuneCountInString(q) >= MinFuzzyLength {
		return FuzzinessAuto
	}
	return FuzzinessNone
}

// BuildQuery returns the multi-match issued for q.
func BuildQuery(q string, size int) MultiMatch {
	return MultiMatch{
		Query:     q,
		Fields:    DefaultFields,
		Fuzziness: FuzzinessFor(q),
		Operator:  OperatorOr,
		Size:      size,
	}
}

// AutoEdits resolves AUTO fuzziness for a single term: no edits up to two runes, one
// edit up to five, two beyond.
func AutoEdits(term string) int {
	switch n := utf8.RuneCountInString(term); {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}
