package search

import "github.com/hyperjump/tansaku/internal/query"

// ProcessQuery normalizes raw for an engine. Queries that normalize to nothing fail
// with query.ErrEmpty.
func ProcessQuery(raw string) (string, error) {
	q := query.Normalize(raw)
	if q == "" {
		return "", query.ErrEmpty
	}
	return q, nil
}
