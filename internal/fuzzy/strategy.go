package fuzzy

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/query"
)

const (
	// SuggestionLimit caps the titles returned as suggestions.
	SuggestionLimit = 5
	// DefaultPageSize is the number of hits requested from the index.
	DefaultPageSize = 10
)

// Strategy searches an inverted index.
type Strategy struct {
	index    Index
	pageSize int
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithPageSize sets how many hits are requested per search. Values below 1 are ignored.
func WithPageSize(n int) Option {
	return func(s *Strategy) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// New returns a Strategy over index.
func New(index Index, opts ...Option) *Strategy {
	s := &Strategy{index: index, pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search issues one multi-match for q as given and derives the whole result from its
// hits. Without surviving hits the correction is the normalized query.
func (s *Strategy) Search(ctx context.Context, q string) (*models.SearchResult, error) {
	normalized := query.Normalize(q)
	if normalized == "" {
		return nil, query.ErrEmpty
	}

	hits, err := s.index.MultiMatch(ctx, BuildQuery(q, s.pageSize))
	if err != nil {
		return nil, fmt.Errorf("fuzzy search: %w", err)
	}
	hits = Filter(hits, q)

	corrected := normalized
	if len(hits) > 0 && hits[0].Title != "" {
		corrected = hits[0].Title
	}

	suggestions := make([]string, 0, SuggestionLimit)
	results := make([]models.Match, 0, len(hits))
	for i, h := range hits {
		if i < SuggestionLimit {
			suggestions = append(suggestions, h.Title)
		}
		results = append(results, models.Match{
			ID:          h.ID,
			Title:       h.Title,
			Description: h.Description,
			Score:       h.Score,
		})
	}
	return models.NewSearchResult(q, corrected, suggestions, results), nil
}

// Filter keeps the hits whose title contains q case-insensitively or whose score is
// positive. Order is preserved.
func Filter(hits []Hit, q string) []Hit {
	needle := strings.ToLower(q)
	kept := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if strings.Contains(strings.ToLower(h.Title), needle) || h.Score > 0 {
			kept = append(kept, h)
		}
	}
	return kept
}
