// Package relational implements search over a relational products table: trigram
// autocorrect, prefix autocomplete and weighted full-text ranking.
package relational

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/query"
	"golang.org/x/sync/errgroup"
)

const (
	// SuggestionLimit caps autocomplete suggestions.
	SuggestionLimit = 10
	// ResultLimit caps full-text results.
	ResultLimit = 20
)

// Querier runs read queries. *sql.DB satisfies it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Strategy searches a relational store. It holds no per-request state and is safe
// for concurrent use; connection pooling is left to the Querier.
type Strategy struct {
	db            Querier
	dialect       Dialect
	minSimilarity float64
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithMinSimilarity sets the similarity a title must reach to be an autocorrect
// candidate. Default 0, so any stored title can be chosen.
func WithMinSimilarity(v float64) Option {
	return func(s *Strategy) { s.minSimilarity = v }
}

// New returns a Strategy reading through db with the given dialect.
func New(db Querier, dialect Dialect, opts ...Option) *Strategy {
	s := &Strategy{db: db, dialect: dialect}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search normalizes q, corrects it, then runs autocomplete and full-text search on
// the corrected query concurrently. If either read fails the whole call fails.
func (s *Strategy) Search(ctx context.Context, q string) (*models.SearchResult, error) {
	normalized := query.Normalize(q)
	if normalized == "" {
		return nil, query.ErrEmpty
	}

	corrected, err := s.AutoCorrect(ctx, normalized)
	if err != nil {
		return nil, err
	}

	var (
		suggestions []string
		results     []models.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		suggestions, err = s.AutoComplete(gctx, corrected)
		return err
	})
	g.Go(func() error {
		var err error
		results, err = s.FullTextSearch(gctx, corrected)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return models.NewSearchResult(q, corrected, suggestions, results), nil
}

// AutoCorrect returns the stored title most similar to q, or q when the store is
// empty or no title reaches the minimum similarity.
func (s *Strategy) AutoCorrect(ctx context.Context, q string) (string, error) {
	stmt, args := s.dialect.AutoCorrect(q, s.minSimilarity)
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return "", fmt.Errorf("autocorrect: %w", err)
	}
	defer rows.Close()

	corrected := q
	if rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return "", fmt.Errorf("autocorrect: scan: %w", err)
		}
		if title != "" {
			corrected = title
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("autocorrect: %w", err)
	}
	return corrected, nil
}

// AutoComplete returns up to SuggestionLimit distinct titles starting with prefix.
func (s *Strategy) AutoComplete(ctx context.Context, prefix string) ([]string, error) {
	stmt, args := s.dialect.AutoComplete(prefix, SuggestionLimit)
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}
	defer rows.Close()

	titles := make([]string, 0, SuggestionLimit)
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("autocomplete: scan: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}
	return titles, nil
}

// FullTextSearch returns up to ResultLimit products matching q, highest rank first.
func (s *Strategy) FullTextSearch(ctx context.Context, q string) ([]models.Match, error) {
	stmt, args := s.dialect.FullText(q, ResultLimit)
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("full text search: %w", err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Score); err != nil {
			return nil, fmt.Errorf("full text search: scan: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("full text search: %w", err)
	}
	return matches, nil
}
