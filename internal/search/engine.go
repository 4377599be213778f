// Package search defines the search engine contract and selects the running engine.
package search

import (
	"context"
	"errors"

	"github.com/hyperjump/tansaku/internal/models"
)

// ErrUnimplemented is returned by engines that were never wired to a backend.
var ErrUnimplemented = errors.New("search capability not implemented")

// Engine answers one text query with a correction, suggestions and ranked results.
// Search blocks until every backend request it issued has finished.
type Engine interface {
	Search(ctx context.Context, query string) (*models.SearchResult, error)
}

// Unimplemented fails every search with ErrUnimplemented.
type Unimplemented struct{}

// Search implements Engine.
func (Unimplemented) Search(context.Context, string) (*models.SearchResult, error) {
	return nil, ErrUnimplemented
}
