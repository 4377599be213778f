// Package models defines the records stored in the backends and the search result shape.
package models

// Product is a catalog record as stored in the relational table and the inverted index.
// Brand and Category are kept for filtering but are not used by search.
type Product struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Brand       string `json:"brand,omitempty" yaml:"brand,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
}
