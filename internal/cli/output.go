// Package cli provides output and HTTP helpers for the tansaku command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact prints one result per line.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// ParseOutputFormat maps a flag value to a format.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(s); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
}

// WriteSearchResult writes res to w in the given format. Unknown formats are
// written as text.
func WriteSearchResult(w io.Writer, res *models.SearchResult, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case OutputCompact:
		return writeCompact(w, res)
	default:
		return writeText(w, res)
	}
}

func writeText(w io.Writer, res *models.SearchResult) error {
	ew := &errWriter{w: w}
	ew.printf("\nQuery: %s\n", res.Query)
	if res.Corrected != res.Query {
		ew.printf("Did you mean: %s\n", res.Corrected)
	}
	if len(res.Suggestions) > 0 {
		ew.printf("\nSuggestions:\n")
		for _, s := range res.Suggestions {
			ew.printf("  %s\n", s)
		}
	}
	ew.printf("\nFound %d results\n\n", len(res.Results))
	for i, m := range res.Results {
		ew.printf("─────────────────────────────────────────────────────────\n")
		ew.printf("Rank: %d | Score: %.4f\n", i+1, m.Score)
		ew.printf("ID: %s\n", m.ID)
		ew.printf("Title: %s\n", m.Title)
		if m.Description != "" {
			ew.printf("\n%s\n", utils.Truncate(m.Description, 200))
		}
		ew.printf("\n")
	}
	return ew.err
}

func writeCompact(w io.Writer, res *models.SearchResult) error {
	ew := &errWriter{w: w}
	for i, m := range res.Results {
		ew.printf("%d\t%.4f\t%s\t%s\n", i+1, m.Score, m.ID, m.Title)
	}
	return ew.err
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
