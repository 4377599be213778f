package models

// Match is a single ranked hit. Score is on the backend's native scale and is not
// comparable across backends.
type Match struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
}

// SearchResult is what every search engine returns for one query.
type SearchResult struct {
	// Query is the input exactly as it was passed to Search.
	Query string `json:"query"`
	// Corrected is the best spelling-corrected form of the query. Never empty.
	Corrected string `json:"corrected"`
	// Suggestions are autocomplete candidates, best first.
	Suggestions []string `json:"suggestions"`
	// Results are ordered by descending Score.
	Results []Match `json:"results"`
}

// NewSearchResult builds a result with non-nil slices so that empty lists
// serialize as [] rather than null.
func NewSearchResult(query, corrected string, suggestions []string, results []Match) *SearchResult {
	if suggestions == nil {
		suggestions = []string{}
	}
	if results == nil {
		results = []Match{}
	}
	return &SearchResult{
		Query:       query,
		Corrected:   corrected,
		Suggestions: suggestions,
		Results:     results,
	}
}
