package storage

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/registry"
)

// Weights for a document built from a title (A) and a description (B), matching the
// Postgres ts_rank defaults for those labels.
const (
	titleWeight       = 1.0
	descriptionWeight = 0.4
)

// englishAnalyzer tokenizes, lowercases, removes English stop words and applies the
// Porter stemmer, the counterpart of the Postgres "english" text search configuration.
var englishAnalyzer = sync.OnceValue(func() func([]byte) analysis.TokenStream {
	a, err := registry.NewCache().AnalyzerNamed(en.AnalyzerName)
	if err != nil {
		panic(fmt.Sprintf("storage: english analyzer: %v", err))
	}
	return a.Analyze
})

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return !isWordRune(r) })
}

// Trigrams returns the set of trigrams of s the way pg_trgm builds them: every word
// is lowercased and padded with two leading spaces and one trailing space.
func Trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range words(s) {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}

// Similarity is the pg_trgm similarity of a and b: shared trigrams divided by the
// size of the union. Returns 0 when neither string has a trigram.
func Similarity(a, b string) float64 {
	ta, tb := Trigrams(a), Trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}

// Terms splits text into stemmed lowercase search terms with English stop words
// removed, so "laptops" and "laptop" yield the same term.
func Terms(text string) []string {
	tokens := englishAnalyzer()([]byte(text))
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		terms = append(terms, string(tok.Term))
	}
	return terms
}

func termFreq(text string) map[string]int {
	freq := make(map[string]int)
	for _, t := range Terms(text) {
		freq[t]++
	}
	return freq
}

// MatchDocument returns 1 when every term of query occurs in title or description,
// 0 otherwise. A query without terms matches nothing.
func MatchDocument(title, description, query string) int64 {
	terms := Terms(query)
	if len(terms) == 0 {
		return 0
	}
	tf, df := termFreq(title), termFreq(description)
	for _, t := range terms {
		if tf[t] == 0 && df[t] == 0 {
			return 0
		}
	}
	return 1
}

// RankDocument scores a title/description document against query: each query term
// contributes its title frequency at weight A plus its description frequency at weight B.
func RankDocument(title, description, query string) float64 {
	tf, df := termFreq(title), termFreq(description)
	var rank float64
	seen := make(map[string]struct{})
	for _, t := range Terms(query) {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		rank += titleWeight*float64(tf[t]) + descriptionWeight*float64(df[t])
	}
	return rank
}
