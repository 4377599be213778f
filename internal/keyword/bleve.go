// Package keyword provides an embedded Bleve index of products that answers fuzzy
// multi-field matches.
package keyword

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/ngram"
	unicodetokenizer "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/tansaku/internal/fuzzy"
	"github.com/hyperjump/tansaku/internal/models"
)

const (
	// AutocompleteAnalyzer indexes titles as lowercase 2-20 rune ngrams.
	AutocompleteAnalyzer = "autocomplete"
	ngramFilter          = "ngram_2_20"
	productType          = "product"
)

// BleveIndex is a products index backed by Bleve.
type BleveIndex struct {
	index bleve.Index
}

// product is the stored document.
type product struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
}

// Type implements bleve's mapping.Classifier.
func (product) Type() string { return productType }

// NewIndexMapping maps titles through AutocompleteAnalyzer, descriptions through the
// standard analyzer and brand and category as keywords.
func NewIndexMapping() (mapping.IndexMapping, error) {
	im := bleve.NewIndexMapping()
	if err := im.AddCustomTokenFilter(ngramFilter, map[string]interface{}{
		"type": ngram.Name,
		"min":  2.0,
		"max":  20.0,
	}); err != nil {
		return nil, fmt.Errorf("failed to add ngram filter: %w", err)
	}
	if err := im.AddCustomAnalyzer(AutocompleteAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicodetokenizer.Name,
		"token_filters": []string{lowercase.Name, ngramFilter},
	}); err != nil {
		return nil, fmt.Errorf("failed to add autocomplete analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()
	titleMapping := bleve.NewTextFieldMapping()
	titleMapping.Analyzer = AutocompleteAnalyzer
	docMapping.AddFieldMappingsAt("title", titleMapping)
	descMapping := bleve.NewTextFieldMapping()
	descMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("description", descMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("brand", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("category", keywordFieldMapping)

	im.AddDocumentMapping(productType, docMapping)
	im.DefaultType = productType
	im.DefaultMapping = docMapping
	return im, nil
}

// MemoryPath selects an in-memory index, as does the empty path.
const MemoryPath = ":memory:"

// InMemory reports whether path selects an in-memory index.
func InMemory(path string) bool {
	return path == "" || path == MemoryPath
}

// NewBleveIndex opens the index at path, creating it if it does not exist.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if !InMemory(path) {
		if _, err := os.Stat(path); err == nil {
			index, openErr := bleve.Open(path)
			if openErr != nil {
				return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
			}
			return &BleveIndex{index: index}, nil
		}
	}
	return createIndex(path)
}

// RecreateBleveIndex removes any index at path and creates an empty one.
func RecreateBleveIndex(path string) (*BleveIndex, error) {
	if !InMemory(path) {
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("failed to remove Bleve index: %w", err)
		}
	}
	return createIndex(path)
}

func createIndex(path string) (*BleveIndex, error) {
	im, err := NewIndexMapping()
	if err != nil {
		return nil, err
	}
	var index bleve.Index
	if InMemory(path) {
		index, err = bleve.NewMemOnly(im)
	} else {
		index, err = bleve.New(path, im)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func toDocument(p models.Product) product {
	return product{Title: p.Title, Description: p.Description, Brand: p.Brand, Category: p.Category}
}

// IndexBatch indexes products in one batch. Every product must carry an id.
func (b *BleveIndex) IndexBatch(ctx context.Context, products []models.Product) error {
	batch := b.index.NewBatch()
	for _, p := range products {
		if p.ID == "" {
			return fmt.Errorf("product %q has no id", p.Title)
		}
		if err := batch.Index(p.ID, toDocument(p)); err != nil {
			return fmt.Errorf("failed to batch product %s: %w", p.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch failed: %w", err)
	}
	return nil
}

// MultiMatch runs q over its fields, best score first.
func (b *BleveIndex) MultiMatch(ctx context.Context, q fuzzy.MultiMatch) ([]fuzzy.Hit, error) {
	bq, err := buildQuery(q)
	if err != nil {
		return nil, err
	}
	size := q.Size
	if size <= 0 {
		size = fuzzy.DefaultPageSize
	}
	req := bleve.NewSearchRequestOptions(bq, size, 0, false)
	req.Fields = []string{"title", "description"}

	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	hits := make([]fuzzy.Hit, len(results.Hits))
	for i, hit := range results.Hits {
		hits[i] = fuzzy.Hit{
			ID:          hit.ID,
			Title:       fieldString(hit.Fields, "title"),
			Description: fieldString(hit.Fields, "description"),
			Score:       hit.Score,
		}
	}
	return hits, nil
}

func fieldString(fields map[string]interface{}, name string) string {
	if s, ok := fields[name].(string); ok {
		return s
	}
	return ""
}

// tokenize splits text the way the standard analyzer does before filtering: lowercase
// runs of letters and digits.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// buildQuery turns a multi-match into per-field, per-term queries, any of which
// matches. Bleve has no multi_match, so the operator is always "or".
func buildQuery(q fuzzy.MultiMatch) (blevequery.Query, error) {
	terms := tokenize(q.Query)
	if len(terms) == 0 {
		return bleve.NewMatchNoneQuery(), nil
	}
	fields := q.Fields
	if len(fields) == 0 {
		fields = fuzzy.DefaultFields
	}

	perTerm := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		edits, err := editsFor(q.Fuzziness, term)
		if err != nil {
			return nil, err
		}
		perField := make([]blevequery.Query, 0, len(fields))
		for _, f := range fields {
			perField = append(perField, termQuery(term, f, edits))
		}
		perTerm = append(perTerm, bleve.NewDisjunctionQuery(perField...))
	}

	return bleve.NewDisjunctionQuery(perTerm...), nil
}

func termQuery(term string, f fuzzy.Field, edits int) blevequery.Query {
	boost := f.Boost
	if boost == 0 {
		boost = 1
	}
	if edits == 0 {
		tq := bleve.NewTermQuery(term)
		tq.SetField(f.Name)
		tq.SetBoost(boost)
		return tq
	}
	fq := bleve.NewFuzzyQuery(term)
	fq.SetFuzziness(edits)
	fq.SetField(f.Name)
	fq.SetBoost(boost)
	return fq
}

// editsFor resolves a fuzziness setting for one term. Bleve caps edit distance at 2.
func editsFor(fuzziness, term string) (int, error) {
	switch fuzziness {
	case "", fuzzy.FuzzinessNone:
		return 0, nil
	case fuzzy.FuzzinessAuto:
		return fuzzy.AutoEdits(term), nil
	}
	n, err := strconv.Atoi(fuzziness)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid fuzziness %q", fuzziness)
	}
	if n > 2 {
		n = 2
	}
	return n, nil
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}
