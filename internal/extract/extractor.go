// Package extract reads product catalogs from YAML, JSON and Excel files.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/tansaku/internal/models"
)

// Extractor reads product records from catalog files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the catalog at path. The format is chosen by extension.
func (e *Extractor) Extract(path string) ([]models.Product, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes reads a catalog from content based on the given extension.
// ext should include the leading dot (e.g. ".xlsx").
func (e *Extractor) ExtractBytes(content []byte, ext string) ([]models.Product, error) {
	var (
		products []models.Product
		err      error
	)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml", ".json":
		products, err = extractDocument(content)
	case ".xlsx":
		products, err = extractExcel(content)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	return products, validate(products)
}

// validate trims every field and requires a title.
func validate(products []models.Product) error {
	for i := range products {
		p := &products[i]
		p.ID = strings.TrimSpace(p.ID)
		p.Title = strings.TrimSpace(p.Title)
		p.Description = strings.TrimSpace(p.Description)
		p.Brand = strings.TrimSpace(p.Brand)
		p.Category = strings.TrimSpace(p.Category)
		if p.Title == "" {
			return fmt.Errorf("product %d: title is required", i+1)
		}
	}
	return nil
}
