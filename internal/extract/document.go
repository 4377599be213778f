package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/tansaku/internal/models"
	"gopkg.in/yaml.v3"
)

// catalog is the wrapped document form: {"products": [...]}.
type catalog struct {
	Products []models.Product `yaml:"products"`
}

// extractDocument parses a YAML or JSON catalog, either a bare list of products or
// a mapping with a products key.
func extractDocument(content []byte) ([]models.Product, error) {
	if !utf8.Valid(content) {
		content = []byte(strings.ToValidUTF8(string(content), "\ufffd"))
	}
	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return []models.Product{}, nil
	}

	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		var products []models.Product
		if err := doc.Decode(&products); err != nil {
			return nil, fmt.Errorf("decode products: %w", err)
		}
		return products, nil
	case yaml.MappingNode:
		var c catalog
		if err := doc.Decode(&c); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		if c.Products == nil {
			return nil, fmt.Errorf("catalog has no products key")
		}
		return c.Products, nil
	default:
		return nil, fmt.Errorf("catalog must be a list of products or a mapping with a products key")
	}
}
