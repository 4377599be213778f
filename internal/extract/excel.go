package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/xuri/excelize/v2"
)

// extractExcel reads products from the first sheet. The first row names the columns
// (id, title, description, brand, category, in any order and case); blank rows are
// skipped.
func extractExcel(content []byte) ([]models.Product, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []models.Product{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return []models.Product{}, nil
	}

	columns := make(map[string]int)
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["title"]; !ok {
		return nil, fmt.Errorf("sheet %q has no title column", sheets[0])
	}
	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	products := make([]models.Product, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		p := models.Product{
			ID:          cell(row, "id"),
			Title:       cell(row, "title"),
			Description: cell(row, "description"),
			Brand:       cell(row, "brand"),
			Category:    cell(row, "category"),
		}
		if strings.TrimSpace(p.Title) == "" {
			return nil, fmt.Errorf("sheet %q row %d: title is required", sheets[0], n+2)
		}
		products = append(products, p)
	}
	return products, nil
}
