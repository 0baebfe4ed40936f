package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// DefaultImportReorderLevel applies to imported rows that carry no reorder level.
	DefaultImportReorderLevel = 5
	unknownItemName           = "Unknown Item"
)

// ImportRow is a reviewed product line coming out of document extraction.
type ImportRow struct {
	Name         string           `json:"name"`
	Category     string           `json:"category,omitempty"`
	Stock        int              `json:"stock"`
	Price        decimal.Decimal  `json:"price"`
	Cost         *decimal.Decimal `json:"cost,omitempty"`
	ReorderLevel int              `json:"reorderLevel,omitempty"`
	ImageURL     string           `json:"imageUrl,omitempty"`
}

// ImportRows inserts every row or none of them.
func (s *Store) ImportRows(ctx context.Context, rows []ImportRow) ([]Product, error) {
	type prepared struct {
		in       ProductInput
		category Category
	}
	ready := make([]prepared, 0, len(rows))
	for i, row := range rows {
		in, category, err := s.normalise(s.importInput(row))
		if err != nil {
			return nil, fmt.Errorf("import row %d: %w", i+1, err)
		}
		ready = append(ready, prepared{in: in, category: category})
	}
	if len(ready) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	created := make([]Product, 0, len(ready))
	for _, r := range ready {
		p := productFromInput(s.nextIDLocked(), r.in, r.category)
		s.insertLocked(p)
		created = append(created, p.clone())
	}
	s.revision++
	s.mu.Unlock()

	for _, p := range created {
		s.record(ctx, "catalog:import", p.ID, map[string]any{"name": p.Name, "stock": p.Stock})
	}
	return created, nil
}

func (s *Store) importInput(row ImportRow) ProductInput {
	name := strings.TrimSpace(row.Name)
	seed := name
	if name == "" {
		name = unknownItemName
		seed = "product"
	}
	reorder := row.ReorderLevel
	if reorder == 0 {
		reorder = s.importReorderLevel
	}
	image := strings.TrimSpace(row.ImageURL)
	if image == "" {
		image = "https://picsum.photos/seed/" + url.PathEscape(seed) + "/200"
	}
	return ProductInput{
		Name:         name,
		Category:     row.Category,
		Price:        row.Price,
		Cost:         row.Cost,
		Stock:        row.Stock,
		ReorderLevel: reorder,
		ImageURL:     image,
	}
}
