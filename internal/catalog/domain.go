package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// Category is a validated, free-form product category.
type Category string

const (
	// CategoryAll is the reserved "no filter" pseudo-category. It is never stored on a product.
	CategoryAll Category = "All"
	// CategoryUncategorized is assigned when a product arrives without a category.
	CategoryUncategorized Category = "Uncategorized"
)

// NewCategory validates name as a storable category.
func NewCategory(name string) (Category, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", shared.NewValidationError("category", "is required")
	}
	if strings.EqualFold(trimmed, string(CategoryAll)) {
		return "", shared.NewValidationError("category", `"All" is reserved`)
	}
	return Category(trimmed), nil
}

// Matches reports whether a product in c passes the category filter.
func (c Category) Matches(filter Category) bool {
	return filter == "" || filter == CategoryAll || c == filter
}

func (c Category) String() string {
	return string(c)
}

// Product is a sellable catalog entry.
type Product struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Category     Category         `json:"category"`
	Price        decimal.Decimal  `json:"price"`
	Cost         *decimal.Decimal `json:"cost,omitempty"`
	Stock        int              `json:"stock"`
	ReorderLevel int              `json:"reorderLevel"`
	ImageURL     string           `json:"imageUrl"`
}

// IsLowStock reports stock at or below the reorder level.
func (p Product) IsLowStock() bool {
	return p.Stock <= p.ReorderLevel
}

// UnitCost returns the acquisition cost, zero when unknown.
func (p Product) UnitCost() decimal.Decimal {
	if p.Cost == nil {
		return decimal.Zero
	}
	return *p.Cost
}

func (p Product) clone() Product {
	if p.Cost != nil {
		cost := *p.Cost
		p.Cost = &cost
	}
	return p
}

// ProductInput carries the fields accepted by AddProduct.
type ProductInput struct {
	Name         string           `validate:"required"`
	Category     string           `validate:"-"`
	Price        decimal.Decimal  `validate:"gte=0"`
	Cost         *decimal.Decimal `validate:"omitempty,gte=0"`
	Stock        int              `validate:"gte=0"`
	ReorderLevel int              `validate:"gte=0"`
	ImageURL     string           `validate:"-"`
}

// ProductPatch carries optional field updates; nil fields are left untouched.
type ProductPatch struct {
	Name         *string
	Category     *string
	Price        *decimal.Decimal
	Cost         *decimal.Decimal
	ClearCost    bool
	Stock        *int
	ReorderLevel *int
	ImageURL     *string
}

// StockLine is a quantity requested against a product.
type StockLine struct {
	ProductID string
	Name      string
	Quantity  int
}

// SortField enumerates supported list orderings.
type SortField string

const (
	// SortNone keeps insertion order.
	SortNone SortField = ""
	// SortByName orders by name, case-insensitive.
	SortByName SortField = "name"
	// SortByStock orders by on-hand quantity.
	SortByStock SortField = "stock"
	// SortByPrice orders by selling price.
	SortByPrice SortField = "price"
)

// Filter narrows catalog listings.
type Filter struct {
	Category   Category
	Search     string
	SortBy     SortField
	Descending bool
}
