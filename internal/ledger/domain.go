package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
)

// IDPrefix marks every sale identifier.
const IDPrefix = "SALE-"

// SaleItem is a frozen copy of a product line at the time of sale.
type SaleItem struct {
	ProductID string           `json:"productId"`
	Name      string           `json:"name"`
	Category  catalog.Category `json:"category,omitempty"`
	Price     decimal.Decimal  `json:"price"`
	Cost      *decimal.Decimal `json:"cost,omitempty"`
	Quantity  int              `json:"quantity"`
	ImageURL  string           `json:"imageUrl,omitempty"`
}

// LineTotal is price times quantity.
func (i SaleItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LineCost is unit cost times quantity, zero when the cost was unknown.
func (i SaleItem) LineCost() decimal.Decimal {
	if i.Cost == nil {
		return decimal.Zero
	}
	return i.Cost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Sale is an immutable committed transaction.
type Sale struct {
	ID       string          `json:"id"`
	Items    []SaleItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Date     time.Time       `json:"date"`
}

// Units is the number of items sold across all lines.
func (s Sale) Units() int {
	total := 0
	for _, item := range s.Items {
		total += item.Quantity
	}
	return total
}

// Clone returns a deep copy of the sale.
func (s Sale) Clone() Sale {
	items := make([]SaleItem, len(s.Items))
	for i, item := range s.Items {
		if item.Cost != nil {
			cost := *item.Cost
			item.Cost = &cost
		}
		items[i] = item
	}
	s.Items = items
	return s
}
