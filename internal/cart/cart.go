package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
	"github.com/odyssey-pos/odyssey-pos/internal/ledger"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// DefaultTaxRate is the VAT rate used when none is configured.
var DefaultTaxRate = decimal.RequireFromString("0.16")

// Cart collects pending sale lines for one checkout session.
// A Cart is not safe for concurrent use.
type Cart struct {
	taxRate decimal.Decimal
	order   []string
	lines   map[string]*ledger.SaleItem
}

// New returns an empty cart that applies taxRate.
func New(taxRate decimal.Decimal) *Cart {
	return &Cart{taxRate: taxRate, lines: make(map[string]*ledger.SaleItem)}
}

// TaxRate returns the configured rate.
func (c *Cart) TaxRate() decimal.Decimal {
	return c.taxRate
}

// AddItem adds qty units of product. Repeated adds of one product grow a single line
// whose name, price and cost stay as they were when the line was first created.
func (c *Cart) AddItem(product catalog.Product, qty int) error {
	if qty < 1 {
		return shared.NewValidationError("quantity", "must be >= 1")
	}
	if product.ID == "" {
		return shared.NewValidationError("product", "is required")
	}
	if line, ok := c.lines[product.ID]; ok {
		line.Quantity += qty
		return nil
	}
	item := &ledger.SaleItem{
		ProductID: product.ID,
		Name:      product.Name,
		Category:  product.Category,
		Price:     product.Price,
		Quantity:  qty,
		ImageURL:  product.ImageURL,
	}
	if product.Cost != nil {
		cost := *product.Cost
		item.Cost = &cost
	}
	c.lines[product.ID] = item
	c.order = append(c.order, product.ID)
	return nil
}

// SetQuantity sets the line quantity. Anything below one behaves like RemoveItem,
// so it never fails.
func (c *Cart) SetQuantity(productID string, qty int) error {
	if qty < 1 {
		c.RemoveItem(productID)
		return nil
	}
	line, ok := c.lines[productID]
	if !ok {
		return shared.NewNotFoundError("cart line", productID)
	}
	line.Quantity = qty
	return nil
}

// RemoveItem drops the line if present.
func (c *Cart) RemoveItem(productID string) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Lines returns copies of the lines in insertion order.
func (c *Cart) Lines() []ledger.SaleItem {
	out := make([]ledger.SaleItem, 0, len(c.order))
	for _, id := range c.order {
		item := *c.lines[id]
		if item.Cost != nil {
			cost := *item.Cost
			item.Cost = &cost
		}
		out = append(out, item)
	}
	return out
}

// StockLines maps cart lines to catalog stock requests.
func (c *Cart) StockLines() []catalog.StockLine {
	out := make([]catalog.StockLine, 0, len(c.order))
	for _, id := range c.order {
		line := c.lines[id]
		out = append(out, catalog.StockLine{ProductID: id, Name: line.Name, Quantity: line.Quantity})
	}
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.order)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.order) == 0
}

// Subtotal is the sum of price times quantity.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, id := range c.order {
		total = total.Add(c.lines[id].LineTotal())
	}
	return total
}

// Tax is the subtotal times the tax rate.
func (c *Cart) Tax() decimal.Decimal {
	return c.Subtotal().Mul(c.taxRate)
}

// Total is subtotal plus tax.
func (c *Cart) Total() decimal.Decimal {
	subtotal := c.Subtotal()
	return subtotal.Add(subtotal.Mul(c.taxRate))
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.order = nil
	c.lines = make(map[string]*ledger.SaleItem)
}

func (c *Cart) String() string {
	return fmt.Sprintf("cart{lines=%d subtotal=%s}", c.Len(), c.Subtotal().StringFixed(2))
}
